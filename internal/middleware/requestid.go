package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// headerRequestID carries the correlation id; approval and audit log
// lines for one request are tied together by it.
const headerRequestID = "X-Request-ID"

type requestIDKey struct{}

// RequestID tags every request with a correlation id. A caller-supplied
// X-Request-ID is reused so traces spanning an upstream gateway stay
// intact; otherwise a fresh UUID is minted. The id is echoed on the
// response and stored in the request context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFromContext returns the correlation id of the request, or an
// empty string outside a request scope.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
