// Package middleware provides HTTP middleware for authentication, request
// ids, and rate limiting.
package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"govhub/internal/domain"
)

// devUserHeader identifies the calling user when auth is disabled. Only
// honored when no JWT secret is configured.
const devUserHeader = "X-User-Id"

// Auth returns a middleware that authenticates requests with an HS256
// Bearer token whose sub claim is the user id, resolves the user, and
// stores a principal in the request context.
//
// With an empty secret, authentication is disabled and the user id is
// taken from the X-User-Id header instead.
func Auth(jwtSecret []byte, users domain.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := identify(r, jwtSecret)
			if err != nil {
				writeUnauthorized(w, err.Error())
				return
			}

			user, err := users.GetByID(r.Context(), userID)
			if err != nil {
				var notFound *domain.NotFoundError
				if errors.As(err, &notFound) {
					writeUnauthorized(w, fmt.Sprintf("unknown user %s", userID))
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"code":    http.StatusInternalServerError,
					"message": "internal server error",
				})
				return
			}

			ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{
				UserID:  user.ID,
				Name:    user.Name,
				IsAdmin: user.IsAdmin(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func identify(r *http.Request, jwtSecret []byte) (string, error) {
	if len(jwtSecret) == 0 {
		if id := r.Header.Get(devUserHeader); id != "" {
			return id, nil
		}
		return "", fmt.Errorf("unauthorized: set the %s header (auth is disabled)", devUserHeader)
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", errors.New("unauthorized: provide a Bearer token")
	}
	tokenStr := strings.TrimPrefix(auth, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.New("unauthorized: invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("unauthorized: unsupported claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", errors.New("unauthorized: token has no sub claim")
	}
	return sub, nil
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"code":    http.StatusUnauthorized,
		"message": message,
	})
}
