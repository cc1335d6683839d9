// Package audit keeps a resource's audit-notification binding consistent
// across the scheduler, the notification channel, and the persisted
// resource record, using explicit compensating actions.
package audit

import (
	"context"
	"log/slog"

	"govhub/internal/domain"
)

// Action is one step of a saga: a forward action and, optionally, the
// compensating action that undoes it if a later step fails.
type Action struct {
	// FailureMessage names the step in user-visible failure reports.
	FailureMessage string
	Forward        func(ctx context.Context) error
	Compensate     func(ctx context.Context) error
}

// runSaga executes forward actions in order. When a step fails, the
// compensations of the previously successful steps run in reverse order.
// Three outcomes are distinguished: success; failure with successful
// compensation (reported as the original cause, annotated "rollback
// successful"); and failure with failed compensation (reported as the
// compensation's own error, the more urgent operational concern since it
// leaves an orphaned external resource).
func runSaga(ctx context.Context, logger *slog.Logger, actions []Action) error {
	var completed []Action
	for _, a := range actions {
		err := a.Forward(ctx)
		if err == nil {
			if a.Compensate != nil {
				completed = append(completed, a)
			}
			continue
		}

		logger.Warn("saga step failed, rolling back", "step", a.FailureMessage, "error", err)
		for i := len(completed) - 1; i >= 0; i-- {
			c := completed[i]
			if cerr := c.Compensate(ctx); cerr != nil {
				logger.Error("saga compensation failed",
					"step", a.FailureMessage, "compensation", c.FailureMessage, "error", cerr)
				return domain.ErrInternalCause(cerr, "rollback of %q after %q failed: %v", c.FailureMessage, a.FailureMessage, cerr)
			}
		}
		if len(completed) == 0 {
			return domain.ErrInternalCause(err, "%s: %v", a.FailureMessage, err)
		}
		return domain.ErrInternalCause(err, "%s(rollback successful)", a.FailureMessage)
	}
	return nil
}
