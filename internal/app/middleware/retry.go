package middleware

import (
	"context"
	"errors"
	"time"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/uow"
)

// RetryConcurrent re-dispatches a command that lost a listing lock race. It
// must wrap Transaction so every attempt runs in a fresh unit of work. The
// next attempt re-reads bookings, so a request that truly overlaps the winner
// is rejected instead of retried forever.
func RetryConcurrent(attempts int, backoff time.Duration) CommandMiddleware {
	if attempts < 1 {
		attempts = 1
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			var lastErr error
			for attempt := 0; attempt < attempts; attempt++ {
				if attempt > 0 && backoff > 0 {
					timer := time.NewTimer(backoff * time.Duration(attempt))
					select {
					case <-ctx.Done():
						timer.Stop()
						return nil, errors.Join(lastErr, ctx.Err())
					case <-timer.C:
					}
				}
				res, err := nextFn(ctx, cmd)
				if err == nil {
					return res, nil
				}
				if !errors.Is(err, uow.ErrConcurrentBooking) {
					return nil, err
				}
				lastErr = err
			}
			return nil, lastErr
		})
	}
}
