package middleware

import (
	"context"
	"log/slog"

	"airbrb/internal/app/commands"
	"airbrb/internal/app/outbox"
)

// OutboxFlush publishes recorded events once a command has committed. A
// failed flush is logged and left for the relay to retry; the command result
// stands because its state change is already durable.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		nextFn := wrapCommand(next)
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := nextFn(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil {
				logger.WarnContext(ctx, "outbox flush failed", "key", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
