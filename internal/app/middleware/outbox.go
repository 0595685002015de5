package middleware

import (
	"context"
	"log/slog"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
)

type Flusher interface {
	Flush(ctx context.Context) error
}

// OutboxFlush runs after the transaction has committed. A flush failure does not
// fail the command: records stay stored and the worker picks them up later.
func OutboxFlush(f Flusher, logger *slog.Logger) CommandMiddleware {
	if f == nil {
		panic("middleware: outbox flusher required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := f.Flush(ctx); err != nil && logger != nil {
				logger.WarnContext(ctx, "outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
