package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
)

var ErrUnauthenticated = errors.New("authentication required")

// ActorCommand is implemented by commands issued on behalf of a signed-in user.
type ActorCommand interface {
	commands.Command
	ActorID() string
}

// RequireActor rejects actor commands that arrive without a caller identity.
func RequireActor() CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if ac, ok := cmd.(ActorCommand); ok && strings.TrimSpace(ac.ActorID()) == "" {
				return nil, ErrUnauthenticated
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}
