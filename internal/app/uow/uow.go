package uow

import (
	"context"

	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

// UnitOfWork coordinates repositories inside one transaction boundary.
type UnitOfWork interface {
	Properties() property.Repository
	Reservations() reservation.Repository
	Users() user.Repository
	Outbox() outbox.Outbox

	// LockProperty serializes writers touching the reservations of one property
	// until Commit or Rollback. Drivers that cannot wait report
	// reservation.ErrConcurrentBooking.
	LockProperty(ctx context.Context, id property.ID) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ContextInjector is implemented by units that carry driver state (sessions,
// transactions) through the context.
type ContextInjector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind returns ctx carrying unit and any driver state it injects.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(ContextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}
