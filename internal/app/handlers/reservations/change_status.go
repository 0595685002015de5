package reservations

import (
	"context"
	"errors"
	"log/slog"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
)

const (
	ChangeStatusKey = "reservation.change_status"
	CancelKey       = "reservation.cancel"
)

type ChangeStatusCommand struct {
	support.Actor
	ReservationID string `validate:"required"`
	Status        string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c ChangeStatusCommand) Key() string { return ChangeStatusKey }

// CancelCommand backs DELETE /reservations/:id. Cancelling an already
// cancelled reservation returns it unchanged.
type CancelCommand struct {
	support.Actor
	ReservationID string `validate:"required"`
	Reason        string `validate:"max=500"`
}

func (c CancelCommand) Key() string { return CancelKey }

type ChangeStatusHandler struct {
	Clock   policies.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *ChangeStatusHandler) Handle(ctx context.Context, cmd ChangeStatusCommand) (*dto.Reservation, error) {
	next, err := reservation.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return h.apply(ctx, cmd.Actor, reservation.ID(cmd.ReservationID), next, cmd.Reason, false)
}

func (h *ChangeStatusHandler) Cancel() commands.Handler[CancelCommand, *dto.Reservation] {
	return commands.HandlerFunc[CancelCommand, *dto.Reservation](func(ctx context.Context, cmd CancelCommand) (*dto.Reservation, error) {
		return h.apply(ctx, cmd.Actor, reservation.ID(cmd.ReservationID), reservation.StatusCancelled, cmd.Reason, true)
	})
}

func (h *ChangeStatusHandler) apply(ctx context.Context, actor support.Actor, id reservation.ID, next reservation.Status, reason string, allowNoop bool) (*dto.Reservation, error) {
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	r, err := unit.Reservations().ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := unit.Properties().ByID(ctx, r.PropertyID)
	if err != nil && !errors.Is(err, property.ErrNotFound) {
		return nil, err
	}
	if !mayChange(actor, r, p, next) {
		return nil, reservation.ErrForbidden
	}
	if allowNoop && r.Status == next {
		out := dto.MapReservation(r)
		return &out, nil
	}
	if err := unit.LockProperty(ctx, r.PropertyID); err != nil {
		return nil, err
	}
	// re-read under the lock; another writer may have moved it meanwhile
	if r, err = unit.Reservations().ByID(ctx, id); err != nil {
		return nil, err
	}
	if err := r.ChangeStatus(next, reason, policies.Now(h.Clock)); err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, r.PullEvents()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "reservation status changed", "reservation_id", r.ID, "status", r.Status, "actor", actor.UserID)
	}
	out := dto.MapReservation(r)
	return &out, nil
}

// mayChange: admins may do anything, the property owner may confirm or cancel,
// the guest may only cancel their own reservation.
func mayChange(actor support.Actor, r *reservation.Reservation, p *property.Property, next reservation.Status) bool {
	if actor.IsAdmin() {
		return true
	}
	if p != nil && p.OwnedBy(property.OwnerID(actor.UserID)) {
		return next == reservation.StatusConfirmed || next == reservation.StatusCancelled
	}
	if r.GuestID == actor.UserID {
		return next == reservation.StatusCancelled
	}
	return false
}

var _ commands.Handler[ChangeStatusCommand, *dto.Reservation] = (*ChangeStatusHandler)(nil)
var _ middleware.ActorCommand = ChangeStatusCommand{}
var _ middleware.ActorCommand = CancelCommand{}
