package reservations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
)

const CreateReservationKey = "reservation.create"

type CreateReservationCommand struct {
	support.Actor
	ReservationID   string    `validate:"required"`
	PropertyID      string    `validate:"required"`
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Guests          int       `validate:"min=1"`
	IdempotencyKeyV string
}

func (c CreateReservationCommand) Key() string { return CreateReservationKey }

func (c CreateReservationCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateReservationCommand) ResultPrototype() any { return &dto.Reservation{} }

type CreateReservationHandler struct {
	Pricing     policies.PricingPort
	Clock       policies.Clock
	Encoder     outbox.EventEncoder
	AutoConfirm bool
	Logger      *slog.Logger
}

// Handle validates the stay, then re-runs the overlap check while holding the
// property lock so that two concurrent bookers cannot both succeed.
func (h *CreateReservationHandler) Handle(ctx context.Context, cmd CreateReservationCommand) (*dto.Reservation, error) {
	if h.Pricing == nil {
		return nil, policies.ErrPricingUnavailable
	}
	unit, err := uow.Current(ctx)
	if err != nil {
		return nil, err
	}
	now := policies.Now(h.Clock)
	vr, err := reservation.ValidateRange(daterange.Of(cmd.CheckIn, cmd.CheckOut), now)
	if err != nil {
		return nil, err
	}

	propertyID := property.ID(cmd.PropertyID)
	p, err := unit.Properties().ByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if !p.AcceptsGuests(cmd.Guests) {
		return nil, fmt.Errorf("%w: max %d", reservation.ErrTooManyGuests, p.MaxGuests)
	}

	if err := unit.LockProperty(ctx, propertyID); err != nil {
		return nil, err
	}
	existing, err := unit.Reservations().ListByProperty(ctx, propertyID, false)
	if err != nil {
		return nil, err
	}
	if clash := reservation.FirstConflict(vr.DateRange, existing); clash != nil {
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "reservation rejected", "property_id", propertyID, "range", vr.String(), "conflicts_with", clash.ID)
		}
		return nil, reservation.ErrConflict
	}

	price, err := h.Pricing.Quote(ctx, p, vr)
	if err != nil {
		return nil, err
	}
	r, err := reservation.New(reservation.CreateParams{
		ID:          reservation.ID(cmd.ReservationID),
		PropertyID:  propertyID,
		GuestID:     cmd.UserID,
		Range:       vr,
		Guests:      cmd.Guests,
		Price:       price,
		AutoConfirm: h.AutoConfirm,
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Reservations().Save(ctx, r); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, r.PullEvents()); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "reservation created", "reservation_id", r.ID, "property_id", propertyID, "nights", vr.Nights, "total", r.Price.Total.String())
	}
	out := dto.MapReservation(r)
	return &out, nil
}

var _ commands.Handler[CreateReservationCommand, *dto.Reservation] = (*CreateReservationHandler)(nil)
var _ middleware.IdempotentCommand = CreateReservationCommand{}
var _ middleware.ActorCommand = CreateReservationCommand{}
