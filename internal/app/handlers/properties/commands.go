package properties

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

const (
	CreateKey = "property.create"
	UpdateKey = "property.update"
	DeleteKey = "property.delete"

	DefaultCurrency = "EUR"
)

type CreateCommand struct {
	support.Actor
	PropertyID      string `validate:"required"`
	Input           dto.PropertyInput
	IdempotencyKeyV string
}

func (c CreateCommand) Key() string            { return CreateKey }
func (c CreateCommand) IdempotencyKey() string { return c.IdempotencyKeyV }
func (c CreateCommand) ResultPrototype() any   { return &dto.Property{} }

// UpdateCommand merges non-empty input fields over the stored property.
type UpdateCommand struct {
	support.Actor
	PropertyID string `validate:"required"`
	Input      dto.PropertyInput
}

func (c UpdateCommand) Key() string { return UpdateKey }

type DeleteCommand struct {
	support.Actor
	PropertyID string `validate:"required"`
}

func (c DeleteCommand) Key() string { return DeleteKey }

type CommandHandler struct {
	Cache    policies.PropertyCache
	Clock    policies.Clock
	Encoder  outbox.EventEncoder
	Currency string
	Logger   *slog.Logger
}

var (
	ErrPriceRequired        = errors.New("properties: nightly price is required")
	ErrCurrencyWithoutPrice = errors.New("properties: changing currency requires a nightly price")
)

func (h *CommandHandler) Create() commands.Handler[CreateCommand, *dto.Property] {
	return commands.HandlerFunc[CreateCommand, *dto.Property](func(ctx context.Context, cmd CreateCommand) (*dto.Property, error) {
		unit, err := uow.Current(ctx)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(cmd.Input.NightlyPrice) == "" {
			return nil, ErrPriceRequired
		}
		details, err := h.merge(property.Details{}, cmd.Input)
		if err != nil {
			return nil, err
		}
		now := policies.Now(h.Clock)
		p, err := property.New(property.CreateParams{
			ID:      property.ID(cmd.PropertyID),
			OwnerID: property.OwnerID(cmd.UserID),
			Details: details,
			Now:     now,
		})
		if err != nil {
			return nil, err
		}
		if err := unit.Properties().Save(ctx, p); err != nil {
			return nil, err
		}
		if err := h.promoteOwner(ctx, unit, cmd.Actor); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, p.PullEvents()); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "property created", "property_id", p.ID, "owner_id", p.OwnerID)
		}
		out := dto.MapProperty(p)
		return &out, nil
	})
}

func (h *CommandHandler) Update() commands.Handler[UpdateCommand, *dto.Property] {
	return commands.HandlerFunc[UpdateCommand, *dto.Property](func(ctx context.Context, cmd UpdateCommand) (*dto.Property, error) {
		unit, err := uow.Current(ctx)
		if err != nil {
			return nil, err
		}
		id := property.ID(cmd.PropertyID)
		p, err := unit.Properties().ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !cmd.IsAdmin() && !p.OwnedBy(property.OwnerID(cmd.UserID)) {
			return nil, property.ErrNotOwner
		}
		details, err := h.merge(detailsOf(p), cmd.Input)
		if err != nil {
			return nil, err
		}
		if err := p.Update(details, policies.Now(h.Clock)); err != nil {
			return nil, err
		}
		if err := unit.Properties().Save(ctx, p); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, p.PullEvents()); err != nil {
			return nil, err
		}
		h.evict(ctx, id)
		out := dto.MapProperty(p)
		return &out, nil
	})
}

// Delete refuses while reservations that have not ended still hold nights on the property.
func (h *CommandHandler) Delete() commands.Handler[DeleteCommand, *dto.Property] {
	return commands.HandlerFunc[DeleteCommand, *dto.Property](func(ctx context.Context, cmd DeleteCommand) (*dto.Property, error) {
		unit, err := uow.Current(ctx)
		if err != nil {
			return nil, err
		}
		id := property.ID(cmd.PropertyID)
		p, err := unit.Properties().ByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !cmd.IsAdmin() && !p.OwnedBy(property.OwnerID(cmd.UserID)) {
			return nil, property.ErrNotOwner
		}
		if err := unit.LockProperty(ctx, id); err != nil {
			return nil, err
		}
		existing, err := unit.Reservations().ListByProperty(ctx, id, false)
		if err != nil {
			return nil, err
		}
		today := daterange.Date(policies.Now(h.Clock))
		for _, r := range existing {
			if r.Active() && r.Range.CheckOut.After(today) {
				return nil, property.ErrHasReservations
			}
		}
		if err := unit.Properties().Delete(ctx, id); err != nil {
			return nil, err
		}
		p.MarkDeleted(policies.Now(h.Clock))
		if err := outbox.RecordDomainEvents(ctx, unit.Outbox(), h.Encoder, p.PullEvents()); err != nil {
			return nil, err
		}
		h.evict(ctx, id)
		if h.Logger != nil {
			h.Logger.InfoContext(ctx, "property deleted", "property_id", id, "actor", cmd.UserID)
		}
		out := dto.MapProperty(p)
		return &out, nil
	})
}

// promoteOwner upgrades a guest to the owner role once they list a property.
func (h *CommandHandler) promoteOwner(ctx context.Context, unit uow.UnitOfWork, actor support.Actor) error {
	if actor.Role != user.RoleGuest && actor.Role != "" {
		return nil
	}
	u, err := unit.Users().ByID(ctx, user.ID(actor.UserID))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	}
	if u.Role != user.RoleGuest {
		return nil
	}
	if err := u.Promote(user.RoleOwner, policies.Now(h.Clock)); err != nil {
		return err
	}
	return unit.Users().Save(ctx, u)
}

func (h *CommandHandler) merge(base property.Details, in dto.PropertyInput) (property.Details, error) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&base.Name, in.Name)
	set(&base.Address, in.Address)
	set(&base.City, in.City)
	set(&base.Region, in.Region)
	set(&base.Description, in.Description)
	set(&base.ImageURL, in.ImageURL)
	set(&base.MapLink, in.MapLink)
	if in.MaxGuests != nil {
		base.MaxGuests = *in.MaxGuests
	}
	if in.NightlyPrice == "" && in.Currency != "" && !strings.EqualFold(in.Currency, base.NightlyPrice.Currency) {
		return property.Details{}, ErrCurrencyWithoutPrice
	}
	currency := in.Currency
	if currency == "" {
		currency = base.NightlyPrice.Currency
	}
	if currency == "" {
		currency = h.currency()
	}
	if in.NightlyPrice != "" {
		price, err := money.Parse(in.NightlyPrice, currency)
		if err != nil {
			return property.Details{}, err
		}
		base.NightlyPrice = price
	}
	return base, nil
}

// evict drops the cached property once the unit commits, so readers cannot
// refill the cache with the row being replaced.
func (h *CommandHandler) evict(ctx context.Context, id property.ID) {
	if h.Cache == nil {
		return
	}
	uow.AfterCommit(ctx, func(ctx context.Context) {
		h.Cache.Evict(ctx, id)
	})
}

func (h *CommandHandler) currency() string {
	if h.Currency == "" {
		return DefaultCurrency
	}
	return h.Currency
}

func detailsOf(p *property.Property) property.Details {
	return property.Details{
		Name:         p.Name,
		Address:      p.Address,
		City:         p.City,
		Region:       p.Region,
		Description:  p.Description,
		NightlyPrice: p.NightlyPrice,
		MaxGuests:    p.MaxGuests,
		ImageURL:     p.ImageURL,
		MapLink:      p.MapLink,
	}
}

var _ middleware.IdempotentCommand = CreateCommand{}
var _ middleware.ActorCommand = UpdateCommand{}
var _ middleware.ActorCommand = DeleteCommand{}
