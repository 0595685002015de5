package reservations

import (
	"context"
	"sort"

	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
)

const (
	ListByPropertyKey = "reservation.list_by_property"
	ListMineKey       = "reservation.list_mine"
	GetKey            = "reservation.get"
)

// ListByPropertyQuery returns the nights already taken on a property. Guest
// identity and price are only shown to the owner and admins.
type ListByPropertyQuery struct {
	support.Actor
	PropertyID       string `validate:"required"`
	IncludeCancelled bool
}

func (q ListByPropertyQuery) Key() string { return ListByPropertyKey }

type ListMineQuery struct {
	support.Actor
}

func (q ListMineQuery) Key() string { return ListMineKey }

type GetQuery struct {
	support.Actor
	ReservationID string `validate:"required"`
}

func (q GetQuery) Key() string { return GetKey }

type QueryHandler struct {
	UoWFactory uow.Factory
	Cache      policies.PropertyCache
}

func (h *QueryHandler) ListByProperty() queries.Handler[ListByPropertyQuery, dto.ReservationCollection] {
	return queries.HandlerFunc[ListByPropertyQuery, dto.ReservationCollection](func(ctx context.Context, q ListByPropertyQuery) (dto.ReservationCollection, error) {
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		p, err := support.CachedProperty(execCtx, unit.Properties(), h.Cache, property.ID(q.PropertyID))
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		privileged := q.IsAdmin() || p.OwnedBy(property.OwnerID(q.UserID))
		items, err := unit.Reservations().ListByProperty(execCtx, p.ID, q.IncludeCancelled && privileged)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		sortByCheckIn(items)
		out := dto.MapReservations(items)
		if !privileged {
			for i := range out.Items {
				if out.Items[i].GuestID != q.UserID {
					out.Items[i].GuestID = ""
					out.Items[i].Price = dto.PriceDTO{}
				}
			}
		}
		return out, nil
	})
}

func (h *QueryHandler) ListMine() queries.Handler[ListMineQuery, dto.ReservationCollection] {
	return queries.HandlerFunc[ListMineQuery, dto.ReservationCollection](func(ctx context.Context, q ListMineQuery) (dto.ReservationCollection, error) {
		if q.Anonymous() {
			return dto.ReservationCollection{}, middleware.ErrUnauthenticated
		}
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		items, err := unit.Reservations().ListByGuest(execCtx, q.UserID)
		if err != nil {
			return dto.ReservationCollection{}, err
		}
		sortByCheckIn(items)
		return dto.MapReservations(items), nil
	})
}

func (h *QueryHandler) Get() queries.Handler[GetQuery, dto.Reservation] {
	return queries.HandlerFunc[GetQuery, dto.Reservation](func(ctx context.Context, q GetQuery) (dto.Reservation, error) {
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Reservation{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		r, err := unit.Reservations().ByID(execCtx, reservation.ID(q.ReservationID))
		if err != nil {
			return dto.Reservation{}, err
		}
		if q.IsAdmin() || r.GuestID == q.UserID {
			return dto.MapReservation(r), nil
		}
		p, err := support.CachedProperty(execCtx, unit.Properties(), h.Cache, r.PropertyID)
		if err == nil && p.OwnedBy(property.OwnerID(q.UserID)) {
			return dto.MapReservation(r), nil
		}
		// do not reveal reservations of other guests
		return dto.Reservation{}, reservation.ErrNotFound
	})
}

func sortByCheckIn(items []*reservation.Reservation) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Range.CheckIn.Before(items[j].Range.CheckIn)
	})
}
