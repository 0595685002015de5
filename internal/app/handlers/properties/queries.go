package properties

import (
	"context"
	"strings"

	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

const (
	GetKey    = "property.get"
	SearchKey = "property.search"
	QuoteKey  = "property.quote"
)

type GetQuery struct {
	PropertyID string `validate:"required"`
}

func (q GetQuery) Key() string { return GetKey }

// SearchQuery carries catalog filters. Prices are decimal strings in the
// service currency.
type SearchQuery struct {
	OwnerID   string
	City      string
	Text      string
	MinGuests int `validate:"min=0"`
	PriceMin  string
	PriceMax  string
	Sort      string
	Limit     int `validate:"min=0,max=100"`
	Offset    int `validate:"min=0"`
}

func (q SearchQuery) Key() string { return SearchKey }

type QuoteQuery struct {
	PropertyID string `validate:"required"`
	CheckIn    string `validate:"required"`
	CheckOut   string `validate:"required"`
	Guests     int    `validate:"min=0"`
}

func (q QuoteQuery) Key() string { return QuoteKey }

type QueryHandler struct {
	UoWFactory uow.Factory
	Cache      policies.PropertyCache
	Pricing    policies.PricingPort
	Clock      policies.Clock
	Currency   string
}

func (h *QueryHandler) Get() queries.Handler[GetQuery, dto.Property] {
	return queries.HandlerFunc[GetQuery, dto.Property](func(ctx context.Context, q GetQuery) (dto.Property, error) {
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Property{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		p, err := support.CachedProperty(execCtx, unit.Properties(), h.Cache, property.ID(q.PropertyID))
		if err != nil {
			return dto.Property{}, err
		}
		return dto.MapProperty(p), nil
	})
}

func (h *QueryHandler) Search() queries.Handler[SearchQuery, dto.PropertyCollection] {
	return queries.HandlerFunc[SearchQuery, dto.PropertyCollection](func(ctx context.Context, q SearchQuery) (dto.PropertyCollection, error) {
		params, err := h.searchParams(q)
		if err != nil {
			return dto.PropertyCollection{}, err
		}
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.PropertyCollection{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		res, err := unit.Properties().Search(execCtx, params)
		if err != nil {
			return dto.PropertyCollection{}, err
		}
		return dto.MapPropertyCollection(res, params), nil
	})
}

func (h *QueryHandler) searchParams(q SearchQuery) (property.SearchParams, error) {
	params := property.SearchParams{
		OwnerID:   property.OwnerID(q.OwnerID),
		City:      q.City,
		Query:     q.Text,
		MinGuests: q.MinGuests,
		Sort:      property.Sort(strings.ToLower(q.Sort)),
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
	if strings.TrimSpace(q.PriceMin) != "" {
		m, err := money.Parse(q.PriceMin, h.currency())
		if err != nil {
			return property.SearchParams{}, err
		}
		params.PriceMinCents = m.Amount
	}
	if strings.TrimSpace(q.PriceMax) != "" {
		m, err := money.Parse(q.PriceMax, h.currency())
		if err != nil {
			return property.SearchParams{}, err
		}
		params.PriceMaxCents = m.Amount
	}
	return params.Normalized(), nil
}

// Quote prices a stay without booking it. Available is advisory: the nights
// may be taken before the guest submits the reservation.
func (h *QueryHandler) Quote() queries.Handler[QuoteQuery, dto.Quote] {
	return queries.HandlerFunc[QuoteQuery, dto.Quote](func(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
		if h.Pricing == nil {
			return dto.Quote{}, policies.ErrPricingUnavailable
		}
		in, err := daterange.Parse(q.CheckIn)
		if err != nil {
			return dto.Quote{}, err
		}
		out, err := daterange.Parse(q.CheckOut)
		if err != nil {
			return dto.Quote{}, err
		}
		vr, err := reservation.ValidateRange(daterange.Of(in, out), policies.Now(h.Clock))
		if err != nil {
			return dto.Quote{}, err
		}
		unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
		if err != nil {
			return dto.Quote{}, err
		}
		if cleanup != nil {
			defer cleanup()
		}
		p, err := support.CachedProperty(execCtx, unit.Properties(), h.Cache, property.ID(q.PropertyID))
		if err != nil {
			return dto.Quote{}, err
		}
		price, err := h.Pricing.Quote(execCtx, p, vr)
		if err != nil {
			return dto.Quote{}, err
		}
		existing, err := unit.Reservations().ListByProperty(execCtx, p.ID, false)
		if err != nil {
			return dto.Quote{}, err
		}
		guestsOK := q.Guests <= 0 || p.AcceptsGuests(q.Guests)
		return dto.Quote{
			PropertyID: string(p.ID),
			CheckIn:    vr.CheckIn.Format(daterange.Layout),
			CheckOut:   vr.CheckOut.Format(daterange.Layout),
			Nights:     vr.Nights,
			Price:      dto.MapPrice(price),
			Available:  guestsOK && !reservation.HasConflict(vr.DateRange, existing),
		}, nil
	})
}

func (h *QueryHandler) currency() string {
	if h.Currency == "" {
		return DefaultCurrency
	}
	return h.Currency
}
