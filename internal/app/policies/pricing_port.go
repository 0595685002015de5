package policies

import (
	"context"
	"errors"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

// PricingPort quotes a validated stay.
type PricingPort interface {
	Quote(ctx context.Context, p *property.Property, vr reservation.ValidRange) (reservation.PriceBreakdown, error)
}

// FlatTax applies one tax rate to every stay.
type FlatTax struct {
	Rate money.Rate
}

func (t FlatTax) Quote(_ context.Context, p *property.Property, vr reservation.ValidRange) (reservation.PriceBreakdown, error) {
	if p == nil {
		return reservation.PriceBreakdown{}, property.ErrNotFound
	}
	return reservation.ComputePrice(p, vr, t.Rate)
}

var ErrPricingUnavailable = errors.New("policies: pricing not configured")
