package reservation

import (
	"errors"
	"fmt"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/events"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

var (
	ErrInvalidOrder      = errors.New("reservation: check-out must be after check-in")
	ErrInPast            = errors.New("reservation: check-in date is in the past")
	ErrInvalidTransition = errors.New("reservation: invalid status transition")
)

// IsDateError reports whether err is a user-correctable date validation failure.
func IsDateError(err error) bool {
	return errors.Is(err, ErrInvalidOrder) || errors.Is(err, ErrInPast)
}

// ValidRange is a date range that passed ValidateRange; Nights is always >= 1.
type ValidRange struct {
	daterange.DateRange
	Nights int
}

// ValidateRange checks ordering first, then that check-in is not before today.
func ValidateRange(dr daterange.DateRange, today time.Time) (ValidRange, error) {
	dr = daterange.Of(dr.CheckIn, dr.CheckOut)
	if !dr.CheckOut.After(dr.CheckIn) {
		return ValidRange{}, ErrInvalidOrder
	}
	if dr.CheckIn.Before(daterange.Date(today)) {
		return ValidRange{}, ErrInPast
	}
	return ValidRange{DateRange: dr, Nights: dr.Nights()}, nil
}

// PriceBreakdown is the quoted price of a stay. Stored on a reservation it is a snapshot.
type PriceBreakdown struct {
	NightlyPrice money.Money
	Nights       int
	Subtotal     money.Money
	TaxRate      money.Rate
	Taxes        money.Money
	Total        money.Money
}

// ComputePrice multiplies the nightly price by the nights and adds tax. The subtotal is
// exact in minor units; only the tax is rounded (half-up, to the cent). Amounts that do
// not fit in int64 minor units return money.ErrOverflow.
func ComputePrice(p *property.Property, vr ValidRange, taxRate money.Rate) (PriceBreakdown, error) {
	nightly := p.NightlyPrice
	subtotal, err := nightly.Multiply(int64(vr.Nights))
	if err != nil {
		return PriceBreakdown{}, err
	}
	taxes, err := subtotal.ApplyRate(taxRate)
	if err != nil {
		return PriceBreakdown{}, err
	}
	total, err := subtotal.Add(taxes)
	if err != nil {
		return PriceBreakdown{}, err
	}
	return PriceBreakdown{
		NightlyPrice: nightly,
		Nights:       vr.Nights,
		Subtotal:     subtotal,
		TaxRate:      taxRate,
		Taxes:        taxes,
		Total:        total,
	}, nil
}

// HasConflict reports whether candidate shares at least one night with any
// non-cancelled reservation. Advisory only: writers must repeat it under the
// per-property lock of their unit of work.
func HasConflict(candidate daterange.DateRange, existing []*Reservation) bool {
	return FirstConflict(candidate, existing) != nil
}

func FirstConflict(candidate daterange.DateRange, existing []*Reservation) *Reservation {
	for _, r := range existing {
		if r == nil || r.Status == StatusCancelled {
			continue
		}
		if candidate.CheckIn.Before(r.Range.CheckOut) && candidate.CheckOut.After(r.Range.CheckIn) {
			return r
		}
	}
	return nil
}

// TransitionStatus returns a copy of r moved to next. r itself is left untouched.
func TransitionStatus(r Reservation, next Status, now time.Time) (Reservation, error) {
	if !r.Status.CanTransitionTo(next) {
		return Reservation{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, next)
	}
	updated := r
	updated.Recorder = events.Recorder{}
	updated.Status = next
	updated.UpdatedAt = now.UTC()
	return updated, nil
}
