package reservation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/events"
)

var (
	ErrIDRequired        = errors.New("reservation: id is required")
	ErrPropertyRequired  = errors.New("reservation: property is required")
	ErrGuestRequired     = errors.New("reservation: guest is required")
	ErrInvalidGuests     = errors.New("reservation: guests count must be positive")
	ErrTooManyGuests     = errors.New("reservation: guests exceed property capacity")
	ErrUnknownStatus     = errors.New("reservation: unknown status")
	ErrNotFound          = errors.New("reservation: not found")
	ErrForbidden         = errors.New("reservation: not allowed")
	ErrConflict          = errors.New("reservation: dates unavailable")
	ErrConcurrentBooking = errors.New("reservation: concurrent booking on property")
)

type ID string

type Reservation struct {
	ID         ID
	PropertyID property.ID
	GuestID    string
	Range      daterange.DateRange
	Guests     int
	Status     Status
	Price      PriceBreakdown
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Reservation, error)
	Save(ctx context.Context, r *Reservation) error
	ListByProperty(ctx context.Context, propertyID property.ID, includeCancelled bool) ([]*Reservation, error)
	ListByGuest(ctx context.Context, guestID string) ([]*Reservation, error)
}

type CreateParams struct {
	ID          ID
	PropertyID  property.ID
	GuestID     string
	Range       ValidRange
	Guests      int
	Price       PriceBreakdown
	AutoConfirm bool
	CreatedAt   time.Time
}

func New(params CreateParams) (*Reservation, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.PropertyID)) == "" {
		return nil, ErrPropertyRequired
	}
	if strings.TrimSpace(params.GuestID) == "" {
		return nil, ErrGuestRequired
	}
	if params.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if params.Range.Nights < 1 {
		return nil, ErrInvalidOrder
	}
	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	r := &Reservation{
		ID:         params.ID,
		PropertyID: params.PropertyID,
		GuestID:    params.GuestID,
		Range:      params.Range.DateRange,
		Guests:     params.Guests,
		Status:     StatusPending,
		Price:      params.Price,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(Created{
		ReservationID: r.ID,
		PropertyID:    r.PropertyID,
		GuestID:       r.GuestID,
		CheckIn:       r.Range.CheckIn,
		CheckOut:      r.Range.CheckOut,
		Guests:        r.Guests,
		Total:         r.Price.Total,
		At:            now,
	})
	if params.AutoConfirm {
		if err := r.Confirm(now); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Active reports whether the reservation still blocks its nights.
func (r *Reservation) Active() bool {
	return r.Status != StatusCancelled
}

// ChangeStatus applies TransitionStatus in place and records the matching event.
func (r *Reservation) ChangeStatus(next Status, reason string, now time.Time) error {
	updated, err := TransitionStatus(*r, next, now)
	if err != nil {
		return err
	}
	r.Status = updated.Status
	r.UpdatedAt = updated.UpdatedAt
	switch next {
	case StatusConfirmed:
		r.Record(Confirmed{ReservationID: r.ID, PropertyID: r.PropertyID, At: r.UpdatedAt})
	case StatusCancelled:
		r.Record(Cancelled{ReservationID: r.ID, PropertyID: r.PropertyID, Reason: reason, At: r.UpdatedAt})
	}
	return nil
}

func (r *Reservation) Confirm(now time.Time) error {
	return r.ChangeStatus(StatusConfirmed, "", now)
}

func (r *Reservation) Cancel(reason string, now time.Time) error {
	return r.ChangeStatus(StatusCancelled, reason, now)
}

// Clone returns a copy without pending events.
func (r *Reservation) Clone() *Reservation {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Recorder = events.Recorder{}
	return &cp
}
