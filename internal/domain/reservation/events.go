package reservation

import (
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

const (
	EventCreated   = "reservation.created"
	EventConfirmed = "reservation.confirmed"
	EventCancelled = "reservation.cancelled"
)

type Created struct {
	ReservationID ID          `json:"reservation_id"`
	PropertyID    property.ID `json:"property_id"`
	GuestID       string      `json:"guest_id"`
	CheckIn       time.Time   `json:"check_in"`
	CheckOut      time.Time   `json:"check_out"`
	Guests        int         `json:"guests"`
	Total         money.Money `json:"total"`
	At            time.Time   `json:"at"`
}

func (e Created) EventName() string     { return EventCreated }
func (e Created) AggregateID() string   { return string(e.ReservationID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Confirmed struct {
	ReservationID ID          `json:"reservation_id"`
	PropertyID    property.ID `json:"property_id"`
	At            time.Time   `json:"at"`
}

func (e Confirmed) EventName() string     { return EventConfirmed }
func (e Confirmed) AggregateID() string   { return string(e.ReservationID) }
func (e Confirmed) OccurredAt() time.Time { return e.At }

type Cancelled struct {
	ReservationID ID          `json:"reservation_id"`
	PropertyID    property.ID `json:"property_id"`
	Reason        string      `json:"reason,omitempty"`
	At            time.Time   `json:"at"`
}

func (e Cancelled) EventName() string     { return EventCancelled }
func (e Cancelled) AggregateID() string   { return string(e.ReservationID) }
func (e Cancelled) OccurredAt() time.Time { return e.At }
