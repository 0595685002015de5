package property

import (
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

const (
	EventCreated = "property.created"
	EventUpdated = "property.updated"
	EventDeleted = "property.deleted"
)

type Created struct {
	PropertyID   ID          `json:"property_id"`
	OwnerID      OwnerID     `json:"owner_id"`
	NightlyPrice money.Money `json:"nightly_price"`
	At           time.Time   `json:"at"`
}

func (e Created) EventName() string     { return EventCreated }
func (e Created) AggregateID() string   { return string(e.PropertyID) }
func (e Created) OccurredAt() time.Time { return e.At }

type Updated struct {
	PropertyID    ID          `json:"property_id"`
	PreviousPrice money.Money `json:"previous_price"`
	NightlyPrice  money.Money `json:"nightly_price"`
	At            time.Time   `json:"at"`
}

func (e Updated) EventName() string     { return EventUpdated }
func (e Updated) AggregateID() string   { return string(e.PropertyID) }
func (e Updated) OccurredAt() time.Time { return e.At }

type Deleted struct {
	PropertyID ID        `json:"property_id"`
	At         time.Time `json:"at"`
}

func (e Deleted) EventName() string     { return EventDeleted }
func (e Deleted) AggregateID() string   { return string(e.PropertyID) }
func (e Deleted) OccurredAt() time.Time { return e.At }
