package dto

import (
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
)

type Reservation struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"property_id"`
	GuestID    string    `json:"guest_id"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Nights     int       `json:"nights"`
	Guests     int       `json:"guests"`
	Status     string    `json:"status"`
	Price      PriceDTO  `json:"price"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ReservationCollection struct {
	Items []Reservation `json:"items"`
}

// Quote is what the booking page shows before the guest confirms.
type Quote struct {
	PropertyID string   `json:"property_id"`
	CheckIn    string   `json:"check_in"`
	CheckOut   string   `json:"check_out"`
	Nights     int      `json:"nights"`
	Price      PriceDTO `json:"price"`
	Available  bool     `json:"available"`
}

func MapReservation(r *reservation.Reservation) Reservation {
	return Reservation{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		CheckIn:    r.Range.CheckIn.Format(daterange.Layout),
		CheckOut:   r.Range.CheckOut.Format(daterange.Layout),
		Nights:     r.Range.Nights(),
		Guests:     r.Guests,
		Status:     string(r.Status),
		Price:      MapPrice(r.Price),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func MapReservations(items []*reservation.Reservation) ReservationCollection {
	out := make([]Reservation, 0, len(items))
	for _, r := range items {
		out = append(out, MapReservation(r))
	}
	return ReservationCollection{Items: out}
}
