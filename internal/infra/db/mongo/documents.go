package mongo

import (
	"strings"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

type propertyDocument struct {
	ID          string `bson:"_id"`
	OwnerID     string `bson:"owner_id"`
	Name        string `bson:"name"`
	Address     string `bson:"address"`
	City        string `bson:"city"`
	CityKey     string `bson:"city_key"`
	Region      string `bson:"region"`
	Description string `bson:"description"`
	PriceCents  int64  `bson:"price_cents"`
	Currency    string `bson:"currency"`
	MaxGuests   int    `bson:"max_guests"`
	ImageURL    string `bson:"image_url"`
	MapLink     string `bson:"map_link"`
	CreatedAt   int64  `bson:"created_at"`
	UpdatedAt   int64  `bson:"updated_at"`
	Version     int64  `bson:"version"`
}

func newPropertyDocument(p *property.Property) propertyDocument {
	return propertyDocument{
		ID:          string(p.ID),
		OwnerID:     string(p.OwnerID),
		Name:        p.Name,
		Address:     p.Address,
		City:        p.City,
		CityKey:     strings.ToLower(p.City),
		Region:      p.Region,
		Description: p.Description,
		PriceCents:  p.NightlyPrice.Amount,
		Currency:    p.NightlyPrice.Currency,
		MaxGuests:   p.MaxGuests,
		ImageURL:    p.ImageURL,
		MapLink:     p.MapLink,
		CreatedAt:   p.CreatedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
		Version:     p.Version,
	}
}

func (d propertyDocument) toAggregate() *property.Property {
	return &property.Property{
		ID:           property.ID(d.ID),
		OwnerID:      property.OwnerID(d.OwnerID),
		Name:         d.Name,
		Address:      d.Address,
		City:         d.City,
		Region:       d.Region,
		Description:  d.Description,
		NightlyPrice: money.Money{Amount: d.PriceCents, Currency: d.Currency},
		MaxGuests:    d.MaxGuests,
		ImageURL:     d.ImageURL,
		MapLink:      d.MapLink,
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
		Version:      d.Version,
	}
}

type priceDocument struct {
	Currency     string `bson:"currency"`
	NightlyCents int64  `bson:"nightly_cents"`
	Nights       int    `bson:"nights"`
	Subtotal     int64  `bson:"subtotal_cents"`
	TaxPPM       int64  `bson:"tax_ppm"`
	Taxes        int64  `bson:"taxes_cents"`
	Total        int64  `bson:"total_cents"`
}

type reservationDocument struct {
	ID         string        `bson:"_id"`
	PropertyID string        `bson:"property_id"`
	GuestID    string        `bson:"guest_id"`
	CheckIn    int64         `bson:"check_in"`
	CheckOut   int64         `bson:"check_out"`
	Guests     int           `bson:"guests"`
	Status     string        `bson:"status"`
	Price      priceDocument `bson:"price"`
	CreatedAt  int64         `bson:"created_at"`
	UpdatedAt  int64         `bson:"updated_at"`
	Version    int64         `bson:"version"`
}

func newReservationDocument(r *reservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:         string(r.ID),
		PropertyID: string(r.PropertyID),
		GuestID:    r.GuestID,
		CheckIn:    r.Range.CheckIn.UnixMilli(),
		CheckOut:   r.Range.CheckOut.UnixMilli(),
		Guests:     r.Guests,
		Status:     string(r.Status),
		Price: priceDocument{
			Currency:     r.Price.Total.Currency,
			NightlyCents: r.Price.NightlyPrice.Amount,
			Nights:       r.Price.Nights,
			Subtotal:     r.Price.Subtotal.Amount,
			TaxPPM:       r.Price.TaxRate.PPM,
			Taxes:        r.Price.Taxes.Amount,
			Total:        r.Price.Total.Amount,
		},
		CreatedAt: r.CreatedAt.UnixMilli(),
		UpdatedAt: r.UpdatedAt.UnixMilli(),
		Version:   r.Version,
	}
}

func (d reservationDocument) toAggregate() *reservation.Reservation {
	cur := d.Price.Currency
	return &reservation.Reservation{
		ID:         reservation.ID(d.ID),
		PropertyID: property.ID(d.PropertyID),
		GuestID:    d.GuestID,
		Range:      daterange.Of(timestampToTime(d.CheckIn), timestampToTime(d.CheckOut)),
		Guests:     d.Guests,
		Status:     reservation.Status(d.Status),
		Price: reservation.PriceBreakdown{
			NightlyPrice: money.Money{Amount: d.Price.NightlyCents, Currency: cur},
			Nights:       d.Price.Nights,
			Subtotal:     money.Money{Amount: d.Price.Subtotal, Currency: cur},
			TaxRate:      money.Rate{PPM: d.Price.TaxPPM},
			Taxes:        money.Money{Amount: d.Price.Taxes, Currency: cur},
			Total:        money.Money{Amount: d.Price.Total, Currency: cur},
		},
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}
}

type userDocument struct {
	ID           string `bson:"_id"`
	Email        string `bson:"email"`
	FirstName    string `bson:"first_name"`
	LastName     string `bson:"last_name"`
	PasswordHash string `bson:"password_hash"`
	Role         string `bson:"role"`
	CreatedAt    int64  `bson:"created_at"`
	UpdatedAt    int64  `bson:"updated_at"`
}

func newUserDocument(u *user.User) userDocument {
	return userDocument{
		ID:           string(u.ID),
		Email:        user.NormalizeEmail(u.Email),
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UnixMilli(),
		UpdatedAt:    u.UpdatedAt.UnixMilli(),
	}
}

func (d userDocument) toAggregate() *user.User {
	return &user.User{
		ID:           user.ID(d.ID),
		Email:        d.Email,
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		PasswordHash: d.PasswordHash,
		Role:         user.Role(d.Role),
		CreatedAt:    timestampToTime(d.CreatedAt),
		UpdatedAt:    timestampToTime(d.UpdatedAt),
	}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
