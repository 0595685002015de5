package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
)

var ErrMissingField = errors.New("dto: required field missing")

// FlexString accepts a JSON string or number. Older clients send numeric ids
// and prices, newer ones send strings.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// ReservationRequest is the body of POST /reservations. The canonical names are
// property_id, check_in, check_out and guests; the Spanish and camelCase names are
// accepted for older clients.
type ReservationRequest struct {
	PropertyID FlexString `json:"property_id"`
	CheckIn    string     `json:"check_in"`
	CheckOut   string     `json:"check_out"`
	Guests     int        `json:"guests"`

	LegacyPropertyID FlexString `json:"id_alojamiento"`
	LegacyCheckIn    string     `json:"fecha_inicio"`
	LegacyCheckOut   string     `json:"fecha_fin"`
	LegacyGuests     int        `json:"huespedes"`
	CamelCheckIn     string     `json:"checkIn"`
	CamelCheckOut    string     `json:"checkOut"`
}

type ReservationInput struct {
	PropertyID string
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
}

// Normalize resolves aliases and parses the dates. A missing guest count means one guest.
func (r ReservationRequest) Normalize() (ReservationInput, error) {
	in := ReservationInput{
		PropertyID: firstNonEmpty(r.PropertyID.String(), r.LegacyPropertyID.String()),
		Guests:     r.Guests,
	}
	if in.PropertyID == "" {
		return ReservationInput{}, errors.Join(ErrMissingField, errors.New("property_id"))
	}
	if in.Guests == 0 {
		in.Guests = r.LegacyGuests
	}
	if in.Guests == 0 {
		in.Guests = 1
	}
	var err error
	if in.CheckIn, err = daterange.Parse(firstNonEmpty(r.CheckIn, r.LegacyCheckIn, r.CamelCheckIn)); err != nil {
		return ReservationInput{}, err
	}
	if in.CheckOut, err = daterange.Parse(firstNonEmpty(r.CheckOut, r.LegacyCheckOut, r.CamelCheckOut)); err != nil {
		return ReservationInput{}, err
	}
	return in, nil
}

// StatusRequest is the body of PUT/PATCH /reservations/:id.
type StatusRequest struct {
	Status       string `json:"status"`
	Reason       string `json:"reason"`
	LegacyStatus string `json:"estado"`
	LegacyState  string `json:"estado_reserva"`
}

func (r StatusRequest) Value() string {
	return firstNonEmpty(r.Status, r.LegacyStatus, r.LegacyState)
}

// PropertyRequest is the body of POST and PUT /properties. Empty fields are
// treated as "unchanged" on update.
type PropertyRequest struct {
	Name         string     `json:"name"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	Region       string     `json:"region"`
	Description  string     `json:"description"`
	NightlyPrice FlexString `json:"nightly_price"`
	Currency     string     `json:"currency"`
	MaxGuests    *int       `json:"max_guests"`
	ImageURL     string     `json:"image_url"`
	MapLink      string     `json:"map_link"`

	LegacyName         string     `json:"nombre"`
	LegacyAddress      string     `json:"direccion"`
	LegacyCity         string     `json:"ciudad"`
	LegacyRegion       string     `json:"estado_o_pais"`
	LegacyDescription  string     `json:"descripcion"`
	LegacyNightlyPrice FlexString `json:"precio_noche"`
	LegacyPrice        FlexString `json:"price"`
	LegacyImage        string     `json:"imagen_principal"`
	LegacyMapLink      string     `json:"link_map"`
}

type PropertyInput struct {
	Name         string
	Address      string
	City         string
	Region       string
	Description  string
	NightlyPrice string
	Currency     string
	MaxGuests    *int
	ImageURL     string
	MapLink      string
}

func (r PropertyRequest) Normalize() PropertyInput {
	return PropertyInput{
		Name:         firstNonEmpty(r.Name, r.LegacyName),
		Address:      firstNonEmpty(r.Address, r.LegacyAddress),
		City:         firstNonEmpty(r.City, r.LegacyCity),
		Region:       firstNonEmpty(r.Region, r.LegacyRegion),
		Description:  firstNonEmpty(r.Description, r.LegacyDescription),
		NightlyPrice: firstNonEmpty(r.NightlyPrice.String(), r.LegacyNightlyPrice.String(), r.LegacyPrice.String()),
		Currency:     strings.ToUpper(strings.TrimSpace(r.Currency)),
		MaxGuests:    r.MaxGuests,
		ImageURL:     firstNonEmpty(r.ImageURL, r.LegacyImage),
		MapLink:      firstNonEmpty(r.MapLink, r.LegacyMapLink),
	}
}
