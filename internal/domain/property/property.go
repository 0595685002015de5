package property

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/events"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

var (
	ErrIDRequired       = errors.New("property: id is required")
	ErrOwnerRequired    = errors.New("property: owner is required")
	ErrNameRequired     = errors.New("property: name is required")
	ErrAddressRequired  = errors.New("property: address and city are required")
	ErrNegativePrice    = errors.New("property: nightly price must be non-negative")
	ErrInvalidMaxGuests = errors.New("property: max guests must be non-negative")
	ErrNotFound         = errors.New("property: not found")
	ErrNotOwner         = errors.New("property: caller is not the owner")
	ErrHasReservations  = errors.New("property: active reservations exist")
)

type ID string
type OwnerID string

type Property struct {
	ID           ID
	OwnerID      OwnerID
	Name         string
	Address      string
	City         string
	Region       string
	Description  string
	NightlyPrice money.Money
	MaxGuests    int
	ImageURL     string
	MapLink      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*Property, error)
	Save(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id ID) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
}

type Details struct {
	Name         string
	Address      string
	City         string
	Region       string
	Description  string
	NightlyPrice money.Money
	MaxGuests    int
	ImageURL     string
	MapLink      string
}

type CreateParams struct {
	ID      ID
	OwnerID OwnerID
	Details
	Now time.Time
}

func New(params CreateParams) (*Property, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.OwnerID)) == "" {
		return nil, ErrOwnerRequired
	}
	details, err := params.Details.normalized()
	if err != nil {
		return nil, err
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	p := &Property{
		ID:        params.ID,
		OwnerID:   params.OwnerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.apply(details)
	p.Record(Created{PropertyID: p.ID, OwnerID: p.OwnerID, NightlyPrice: p.NightlyPrice, At: now})
	return p, nil
}

// Update replaces the mutable details. Existing reservations keep their price snapshot.
func (p *Property) Update(details Details, now time.Time) error {
	normalized, err := details.normalized()
	if err != nil {
		return err
	}
	previous := p.NightlyPrice
	p.apply(normalized)
	p.UpdatedAt = now.UTC()
	p.Record(Updated{PropertyID: p.ID, PreviousPrice: previous, NightlyPrice: p.NightlyPrice, At: p.UpdatedAt})
	return nil
}

func (p *Property) MarkDeleted(now time.Time) {
	p.Record(Deleted{PropertyID: p.ID, At: now.UTC()})
}

func (p *Property) OwnedBy(owner OwnerID) bool {
	return owner != "" && p.OwnerID == owner
}

// AcceptsGuests reports whether the property can host the given party size.
func (p *Property) AcceptsGuests(guests int) bool {
	return p.MaxGuests == 0 || guests <= p.MaxGuests
}

func (p *Property) apply(d Details) {
	p.Name = d.Name
	p.Address = d.Address
	p.City = d.City
	p.Region = d.Region
	p.Description = d.Description
	p.NightlyPrice = d.NightlyPrice
	p.MaxGuests = d.MaxGuests
	p.ImageURL = d.ImageURL
	p.MapLink = d.MapLink
}

func (d Details) normalized() (Details, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.Region = strings.TrimSpace(d.Region)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	d.MapLink = strings.TrimSpace(d.MapLink)
	if d.Name == "" {
		return Details{}, ErrNameRequired
	}
	if d.Address == "" || d.City == "" {
		return Details{}, ErrAddressRequired
	}
	if d.NightlyPrice.IsNegative() {
		return Details{}, ErrNegativePrice
	}
	if d.NightlyPrice.Currency == "" {
		return Details{}, money.ErrInvalidCurrency
	}
	if d.MaxGuests < 0 {
		return Details{}, ErrInvalidMaxGuests
	}
	return d, nil
}

// Clone returns a copy without pending events, safe to hand out from caches.
func (p *Property) Clone() *Property {
	if p == nil {
		return nil
	}
	return &Property{
		ID:           p.ID,
		OwnerID:      p.OwnerID,
		Name:         p.Name,
		Address:      p.Address,
		City:         p.City,
		Region:       p.Region,
		Description:  p.Description,
		NightlyPrice: p.NightlyPrice,
		MaxGuests:    p.MaxGuests,
		ImageURL:     p.ImageURL,
		MapLink:      p.MapLink,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		Version:      p.Version,
	}
}
