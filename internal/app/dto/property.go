package dto

import (
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
)

type Property struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Region       string    `json:"region"`
	Description  string    `json:"description"`
	NightlyPrice MoneyDTO  `json:"nightly_price"`
	MaxGuests    int       `json:"max_guests"`
	ImageURL     string    `json:"image_url,omitempty"`
	MapLink      string    `json:"map_link,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PropertyCollection struct {
	Items  []Property `json:"items"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

func MapProperty(p *property.Property) Property {
	return Property{
		ID:           string(p.ID),
		OwnerID:      string(p.OwnerID),
		Name:         p.Name,
		Address:      p.Address,
		City:         p.City,
		Region:       p.Region,
		Description:  p.Description,
		NightlyPrice: MapMoney(p.NightlyPrice),
		MaxGuests:    p.MaxGuests,
		ImageURL:     p.ImageURL,
		MapLink:      p.MapLink,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func MapPropertyCollection(res property.SearchResult, params property.SearchParams) PropertyCollection {
	items := make([]Property, 0, len(res.Items))
	for _, p := range res.Items {
		items = append(items, MapProperty(p))
	}
	return PropertyCollection{Items: items, Total: res.Total, Limit: params.Limit, Offset: params.Offset}
}
