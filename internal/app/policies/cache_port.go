package policies

import (
	"context"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
)

// PropertyCache is a read-through cache owned by whoever builds the handlers.
// Entries expire after a TTL and are evicted whenever a property changes.
type PropertyCache interface {
	Get(ctx context.Context, id property.ID) (*property.Property, bool)
	Set(ctx context.Context, p *property.Property)
	Evict(ctx context.Context, id property.ID)
}

// NoCache disables caching.
type NoCache struct{}

func (NoCache) Get(context.Context, property.ID) (*property.Property, bool) { return nil, false }
func (NoCache) Set(context.Context, *property.Property)                     {}
func (NoCache) Evict(context.Context, property.ID)                          {}
