package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
)

// Redis shares property snapshots between instances. Failures degrade to a
// cache miss and are only logged.
type Redis struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
	Logger *slog.Logger
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

type snapshot struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Region      string    `json:"region,omitempty"`
	Description string    `json:"description,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	MaxGuests   int       `json:"max_guests"`
	ImageURL    string    `json:"image_url,omitempty"`
	MapLink     string    `json:"map_link,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

func (r *Redis) Get(ctx context.Context, id property.ID) (*property.Property, bool) {
	raw, err := r.Client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn(ctx, "property cache get failed", id, err)
		}
		return nil, false
	}
	var s snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		r.warn(ctx, "property cache entry corrupt", id, err)
		r.Evict(ctx, id)
		return nil, false
	}
	return &property.Property{
		ID:           property.ID(s.ID),
		OwnerID:      property.OwnerID(s.OwnerID),
		Name:         s.Name,
		Address:      s.Address,
		City:         s.City,
		Region:       s.Region,
		Description:  s.Description,
		NightlyPrice: money.Money{Amount: s.PriceCents, Currency: s.Currency},
		MaxGuests:    s.MaxGuests,
		ImageURL:     s.ImageURL,
		MapLink:      s.MapLink,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		Version:      s.Version,
	}, true
}

func (r *Redis) Set(ctx context.Context, p *property.Property) {
	if p == nil {
		return
	}
	raw, err := json.Marshal(snapshot{
		ID:          string(p.ID),
		OwnerID:     string(p.OwnerID),
		Name:        p.Name,
		Address:     p.Address,
		City:        p.City,
		Region:      p.Region,
		Description: p.Description,
		PriceCents:  p.NightlyPrice.Amount,
		Currency:    p.NightlyPrice.Currency,
		MaxGuests:   p.MaxGuests,
		ImageURL:    p.ImageURL,
		MapLink:     p.MapLink,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	})
	if err != nil {
		r.warn(ctx, "property cache encode failed", p.ID, err)
		return
	}
	if err := r.Client.Set(ctx, r.key(p.ID), raw, r.TTL).Err(); err != nil {
		r.warn(ctx, "property cache set failed", p.ID, err)
	}
}

func (r *Redis) Evict(ctx context.Context, id property.ID) {
	if err := r.Client.Del(ctx, r.key(id)).Err(); err != nil {
		r.warn(ctx, "property cache evict failed", id, err)
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

func (r *Redis) key(id property.ID) string {
	prefix := r.Prefix
	if prefix == "" {
		prefix = "property:"
	}
	return prefix + string(id)
}

func (r *Redis) warn(ctx context.Context, msg string, id property.ID, err error) {
	if r.Logger != nil {
		r.Logger.WarnContext(ctx, msg, "property_id", id, "error", err)
	}
}

var _ policies.PropertyCache = (*Redis)(nil)
