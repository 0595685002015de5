package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

type propertyFixture struct {
	ID           string `json:"id"`
	OwnerID      string `json:"owner_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	City         string `json:"city"`
	Region       string `json:"region"`
	Description  string `json:"description"`
	NightlyPrice string `json:"nightly_price"`
	Currency     string `json:"currency"`
	MaxGuests    int    `json:"max_guests"`
	ImageURL     string `json:"image_url"`
	MapLink      string `json:"map_link"`
}

// loadPropertyFixtures seeds the memory store with demo properties. A missing
// file is not an error; invalid entries are logged and skipped.
func loadPropertyFixtures(ctx context.Context, store *memory.Store, path, currency string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("property fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		logger.Warn("property fixtures file empty", "path", path)
		return nil
	}
	var fixtures []propertyFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}

	now := time.Now()
	imported := 0
	for _, fx := range fixtures {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := fx.toProperty(currency, now)
		if err != nil {
			logger.Error("fixture invalid", "property_id", fx.ID, "error", err)
			continue
		}
		p.PullEvents()
		if err := store.SeedProperty(p); err != nil {
			logger.Error("cannot store fixture property", "property_id", fx.ID, "error", err)
			continue
		}
		imported++
	}
	logger.Info("property fixtures imported", "count", imported, "path", path)
	return nil
}

func (fx propertyFixture) toProperty(currency string, now time.Time) (*property.Property, error) {
	if c := strings.TrimSpace(fx.Currency); c != "" {
		currency = strings.ToUpper(c)
	}
	price, err := money.Parse(fx.NightlyPrice, currency)
	if err != nil {
		return nil, err
	}
	return property.New(property.CreateParams{
		ID:      property.ID(fx.ID),
		OwnerID: property.OwnerID(fx.OwnerID),
		Details: property.Details{
			Name:         fx.Name,
			Address:      fx.Address,
			City:         fx.City,
			Region:       fx.Region,
			Description:  fx.Description,
			NightlyPrice: price,
			MaxGuests:    fx.MaxGuests,
			ImageURL:     fx.ImageURL,
			MapLink:      fx.MapLink,
		},
		Now: now,
	})
}

func defaultFixturesPath() string {
	candidates := []string{
		filepath.Join("data", "properties.json"),
		filepath.Join("..", "data", "properties.json"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return candidates[0]
}
