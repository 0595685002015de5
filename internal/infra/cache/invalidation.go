package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
)

// Invalidator evicts cached properties when property events arrive, either
// from the in-process outbox or from the broker.
type Invalidator struct {
	Cache  policies.PropertyCache
	Logger *slog.Logger
}

// Apply handles one event. Events outside the property stream are ignored.
func (i Invalidator) Apply(ctx context.Context, name string, data []byte) error {
	if i.Cache == nil || !strings.HasPrefix(name, "property.") {
		return nil
	}
	var body struct {
		PropertyID string `json:"property_id"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	if body.PropertyID == "" {
		return nil
	}
	i.Cache.Evict(ctx, property.ID(body.PropertyID))
	if i.Logger != nil {
		i.Logger.DebugContext(ctx, "property cache evicted", "property_id", body.PropertyID, "event", name)
	}
	return nil
}

// OnRecord adapts Apply to the in-memory outbox listener signature.
func (i Invalidator) OnRecord(ctx context.Context, rec appoutbox.EventRecord) {
	if err := i.Apply(ctx, rec.Name, rec.Payload); err != nil && i.Logger != nil {
		i.Logger.WarnContext(ctx, "cache invalidation failed", "event", rec.Name, "error", err)
	}
}
