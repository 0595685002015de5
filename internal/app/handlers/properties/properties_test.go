package properties_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/properties"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

var owner = support.Actor{UserID: "owner-1", Role: user.RoleOwner}

// committedCache records the stored name of a property at the moment it is evicted.
type committedCache struct {
	policies.NoCache
	factory uow.Factory

	mu      sync.Mutex
	evicted []string
}

func (c *committedCache) Evict(ctx context.Context, id property.ID) {
	unit, err := c.factory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return
	}
	defer func() { _ = unit.Rollback(ctx) }()
	name := "<deleted>"
	if p, err := unit.Properties().ByID(ctx, id); err == nil {
		name = p.Name
	}
	c.mu.Lock()
	c.evicted = append(c.evicted, name)
	c.mu.Unlock()
}

func (c *committedCache) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.evicted...)
}

func newBus(t *testing.T) (commands.Bus, *committedCache) {
	t.Helper()
	store := memory.NewStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	p, err := property.New(property.CreateParams{
		ID:      "prop-1",
		OwnerID: property.OwnerID(owner.UserID),
		Details: property.Details{
			Name: "Casa", Address: "Calle 1", City: "Sevilla",
			NightlyPrice: money.Must(8000, "EUR"), MaxGuests: 2,
		},
		Now: now,
	})
	require.NoError(t, err)
	p.PullEvents()
	require.NoError(t, store.SeedProperty(p))

	factory := memory.Factory{Store: store}
	cache := &committedCache{factory: factory}
	cmdReg := commands.NewRegistry()
	properties.Register(cmdReg, queries.NewRegistry(), properties.Deps{
		UoWFactory: factory,
		Cache:      cache,
		Pricing:    policies.FlatTax{Rate: money.MustRate(0.10)},
		Clock:      policies.FixedClock{At: now},
		Encoder:    appoutbox.JSONEventEncoder{},
	})
	bus := middleware.ChainCommands(cmdReg,
		middleware.RequireActor(),
		middleware.Transaction(factory, nil),
	)
	return bus, cache
}

func TestUpdateEvictsCacheAfterCommit(t *testing.T) {
	bus, cache := newBus(t)
	ctx := context.Background()

	out, err := commands.Dispatch[properties.UpdateCommand, *dto.Property](ctx, bus, properties.UpdateCommand{
		Actor: owner, PropertyID: "prop-1", Input: dto.PropertyInput{Name: "Casa Nueva"},
	})
	require.NoError(t, err)
	require.Equal(t, "Casa Nueva", out.Name)
	require.Equal(t, []string{"Casa Nueva"}, cache.seen())

	_, err = commands.Dispatch[properties.DeleteCommand, *dto.Property](ctx, bus, properties.DeleteCommand{
		Actor: owner, PropertyID: "prop-1",
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Casa Nueva", "<deleted>"}, cache.seen())
}

func TestFailedUpdateDoesNotEvict(t *testing.T) {
	bus, cache := newBus(t)
	stranger := support.Actor{UserID: "someone-else", Role: user.RoleOwner}

	_, err := commands.Dispatch[properties.UpdateCommand, *dto.Property](context.Background(), bus, properties.UpdateCommand{
		Actor: stranger, PropertyID: "prop-1", Input: dto.PropertyInput{Name: "Mine now"},
	})
	require.ErrorIs(t, err, property.ErrNotOwner)
	require.Empty(t, cache.seen())
}

func TestUpdateRejectsCurrencyWithoutPrice(t *testing.T) {
	bus, cache := newBus(t)
	ctx := context.Background()
	update := func(in dto.PropertyInput) (*dto.Property, error) {
		return commands.Dispatch[properties.UpdateCommand, *dto.Property](ctx, bus, properties.UpdateCommand{
			Actor: owner, PropertyID: "prop-1", Input: in,
		})
	}

	_, err := update(dto.PropertyInput{Currency: "USD"})
	require.ErrorIs(t, err, properties.ErrCurrencyWithoutPrice)
	require.Empty(t, cache.seen())

	// restating the current currency is harmless
	_, err = update(dto.PropertyInput{Currency: "EUR", Name: "Casa"})
	require.NoError(t, err)

	out, err := update(dto.PropertyInput{Currency: "USD", NightlyPrice: "95.50"})
	require.NoError(t, err)
	require.Equal(t, "95.50", out.NightlyPrice.Amount)
	require.Equal(t, "USD", out.NightlyPrice.Currency)
}
