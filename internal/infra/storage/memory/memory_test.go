package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/daterange"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var now = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

func newProperty(t *testing.T, id string, cents int64) *property.Property {
	t.Helper()
	p, err := property.New(property.CreateParams{
		ID:      property.ID(id),
		OwnerID: "owner-1",
		Details: property.Details{
			Name:         "Casa " + id,
			Address:      "Via Roma 1",
			City:         "Napoli",
			NightlyPrice: money.Must(cents, "EUR"),
		},
		Now: now,
	})
	require.NoError(t, err)
	return p
}

func newReservation(t *testing.T, id, propertyID, in, out string) *reservation.Reservation {
	t.Helper()
	checkIn, err := daterange.Parse(in)
	require.NoError(t, err)
	checkOut, err := daterange.Parse(out)
	require.NoError(t, err)
	dr := daterange.Of(checkIn, checkOut)
	vr, err := reservation.ValidateRange(dr, now)
	require.NoError(t, err)
	r, err := reservation.New(reservation.CreateParams{
		ID:         reservation.ID(id),
		PropertyID: property.ID(propertyID),
		GuestID:    "guest-1",
		Range:      vr,
		Guests:     1,
		CreatedAt:  now,
	})
	require.NoError(t, err)
	return r
}

func begin(t *testing.T, f Factory) uow.UnitOfWork {
	t.Helper()
	unit, err := f.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return unit
}

func TestStagedWritesVisibleOnlyAfterCommit(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}

	writer := begin(t, f)
	require.NoError(t, writer.Properties().Save(ctx, newProperty(t, "p1", 15000)))

	got, err := writer.Properties().ByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Casa p1", got.Name)

	reader := begin(t, f)
	_, err = reader.Properties().ByID(ctx, "p1")
	require.ErrorIs(t, err, property.ErrNotFound)
	require.NoError(t, reader.Rollback(ctx))

	require.NoError(t, writer.Commit(ctx))
	reader = begin(t, f)
	got, err = reader.Properties().ByID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, int64(1), got.Version)
}

func TestRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	unit := begin(t, f)
	require.NoError(t, unit.Reservations().Save(ctx, newReservation(t, "r1", "p1", "2030-02-01", "2030-02-03")))
	require.NoError(t, unit.Rollback(ctx))
	require.NoError(t, unit.Rollback(ctx))

	check := begin(t, f)
	_, err := check.Reservations().ByID(ctx, "r1")
	require.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	ctx := context.Background()
	unit, err := Factory{Store: NewStore()}.Begin(ctx, uow.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.ErrorIs(t, unit.Properties().Save(ctx, newProperty(t, "p1", 100)), ErrReadOnly)
}

func TestLockPropertySerializesUnits(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	first := begin(t, f)
	require.NoError(t, first.LockProperty(ctx, "p1"))
	require.NoError(t, first.LockProperty(ctx, "p1"))

	second := begin(t, f)
	acquired := make(chan error, 1)
	go func() { acquired <- second.LockProperty(ctx, "p1") }()

	select {
	case <-acquired:
		t.Fatal("second unit acquired a held lock")
	case <-time.After(20 * time.Millisecond):
	}

	require.NoError(t, first.Reservations().Save(ctx, newReservation(t, "r1", "p1", "2030-02-01", "2030-02-03")))
	require.NoError(t, first.Commit(ctx))
	require.NoError(t, <-acquired)

	existing, err := second.Reservations().ListByProperty(ctx, "p1", false)
	require.NoError(t, err)
	require.Len(t, existing, 1)
	require.NoError(t, second.Rollback(ctx))
}

func TestLockPropertyHonoursContext(t *testing.T) {
	f := Factory{Store: NewStore()}
	holder := begin(t, f)
	require.NoError(t, holder.LockProperty(context.Background(), "p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	waiter := begin(t, f)
	require.ErrorIs(t, waiter.LockProperty(ctx, "p1"), context.DeadlineExceeded)
}

func TestListByPropertySkipsCancelledUnlessAsked(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	unit := begin(t, f)
	active := newReservation(t, "r1", "p1", "2030-02-05", "2030-02-07")
	cancelled := newReservation(t, "r2", "p1", "2030-02-01", "2030-02-03")
	require.NoError(t, cancelled.Cancel("", now))
	require.NoError(t, unit.Reservations().Save(ctx, active))
	require.NoError(t, unit.Reservations().Save(ctx, cancelled))
	require.NoError(t, unit.Commit(ctx))

	unit = begin(t, f)
	list, err := unit.Reservations().ListByProperty(ctx, "p1", false)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = unit.Reservations().ListByProperty(ctx, "p1", true)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, reservation.ID("r2"), list[0].ID)

	mine, err := unit.Reservations().ListByGuest(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestSearchSortsAndPages(t *testing.T) {
	ctx := context.Background()
	f := Factory{Store: NewStore()}
	unit := begin(t, f)
	for id, cents := range map[string]int64{"a": 30000, "b": 10000, "c": 20000} {
		require.NoError(t, unit.Properties().Save(ctx, newProperty(t, id, cents)))
	}
	require.NoError(t, unit.Commit(ctx))

	unit = begin(t, f)
	res, err := unit.Properties().Search(ctx, property.SearchParams{Sort: property.SortByPriceDesc, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	require.Equal(t, property.ID("a"), res.Items[0].ID)
	require.Equal(t, property.ID("c"), res.Items[1].ID)

	require.NoError(t, unit.Properties().Delete(ctx, "a"))
	res, err = unit.Properties().Search(ctx, property.SearchParams{Offset: 1})
	require.NoError(t, err)
	require.Equal(t, 2, res.Total)
	require.Equal(t, property.ID("c"), res.Items[0].ID)
}

func TestUserEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := UserRepository{Store: store}
	first, err := user.New(user.CreateParams{ID: "u1", Email: "Ana@Example.com", FirstName: "Ana", LastName: "R", PasswordHash: "x", CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	dup, err := user.New(user.CreateParams{ID: "u2", Email: "ana@example.com", FirstName: "Ana", LastName: "B", PasswordHash: "x", CreatedAt: now})
	require.NoError(t, err)
	require.ErrorIs(t, repo.Save(ctx, dup), user.ErrEmailAlreadyUsed)

	got, err := repo.ByEmail(ctx, " ANA@example.com ")
	require.NoError(t, err)
	require.Equal(t, user.ID("u1"), got.ID)
}

func TestOutboxDeliversCommittedRecordsOnFlush(t *testing.T) {
	ctx := context.Background()
	box := NewOutbox()
	var seen []string
	box.Subscribe(func(_ context.Context, rec appoutbox.EventRecord) { seen = append(seen, rec.Name) })
	f := Factory{Store: NewStore(), Outbox: box}

	rolledBack := begin(t, f)
	require.NoError(t, rolledBack.Outbox().Add(ctx, appoutbox.EventRecord{ID: "x", Name: "discarded"}))
	require.NoError(t, rolledBack.Rollback(ctx))

	unit := begin(t, f)
	require.NoError(t, unit.Outbox().Add(ctx, appoutbox.EventRecord{ID: "1", Name: "property.updated"}))
	require.NoError(t, box.Flush(ctx))
	require.Empty(t, seen)

	require.NoError(t, unit.Commit(ctx))
	require.NoError(t, box.Flush(ctx))
	require.Equal(t, []string{"property.updated"}, seen)
	require.NoError(t, box.Flush(ctx))
	require.Len(t, seen, 1)
	require.Zero(t, box.Len())
}

func TestRelayClaimsOnlyFlushedRecords(t *testing.T) {
	ctx := context.Background()
	box := &Outbox{Relay: true}
	var seen []string
	box.Subscribe(func(_ context.Context, rec appoutbox.EventRecord) { seen = append(seen, rec.ID) })

	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "1", Name: "property.updated"}))
	msg, err := box.Claim(ctx, "worker")
	require.NoError(t, err)
	require.Nil(t, msg)

	require.NoError(t, box.Flush(ctx))
	require.Equal(t, []string{"1"}, seen)

	require.NoError(t, box.Add(ctx, appoutbox.EventRecord{ID: "2", Name: "property.updated"}))
	msg, err = box.Claim(ctx, "worker")
	require.NoError(t, err)
	require.NotNil(t, msg)
	require.Equal(t, "1", msg.ID)
	require.NoError(t, box.MarkSent(ctx, msg.ID))

	msg, err = box.Claim(ctx, "worker")
	require.NoError(t, err)
	require.Nil(t, msg)

	require.NoError(t, box.Flush(ctx))
	require.Equal(t, []string{"1", "2"}, seen)
	msg, err = box.Claim(ctx, "worker")
	require.NoError(t, err)
	require.Equal(t, "2", msg.ID)
	require.NoError(t, box.MarkSent(ctx, msg.ID))
	require.Zero(t, box.Len())
}

func TestIdempotencyStoreExpires(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore(time.Minute)
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "fresh", OccurredAt: time.Now()}))
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "stale", OccurredAt: time.Now().Add(-time.Hour)}))

	_, ok, err := store.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = store.Get(ctx, "stale")
	require.NoError(t, err)
	require.False(t, ok)
}
