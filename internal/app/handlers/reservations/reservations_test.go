package reservations_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/dto"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/reservations"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/support"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/shared/money"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

var (
	owner = support.Actor{UserID: "owner-1", Role: user.RoleOwner}
	guest = support.Actor{UserID: "guest-1", Role: user.RoleGuest}
	admin = support.Actor{UserID: "admin-1", Role: user.RoleAdmin}
)

type fixture struct {
	cmds   commands.Bus
	qs     queries.Bus
	mu     sync.Mutex
	events []string
}

func (f *fixture) published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func newFixture(t *testing.T, autoConfirm bool) *fixture {
	t.Helper()
	store := memory.NewStore()
	box := memory.NewOutbox()
	f := &fixture{}
	box.Subscribe(func(_ context.Context, rec appoutbox.EventRecord) {
		f.mu.Lock()
		f.events = append(f.events, rec.Name)
		f.mu.Unlock()
	})
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

	factory := memory.Factory{Store: store, Outbox: box}
	cmdReg := commands.NewRegistry()
	qReg := queries.NewRegistry()
	reservations.Register(cmdReg, qReg, reservations.Deps{
		UoWFactory:  factory,
		Pricing:     policies.FlatTax{Rate: money.MustRate(0.21)},
		Cache:       policies.NoCache{},
		Clock:       policies.FixedClock{At: now},
		Encoder:     appoutbox.JSONEventEncoder{},
		AutoConfirm: autoConfirm,
	})
	f.cmds = middleware.ChainCommands(cmdReg,
		middleware.RequireActor(),
		middleware.Transaction(factory, nil),
		middleware.OutboxFlush(box, nil),
	)
	f.qs = qReg
	return f
}

func (f *fixture) create(t *testing.T, id string, actor support.Actor, in, out string, guests int) (*dto.Reservation, error) {
	t.Helper()
	return commands.Dispatch[reservations.CreateReservationCommand, *dto.Reservation](context.Background(), f.cmds, reservations.CreateReservationCommand{
		Actor:         actor,
		ReservationID: id,
		PropertyID:    "prop-1",
		CheckIn:       mustDate(t, in),
		CheckOut:      mustDate(t, out),
		Guests:        guests,
	})
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestCreateStoresPriceSnapshotAndRecordsEvent(t *testing.T) {
	f := newFixture(t, false)
	res, err := f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 2)
	require.NoError(t, err)
	require.Equal(t, "pending", res.Status)
	require.Equal(t, "160.00", res.Price.Subtotal.Amount)
	require.Equal(t, "33.60", res.Price.Taxes.Amount)
	require.Equal(t, "193.60", res.Price.Total.Amount)
	require.Equal(t, []string{reservation.EventCreated}, f.published())
}

func TestAutoConfirmEmitsBothEvents(t *testing.T) {
	f := newFixture(t, true)
	res, err := f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 1)
	require.NoError(t, err)
	require.Equal(t, "confirmed", res.Status)
	require.Equal(t, []string{reservation.EventCreated, reservation.EventConfirmed}, f.published())
}

func TestCreateRejectsOverCapacityAndOverlap(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.create(t, "r0", guest, "2026-03-10", "2026-03-12", 3)
	require.ErrorIs(t, err, reservation.ErrTooManyGuests)

	_, err = f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 2)
	require.NoError(t, err)
	_, err = f.create(t, "r2", guest, "2026-03-11", "2026-03-13", 2)
	require.ErrorIs(t, err, reservation.ErrConflict)
	_, err = f.create(t, "r3", guest, "2026-03-08", "2026-03-10", 2)
	require.NoError(t, err)
	require.Len(t, f.published(), 2)
}

func TestCancelIsIdempotentAndFreesNights(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 1)
	require.NoError(t, err)

	cancel := reservations.CancelCommand{Actor: guest, ReservationID: "r1"}
	res, err := commands.Dispatch[reservations.CancelCommand, *dto.Reservation](context.Background(), f.cmds, cancel)
	require.NoError(t, err)
	require.Equal(t, "cancelled", res.Status)
	res, err = commands.Dispatch[reservations.CancelCommand, *dto.Reservation](context.Background(), f.cmds, cancel)
	require.NoError(t, err)
	require.Equal(t, "cancelled", res.Status)
	require.Equal(t, []string{reservation.EventCreated, reservation.EventCancelled}, f.published())

	_, err = f.create(t, "r2", guest, "2026-03-10", "2026-03-12", 1)
	require.NoError(t, err)
}

func TestChangeStatusAuthorization(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 1)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = f.cmds.Dispatch(ctx, reservations.ChangeStatusCommand{Actor: guest, ReservationID: "r1", Status: "confirmed"})
	require.ErrorIs(t, err, reservation.ErrForbidden)

	stranger := support.Actor{UserID: "someone", Role: user.RoleGuest}
	_, err = f.cmds.Dispatch(ctx, reservations.ChangeStatusCommand{Actor: stranger, ReservationID: "r1", Status: "cancelled"})
	require.ErrorIs(t, err, reservation.ErrForbidden)

	_, err = f.cmds.Dispatch(ctx, reservations.ChangeStatusCommand{Actor: owner, ReservationID: "r1", Status: "confirmed"})
	require.NoError(t, err)

	_, err = f.cmds.Dispatch(ctx, reservations.ChangeStatusCommand{Actor: admin, ReservationID: "r1", Status: "pending"})
	require.ErrorIs(t, err, reservation.ErrInvalidTransition)

	_, err = f.cmds.Dispatch(ctx, reservations.ChangeStatusCommand{Actor: admin, ReservationID: "missing", Status: "cancelled"})
	require.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestListByPropertyRedactsOtherGuests(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.create(t, "r1", guest, "2026-03-10", "2026-03-12", 1)
	require.NoError(t, err)

	anon, err := queries.Ask[reservations.ListByPropertyQuery, dto.ReservationCollection](context.Background(), f.qs,
		reservations.ListByPropertyQuery{PropertyID: "prop-1"})
	require.NoError(t, err)
	require.Len(t, anon.Items, 1)
	require.Empty(t, anon.Items[0].GuestID)
	require.Equal(t, "2026-03-10", anon.Items[0].CheckIn)

	mine, err := queries.Ask[reservations.ListByPropertyQuery, dto.ReservationCollection](context.Background(), f.qs,
		reservations.ListByPropertyQuery{Actor: owner, PropertyID: "prop-1"})
	require.NoError(t, err)
	require.Equal(t, guest.UserID, mine.Items[0].GuestID)
}

func TestListMineRequiresCaller(t *testing.T) {
	f := newFixture(t, false)
	_, err := queries.Ask[reservations.ListMineQuery, dto.ReservationCollection](context.Background(), f.qs, reservations.ListMineQuery{})
	require.ErrorIs(t, err, middleware.ErrUnauthenticated)
}
