package memory

import (
	"context"
	"sync"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

// Factory opens units of work over a shared Store. Committed outbox records
// are appended to Outbox when it is set.
type Factory struct {
	Store  *Store
	Outbox *Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:        f.Store,
		box:          f.Outbox,
		readOnly:     opts.ReadOnly,
		properties:   make(map[property.ID]*property.Property),
		reservations: make(map[reservation.ID]*reservation.Reservation),
		users:        make(map[user.ID]*user.User),
		held:         make(map[property.ID]chan struct{}),
	}, nil
}

// Unit stages writes until Commit. Locks taken with LockProperty are held
// until Commit or Rollback.
type Unit struct {
	store    *Store
	box      *Outbox
	readOnly bool

	mu           sync.Mutex
	properties   map[property.ID]*property.Property
	reservations map[reservation.ID]*reservation.Reservation
	users        map[user.ID]*user.User
	pending      []appoutbox.EventRecord
	held         map[property.ID]chan struct{}
	done         bool
}

func (u *Unit) Properties() property.Repository       { return unitProperties{u} }
func (u *Unit) Reservations() reservation.Repository { return unitReservations{u} }
func (u *Unit) Users() user.Repository               { return unitUsers{u} }
func (u *Unit) Outbox() appoutbox.Outbox             { return unitOutbox{u} }

func (u *Unit) LockProperty(ctx context.Context, id property.ID) error {
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	if _, ok := u.held[id]; ok {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	ch := u.store.propertyLock(id)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	u.mu.Lock()
	u.held[id] = ch
	u.mu.Unlock()
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if !u.readOnly {
		if err := u.store.apply(u.properties, u.reservations, u.users); err != nil {
			return err
		}
		if u.box != nil && len(u.pending) > 0 {
			u.box.append(u.pending)
		}
	}
	u.finish()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.finish()
	return nil
}

// finish releases locks and discards staged state. Caller holds u.mu.
func (u *Unit) finish() {
	for id, ch := range u.held {
		<-ch
		delete(u.held, id)
	}
	u.properties = nil
	u.reservations = nil
	u.users = nil
	u.pending = nil
	u.done = true
}

func (u *Unit) writable() error {
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return nil
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.Factory = Factory{}
