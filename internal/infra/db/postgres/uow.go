package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("postgres: unit of work factory missing pool")

// Factory opens one database transaction per unit of work.
type Factory struct {
	DB     *DB
	Outbox *OutboxStore
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.DB.Pool == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := pgx.TxOptions{IsoLevel: pgx.ReadCommitted}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	tx, err := f.DB.Pool.BeginTx(ctx, txOpts)
	if err != nil {
		return nil, err
	}
	box := f.Outbox
	if box == nil {
		box = NewOutboxStore(f.DB.Pool)
	}
	return &Unit{
		tx:           tx,
		properties:   NewPropertyRepository(f.DB.Pool),
		reservations: NewReservationRepository(f.DB.Pool),
		users:        NewUserRepository(f.DB.Pool),
		outbox:       box,
	}, nil
}

type Unit struct {
	tx pgx.Tx

	properties   *PropertyRepository
	reservations *ReservationRepository
	users        *UserRepository
	outbox       *OutboxStore
}

func (u *Unit) Properties() property.Repository       { return u.properties }
func (u *Unit) Reservations() reservation.Repository { return u.reservations }
func (u *Unit) Users() user.Repository               { return u.users }
func (u *Unit) Outbox() appoutbox.Outbox             { return u.outbox }

// LockProperty takes a row lock on the property until the transaction ends.
func (u *Unit) LockProperty(ctx context.Context, id property.ID) error {
	var locked string
	err := u.tx.QueryRow(ctx, `SELECT id FROM properties WHERE id = $1 FOR UPDATE`, string(id)).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return property.ErrNotFound
	}
	return translateConflict(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	return translateConflict(u.tx.Commit(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	err := u.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return withTx(ctx, u.tx)
}

// translateConflict maps lock and serialization failures to ErrConcurrentBooking.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return fmt.Errorf("%w: %w", reservation.ErrConcurrentBooking, err)
	}
	return err
}

var (
	_ uow.UnitOfWork      = (*Unit)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
	_ uow.Factory         = Factory{}
)
