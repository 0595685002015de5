package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	appoutbox "github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/property"
	"github.com/AntoS03/ProyectoFinal/internal/domain/reservation"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
// Writers run in a snapshot transaction; read-only units use a plain session.
type Factory struct {
	DB     *mongo.Database
	Outbox appoutbox.Outbox
}

var (
	ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")
	ErrReadOnlyLock            = errors.New("mongo: lock requested on read-only unit")
)

const writeConflictCode = 112

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil || f.Outbox == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	unit := &Unit{
		db:           f.DB,
		session:      session,
		readOnly:     opts.ReadOnly,
		properties:   NewPropertyRepository(f.DB),
		reservations: NewReservationRepository(f.DB),
		users:        NewUserRepository(f.DB),
		outbox:       f.Outbox,
	}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return unit, nil
}

type Unit struct {
	db       *mongo.Database
	session  mongo.Session
	readOnly bool

	properties   *PropertyRepository
	reservations *ReservationRepository
	users        *UserRepository
	outbox       appoutbox.Outbox
}

func (u *Unit) Properties() property.Repository       { return u.properties }
func (u *Unit) Reservations() reservation.Repository { return u.reservations }
func (u *Unit) Users() user.Repository               { return u.users }
func (u *Unit) Outbox() appoutbox.Outbox             { return u.outbox }

// LockProperty bumps a per-property counter inside the transaction. A second
// transaction touching the same counter aborts with a write conflict, which
// surfaces as reservation.ErrConcurrentBooking.
func (u *Unit) LockProperty(ctx context.Context, id property.ID) error {
	if u.readOnly {
		return ErrReadOnlyLock
	}
	_, err := u.db.Collection(colLocks).UpdateOne(ctx,
		bson.M{"_id": string(id)},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.Update().SetUpsert(true),
	)
	return translateConflict(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return translateConflict(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	if isWriteConflict(err) {
		return fmt.Errorf("%w: %w", reservation.ErrConcurrentBooking, err)
	}
	return err
}

func isWriteConflict(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == writeConflictCode || cmdErr.HasErrorLabel("TransientTransactionError")
	}
	var writeErr mongo.WriteException
	if errors.As(err, &writeErr) {
		if writeErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
		for _, we := range writeErr.WriteErrors {
			if we.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}

var (
	_ uow.UnitOfWork      = (*Unit)(nil)
	_ uow.ContextInjector = (*Unit)(nil)
	_ uow.Factory         = Factory{}
)
