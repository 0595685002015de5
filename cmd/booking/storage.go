package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/uow"
	"github.com/AntoS03/ProyectoFinal/internal/domain/user"
	"github.com/AntoS03/ProyectoFinal/internal/infra/broker/kafka"
	"github.com/AntoS03/ProyectoFinal/internal/infra/config"
	mongodb "github.com/AntoS03/ProyectoFinal/internal/infra/db/mongo"
	"github.com/AntoS03/ProyectoFinal/internal/infra/db/postgres"
	"github.com/AntoS03/ProyectoFinal/internal/infra/inbox"
	"github.com/AntoS03/ProyectoFinal/internal/infra/obs"
	infraoutbox "github.com/AntoS03/ProyectoFinal/internal/infra/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/infra/storage/memory"
)

const memoryInboxCapacity = 10000

// storage is what one driver contributes to the application.
type storage struct {
	factory     uow.Factory
	users       user.Repository
	idempotency middleware.IdempotencyStore
	flusher     middleware.Flusher
	relay       infraoutbox.Store
	inbox       kafka.Inbox
	checks      []obs.Check

	memory       *memory.Store
	memoryOutbox *memory.Outbox
	closers      []func(context.Context) error
}

func (s *storage) close(logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			logger.Warn("storage close failed", "error", err)
		}
	}
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMemory:
		return openMemory(cfg), nil
	case config.DriverMongo:
		return openMongo(ctx, cfg, logger)
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func openMemory(cfg config.Config) *storage {
	store := memory.NewStore()
	box := memory.NewOutbox()
	// keep records for the relay worker when a broker is configured
	box.Relay = cfg.KafkaEnabled()
	s := &storage{
		factory:      memory.Factory{Store: store, Outbox: box},
		users:        memory.UserRepository{Store: store},
		idempotency:  memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		flusher:      box,
		inbox:        inbox.NewMemory(memoryInboxCapacity),
		memory:       store,
		memoryOutbox: box,
	}
	if box.Relay {
		s.relay = box
	}
	return s
}

func openMongo(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	s := &storage{closers: []func(context.Context) error{client.Close}}
	if err := client.EnsureIndexes(ctx); err != nil {
		s.close(logger)
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}
	outboxStore, err := infraoutbox.NewMongoStore(ctx, client.DB)
	if err != nil {
		s.close(logger)
		return nil, err
	}
	idempotency, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		s.close(logger)
		return nil, err
	}
	inboxStore, err := inbox.NewMongoStore(ctx, client.DB, cfg.KafkaGroupID)
	if err != nil {
		s.close(logger)
		return nil, err
	}
	s.factory = mongodb.Factory{DB: client.DB, Outbox: outboxStore}
	s.users = mongodb.NewUserRepository(client.DB)
	s.idempotency = idempotency
	s.flusher = outboxStore
	s.relay = outboxStore
	s.inbox = inboxStore
	s.checks = []obs.Check{{Name: "mongo", Fn: client.Ping}}
	logger.Info("mongo storage ready", "database", cfg.MongoDB)
	return s, nil
}

func openPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage, error) {
	db, err := postgres.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	s := &storage{closers: []func(context.Context) error{func(context.Context) error {
		db.Close()
		return nil
	}}}
	if err := db.Migrate(ctx); err != nil {
		s.close(logger)
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}
	outboxStore := postgres.NewOutboxStore(db.Pool)
	s.factory = postgres.Factory{DB: db, Outbox: outboxStore}
	s.users = postgres.NewUserRepository(db.Pool)
	s.idempotency = postgres.NewIdempotencyStore(db.Pool, cfg.IdempotencyTTL)
	s.flusher = outboxStore
	s.relay = outboxStore
	s.inbox = postgres.NewInboxStore(db.Pool, cfg.KafkaGroupID)
	s.checks = []obs.Check{{Name: "postgres", Fn: db.Ping}}
	logger.Info("postgres storage ready")
	return s, nil
}
