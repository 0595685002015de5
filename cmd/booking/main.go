package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/AntoS03/ProyectoFinal/internal/app/commands"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/properties"
	"github.com/AntoS03/ProyectoFinal/internal/app/handlers/reservations"
	"github.com/AntoS03/ProyectoFinal/internal/app/middleware"
	"github.com/AntoS03/ProyectoFinal/internal/app/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/app/policies"
	"github.com/AntoS03/ProyectoFinal/internal/app/queries"
	authsvc "github.com/AntoS03/ProyectoFinal/internal/app/services/auth"
	"github.com/AntoS03/ProyectoFinal/internal/infra/broker/kafka"
	"github.com/AntoS03/ProyectoFinal/internal/infra/cache"
	"github.com/AntoS03/ProyectoFinal/internal/infra/config"
	ginserver "github.com/AntoS03/ProyectoFinal/internal/infra/http/gin"
	"github.com/AntoS03/ProyectoFinal/internal/infra/obs"
	infraoutbox "github.com/AntoS03/ProyectoFinal/internal/infra/outbox"
	"github.com/AntoS03/ProyectoFinal/internal/infra/security"
)

const eventSource = "app://reservations"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		obs.NewLogger(os.Getenv("APP_ENV")).Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.close(logger)

	propertyCache, cacheCheck, closeCache := buildCache(cfg, logger)
	defer closeCache()
	invalidator := cache.Invalidator{Cache: propertyCache, Logger: logger}
	if store.memoryOutbox != nil {
		store.memoryOutbox.Subscribe(invalidator.OnRecord)
	}

	flushers := flushAll{store.flusher}
	var background []func(context.Context) error
	if cfg.KafkaEnabled() {
		jobs, closeKafka, err := startKafka(cfg, logger, store, invalidator)
		if err != nil {
			return err
		}
		defer closeKafka()
		for _, job := range jobs {
			if f, ok := job.(middleware.Flusher); ok {
				flushers = append(flushers, f)
			}
			background = append(background, job.Run)
		}
	}

	app, err := buildApplication(cfg, logger, store, propertyCache, flushers)
	if err != nil {
		return err
	}

	if store.memory != nil {
		path := cfg.FixturesPath
		if path == "" {
			path = defaultFixturesPath()
		}
		if err := loadPropertyFixtures(ctx, store.memory, path, cfg.Currency, logger); err != nil {
			logger.Warn("property fixtures load failed", "error", err, "path", path)
		}
	}

	checks := append([]obs.Check{}, store.checks...)
	if cacheCheck.Fn != nil {
		checks = append(checks, cacheCheck)
	}
	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, app)

	for _, job := range background {
		go func(job func(context.Context) error) {
			if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("background job stopped", "error", err)
			}
		}(job)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageDriver, "kafka", cfg.KafkaEnabled(), "redis", cfg.RedisEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func buildApplication(cfg config.Config, logger *slog.Logger, store *storage, propertyCache policies.PropertyCache, flusher middleware.Flusher) (ginserver.Handlers, error) {
	clock := policies.SystemClock{}
	pricing := policies.FlatTax{Rate: cfg.TaxRate}
	encoder := outbox.JSONEventEncoder{
		Headers: map[string]string{"source": eventSource},
	}

	cmdRegistry := commands.NewRegistry()
	queryRegistry := queries.NewRegistry()
	properties.Register(cmdRegistry, queryRegistry, properties.Deps{
		UoWFactory: store.factory,
		Cache:      propertyCache,
		Pricing:    pricing,
		Clock:      clock,
		Encoder:    encoder,
		Currency:   cfg.Currency,
		Logger:     logger,
	})
	reservations.Register(cmdRegistry, queryRegistry, reservations.Deps{
		UoWFactory:  store.factory,
		Pricing:     pricing,
		Cache:       propertyCache,
		Clock:       clock,
		Encoder:     encoder,
		AutoConfirm: cfg.AutoConfirm,
		Logger:      logger,
	})
	logger.Debug("handlers registered", "commands", cmdRegistry.Keys())

	validator := middleware.NewStructValidator()
	commandBus := middleware.ChainCommands(
		cmdRegistry,
		middleware.Logging(logger),
		middleware.Validation(validator),
		middleware.RequireActor(),
		middleware.Idempotency(store.idempotency, nil),
		middleware.Transaction(store.factory, nil),
		middleware.OutboxFlush(flusher, logger),
	)
	queryBus := middleware.ChainQueries(
		queryRegistry,
		middleware.QueryLogging(logger),
		middleware.QueryValidation(validator),
	)

	secret := cfg.JWTSecret
	if secret == "" {
		generated, err := security.RandomSecret(32)
		if err != nil {
			return ginserver.Handlers{}, err
		}
		secret = generated
		logger.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	issuer, err := security.NewJWTIssuer(secret, cfg.JWTTTL)
	if err != nil {
		return ginserver.Handlers{}, err
	}
	authService := &authsvc.Service{
		Users:     store.users,
		Passwords: security.BcryptHasher{},
		Tokens:    issuer,
		Logger:    logger,
	}

	return ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Properties:     ginserver.PropertyHandler{Commands: commandBus, Queries: queryBus, Logger: logger},
		Reservations:   ginserver.ReservationHandler{Commands: commandBus, Queries: queryBus, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}, nil
}

func buildCache(cfg config.Config, logger *slog.Logger) (policies.PropertyCache, obs.Check, func()) {
	if !cfg.RedisEnabled() {
		return cache.NewMemory(cfg.CacheTTL), obs.Check{}, func() {}
	}
	client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	redisCache := &cache.Redis{Client: client, TTL: cfg.CacheTTL, Logger: logger}
	closeFn := func() {
		if err := client.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
	return redisCache, obs.Check{Name: "redis", Fn: redisCache.Ping}, closeFn
}

type backgroundJob interface {
	Run(ctx context.Context) error
}

type consumerJob struct {
	consumer *kafka.Consumer
	topics   []string
}

func (j consumerJob) Run(ctx context.Context) error { return j.consumer.Run(ctx, j.topics) }

// startKafka wires the outbox relay and the cache invalidation consumer.
func startKafka(cfg config.Config, logger *slog.Logger, store *storage, invalidator cache.Invalidator) ([]backgroundJob, func(), error) {
	var jobs []backgroundJob
	var closers []func() error

	if store.relay != nil {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, "reservations-outbox", nil)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, producer.Close)
		jobs = append(jobs, &infraoutbox.Worker{
			Store:       store.relay,
			Producer:    producer,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Source:      eventSource,
			ID:          "outbox-" + uuid.NewString(),
			Backoff:     cfg.RetryBackoff,
			Logger:      logger,
		})
	}

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, kafka.CloudEventHandler{
		Inbox:   store.inbox,
		Applier: invalidator,
	}, logger)
	if err != nil {
		for _, c := range closers {
			_ = c()
		}
		return nil, nil, err
	}
	closers = append(closers, consumer.Close)
	jobs = append(jobs, consumerJob{
		consumer: consumer,
		topics:   []string{infraoutbox.TopicFor(cfg.KafkaTopicPrefix, "property.updated")},
	})

	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("kafka client close failed", "error", err)
			}
		}
	}
	return jobs, closeAll, nil
}

// flushAll runs every flusher and joins their errors.
type flushAll []middleware.Flusher

func (f flushAll) Flush(ctx context.Context) error {
	var errs []error
	for _, fl := range f {
		if fl == nil {
			continue
		}
		if err := fl.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
