package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/crypto/bcrypt"

	"airbrb/internal/app/commands"
	bookingapp "airbrb/internal/app/handlers/booking"
	listingapp "airbrb/internal/app/handlers/listings"
	reviewapp "airbrb/internal/app/handlers/reviews"
	"airbrb/internal/app/handlers/support"
	"airbrb/internal/app/middleware"
	appoutbox "airbrb/internal/app/outbox"
	"airbrb/internal/app/queries"
	authsvc "airbrb/internal/app/services/auth"
	"airbrb/internal/app/uow"
	"airbrb/internal/app/validation"
	domainauth "airbrb/internal/domain/auth"
	domainuser "airbrb/internal/domain/user"
	"airbrb/internal/infra/broker/kafka"
	"airbrb/internal/infra/cache"
	"airbrb/internal/infra/config"
	mongostore "airbrb/internal/infra/db/mongo"
	"airbrb/internal/infra/db/sqlstore"
	ginserver "airbrb/internal/infra/http/gin"
	"airbrb/internal/infra/obs"
	infraoutbox "airbrb/internal/infra/outbox"
	"airbrb/internal/infra/security"
	"airbrb/internal/infra/storage/memory"
)

const (
	retryAttempts       = 3
	retryBackoff        = 20 * time.Millisecond
	idempotencyJanitor  = time.Hour
	breakerOpenInterval = 30 * time.Second
)

type application struct {
	handlers   ginserver.Handlers
	commands   commands.Bus
	checks     map[string]obs.Check
	background []func(context.Context) error
	closers    []func()
}

// Close releases storage and broker connections in reverse order of creation.
func (a *application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is everything a driver contributes to the application.
type storage struct {
	factory     uow.UoWFactory
	outbox      appoutbox.Outbox
	queue       infraoutbox.Queue
	idempotency middleware.IdempotencyStore
	users       domainuser.Repository
	sessions    domainauth.SessionStore
	purge       func(context.Context) (int64, error)
}

func buildApplication(ctx context.Context, cfg config.Config, logger *slog.Logger) (*application, error) {
	app := &application{checks: map[string]obs.Check{}}

	publisher, err := app.buildPublisher(cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}
	store, err := app.buildStorage(ctx, cfg, publisher, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	listingCache := cache.NewListingCache(store.factory, cfg.ListingCacheSize, cfg.ListingCacheTTL)
	app.closers = append(app.closers, listingCache.Stop)

	clock := support.Clock{Location: cfg.Timezone}
	encoder := appoutbox.JSONEventEncoder{}
	validator := validation.New()

	commandBus := commands.NewInMemoryBus()
	(&listingapp.CommandHandlers{
		Outbox:   store.outbox,
		Encoder:  encoder,
		Clock:    clock,
		Currency: cfg.Currency,
		Logger:   logger,
	}).Register(commandBus)
	bookingapp.RegisterCommands(commandBus,
		&bookingapp.RequestBookingHandler{Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger},
		&bookingapp.DecisionHandler{Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger},
	)
	reviewapp.RegisterCommands(commandBus,
		&reviewapp.SubmitReviewHandler{Outbox: store.outbox, Encoder: encoder, Clock: clock, Logger: logger},
	)
	app.commands = middleware.ChainCommands(commandBus,
		middleware.Logging(logger),
		middleware.Authorization(middleware.RequireActor{}),
		middleware.Validation(validator),
		middleware.Idempotency(store.idempotency, nil),
		middleware.OutboxFlush(store.outbox, logger),
		middleware.RetryConcurrent(retryAttempts, retryBackoff),
		middleware.Transaction(listingCache, nil),
	)

	queryBus := queries.NewInMemoryBus()
	(&listingapp.QueryHandlers{UoWFactory: listingCache}).Register(queryBus)
	bookingapp.RegisterQueries(queryBus,
		&bookingapp.QuoteBookingHandler{UoWFactory: listingCache, Clock: clock},
		&bookingapp.ListHandlers{UoWFactory: listingCache, Clock: clock, Currency: cfg.Currency},
	)
	reviewapp.RegisterQueries(queryBus, &reviewapp.ListHandler{UoWFactory: listingCache})
	queryChain := middleware.ChainQueries(queryBus,
		middleware.QueryLogging(logger),
		middleware.QueryAuthorization(middleware.RequireActor{}),
		middleware.QueryValidation(validator),
	)

	authService := &authsvc.Service{
		Users:      store.users,
		Sessions:   store.sessions,
		Passwords:  security.BcryptHasher{Cost: bcrypt.DefaultCost},
		Tokens:     security.TokenGenerator{},
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}

	app.handlers = ginserver.Handlers{
		Auth:           ginserver.AuthHandler{Service: authService, Logger: logger},
		Listing:        ginserver.ListingHandler{Commands: app.commands, Queries: queryChain, Logger: logger},
		Booking:        ginserver.BookingHandler{Commands: app.commands, Queries: queryChain, Logger: logger},
		Host:           ginserver.HostHandler{Queries: queryChain, Logger: logger},
		Review:         ginserver.ReviewHandler{Commands: app.commands, Queries: queryChain, Logger: logger},
		AuthMiddleware: ginserver.AuthMiddleware{Service: authService, Logger: logger}.Handle,
	}

	if store.queue != nil {
		worker := &infraoutbox.Worker{
			Queue:     store.queue,
			Publisher: publisher,
			Interval:  cfg.OutboxPollInterval,
			Backoff:   cfg.RetryBackoff,
			Logger:    logger.With("component", "outbox-worker"),
		}
		app.background = append(app.background, worker.Run)
	}
	if store.purge != nil {
		app.background = append(app.background, idempotencyPurger(store.purge, logger))
	}
	return app, nil
}

// buildPublisher returns the sink for outbox records: Kafka behind a circuit
// breaker when brokers are configured, the log otherwise.
func (a *application) buildPublisher(cfg config.Config, logger *slog.Logger) (appoutbox.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return logPublisher{logger: logger}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	})
	guarded := kafka.NewGuardedProducer(producer, kafka.BreakerSettings{OpenTimeout: breakerOpenInterval}, logger)
	a.checks["kafka"] = func(context.Context) error {
		if guarded.State() == gobreaker.StateOpen {
			return gobreaker.ErrOpenState
		}
		return nil
	}
	return infraoutbox.Relay{
		Producer: guarded,
		Envelope: infraoutbox.Envelope{TopicPrefix: cfg.KafkaTopicPrefix, Source: "airbrb"},
	}, nil
}

func (a *application) buildStorage(ctx context.Context, cfg config.Config, publisher appoutbox.Publisher, logger *slog.Logger) (storage, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return storage{}, fmt.Errorf("mongo connect: %w", err)
		}
		a.closers = append(a.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Close(closeCtx); err != nil {
				logger.Warn("mongo disconnect failed", "error", err)
			}
		})
		a.checks["mongo"] = client.Ping
		box := mongostore.NewOutboxStore(client.DB)
		return storage{
			factory:     mongostore.NewFactory(client.DB),
			outbox:      box,
			queue:       box,
			idempotency: mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			users:       mongostore.NewUserRepository(client.DB),
			sessions:    mongostore.NewSessionStore(client.DB),
		}, nil

	case config.DriverPostgres, config.DriverSQLite:
		db, err := sqlstore.Open(cfg.StorageDriver, cfg.DatabaseDSN)
		if err != nil {
			return storage{}, fmt.Errorf("database open: %w", err)
		}
		if err := sqlstore.Migrate(db); err != nil {
			return storage{}, fmt.Errorf("database migrate: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return storage{}, err
		}
		a.closers = append(a.closers, func() {
			if err := sqlDB.Close(); err != nil {
				logger.Warn("database close failed", "error", err)
			}
		})
		a.checks["database"] = sqlDB.PingContext
		box := sqlstore.OutboxStore{DB: db}
		idem := sqlstore.IdempotencyStore{DB: db, TTL: cfg.IdempotencyTTL}
		return storage{
			factory:     sqlstore.Factory{DB: db},
			outbox:      box,
			queue:       box,
			idempotency: idem,
			users:       sqlstore.UserRepository{DB: db},
			sessions:    sqlstore.SessionStore{DB: db},
			purge:       idem.Purge,
		}, nil

	default:
		logger.Warn("using in-memory storage; data is lost on restart")
		return storage{
			factory:     memory.NewStore(),
			outbox:      memory.NewOutbox(publisher),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			users:       memory.NewUserRepository(),
			sessions:    memory.NewSessionStore(),
		}, nil
	}
}

func idempotencyPurger(purge func(context.Context) (int64, error), logger *slog.Logger) func(context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(idempotencyJanitor)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				n, err := purge(ctx)
				if err != nil {
					logger.Warn("idempotency purge failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("idempotency keys purged", "count", n)
				}
			}
		}
	}
}

// logPublisher stands in for the broker in local runs.
type logPublisher struct {
	logger *slog.Logger
}

func (p logPublisher) Publish(ctx context.Context, rec appoutbox.EventRecord) error {
	p.logger.InfoContext(ctx, "event published", "event", rec.Name, "aggregate", rec.Aggregate, "id", rec.ID)
	return nil
}
