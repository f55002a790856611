package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ilindan-dev/notification-engine/internal/config"
	"github.com/ilindan-dev/notification-engine/internal/consumer"
	deliveryHTTP "github.com/ilindan-dev/notification-engine/internal/delivery/http"
	repo "github.com/ilindan-dev/notification-engine/internal/domain/repository"
	"github.com/ilindan-dev/notification-engine/internal/logger"
	"github.com/ilindan-dev/notification-engine/internal/notifiers"
	"github.com/ilindan-dev/notification-engine/internal/service"
	"github.com/ilindan-dev/notification-engine/internal/storage/memory"
	"github.com/ilindan-dev/notification-engine/internal/storage/postgres"
	"github.com/ilindan-dev/notification-engine/internal/storage/rabbitmq"
	"github.com/ilindan-dev/notification-engine/internal/storage/redis"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// startupTimeout bounds connecting to postgres, redis and the AWS credential chain.
const startupTimeout = 30 * time.Second

// CommonModule provides dependencies that are shared between the API and Worker applications.
var CommonModule = fx.Options(
	fx.Provide(
		// Core components
		config.NewConfig,
		logger.NewLogger,

		// Storage Layer
		newTemplateRepository,
		newAMQPConnection,
		newQueue,

		// Service Layer
		newTemplateStore,
		newNotifiers,
		newDispatcher,
	),

	fx.Decorate(newCachedTemplateRepository),

	fx.Invoke(seedSystemTemplates),
)

// APIModule defines the Fx module for the HTTP API application.
var APIModule = fx.Options(
	CommonModule,
	fx.Provide(
		func(d *notifiers.Dispatcher, s *service.TemplateStore, q repo.NotificationQueue, l *zerolog.Logger) *deliveryHTTP.Handlers {
			return deliveryHTTP.NewHandlers(d, s, q, l)
		},
		deliveryHTTP.NewServer,
	),

	fx.Invoke(func(server *deliveryHTTP.Server, lc fx.Lifecycle, logger *zerolog.Logger) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Fatal().Err(err).Msg("http server stopped unexpectedly")
					}
				}()
				logger.Info().Str("addr", server.Addr).Msg("http server started")
				return nil
			},
			OnStop: func(ctx context.Context) error {
				return server.Shutdown(ctx)
			},
		})
	}),
)

// WorkerModule defines the Fx module for the background worker application.
var WorkerModule = fx.Options(
	CommonModule,
	fx.Provide(
		func(cfg *config.Config, l *zerolog.Logger, conn *amqp.Connection, d *notifiers.Dispatcher, q repo.NotificationQueue) *consumer.Consumer {
			return consumer.New(cfg, l, conn, d, q)
		},
	),
	fx.Invoke(func(c *consumer.Consumer, lc fx.Lifecycle) {
		// The start context expires once OnStart returns, so the pool runs on its own.
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					defer close(done)
					c.Start(ctx)
				}()
				return nil
			},
			OnStop: func(stopCtx context.Context) error {
				cancel()
				select {
				case <-done:
					return nil
				case <-stopCtx.Done():
					return stopCtx.Err()
				}
			},
		})
	}),
)

func newTemplateRepository(lc fx.Lifecycle, cfg *config.Config, logger *zerolog.Logger) (repo.TemplateRepository, error) {
	if cfg.Templates.Backend != "postgres" {
		return memory.NewTemplateRepository(logger), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(pool.Close))
	return postgres.NewTemplateRepository(pool, logger), nil
}

// newCachedTemplateRepository puts the redis cache-aside decorator in front of the primary repository.
func newCachedTemplateRepository(lc fx.Lifecycle, cfg *config.Config, primary repo.TemplateRepository, logger *zerolog.Logger) (repo.TemplateRepository, error) {
	if !cfg.Templates.Cache {
		return primary, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	client, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(client.Close))

	cache := redis.NewTemplateCache(logger, client)
	return redis.NewCachedTemplateRepository(primary, cache, cfg.Templates.CacheTTL, logger), nil
}

func newAMQPConnection(lc fx.Lifecycle, cfg *config.Config) (*amqp.Connection, error) {
	conn, err := rabbitmq.NewConnection(cfg)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(conn.Close))
	return conn, nil
}

func newQueue(lc fx.Lifecycle, conn *amqp.Connection, logger *zerolog.Logger) (repo.NotificationQueue, error) {
	q, err := rabbitmq.NewQueue(conn, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(q.Close))
	return q, nil
}

func newTemplateStore(r repo.TemplateRepository, logger *zerolog.Logger) *service.TemplateStore {
	return service.NewTemplateStore(r, logger)
}

func newDispatcher(store *service.TemplateStore, ns []notifiers.Notifier, logger *zerolog.Logger) *notifiers.Dispatcher {
	return notifiers.NewDispatcher(store, logger, ns...)
}

func seedSystemTemplates(lc fx.Lifecycle, store *service.TemplateStore, logger *zerolog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			n, err := store.SeedSystemTemplates(ctx)
			if err != nil {
				return err
			}
			logger.Info().Int("inserted", n).Msg("system templates seeded")
			return nil
		},
	})
}
