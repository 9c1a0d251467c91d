package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"

	"github.com/serroba/paste-go/internal/analytics"
	analyticsstore "github.com/serroba/paste-go/internal/analytics/store"
	"github.com/serroba/paste-go/internal/clock"
	"github.com/serroba/paste-go/internal/handlers"
	"github.com/serroba/paste-go/internal/health"
	"github.com/serroba/paste-go/internal/messaging"
	"github.com/serroba/paste-go/internal/middleware"
	"github.com/serroba/paste-go/internal/paste"
	"github.com/serroba/paste-go/internal/ratelimit"
	"github.com/serroba/paste-go/internal/store"
)

// Backend names accepted by Options.Backend.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var errUnknownBackend = errors.New("unknown backend")

// LoggerPackage provides the zap logger.
func LoggerPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*zap.Logger, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		if options.LogFormat == "json" {
			return zap.NewProduction()
		}

		return zap.NewDevelopment()
	})
}

// ClockPackage provides the clock used for liveness evaluation.
func ClockPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (clock.Clock, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		if options.Deterministic {
			return clock.NewDeterministic(), nil
		}

		return clock.NewSystem(), nil
	})
}

// RedisPackage provides the shared Redis client.
func RedisPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*redis.Client, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		return redis.NewClient(&redis.Options{
			Addr: options.RedisAddr,
		}), nil
	})
}

// PostgresPackage provides the pgx connection pool.
func PostgresPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*pgxpool.Pool, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		return pgxpool.New(context.Background(), options.DatabaseURL)
	})
}

// RepositoryPackage provides the paste repository for the configured backend.
func RepositoryPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (paste.Repository, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		switch options.Backend {
		case BackendMemory:
			return store.NewMemoryStore(), nil
		case BackendRedis:
			client, err := do.Invoke[*redis.Client](i)
			if err != nil {
				return nil, err
			}

			return store.NewRedisStore(client), nil
		case BackendPostgres:
			pool, err := do.Invoke[*pgxpool.Pool](i)
			if err != nil {
				return nil, err
			}

			return store.NewPostgresStore(pool), nil
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownBackend, options.Backend)
		}
	})
}

// EnginePackage provides the paste engine.
func EnginePackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*paste.Engine, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		repository, err := do.Invoke[paste.Repository](i)
		if err != nil {
			return nil, err
		}

		clk, err := do.Invoke[clock.Clock](i)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		generator, err := nanoid.Standard(options.IDLength)
		if err != nil {
			return nil, fmt.Errorf("id generator: %w", err)
		}

		return paste.NewEngine(repository, clk, generator, logger), nil
	})
}

// SweeperPackage provides the dead paste sweeper. Only call it when sweeping
// is enabled; the provider fails for backends without bulk deletion.
func SweeperPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*paste.Sweeper, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		repository, err := do.Invoke[paste.Repository](i)
		if err != nil {
			return nil, err
		}

		sweepable, ok := repository.(paste.DeadSweeper)
		if !ok {
			return nil, fmt.Errorf("backend %q does not support sweeping", options.Backend)
		}

		clk, err := do.Invoke[clock.Clock](i)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		interval := time.Duration(options.SweepSeconds) * time.Second

		return paste.NewSweeper(sweepable, clk, interval, logger), nil
	})
}

// RateLimitPackage provides the rate limit store and the default limiter.
func RateLimitPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (ratelimit.Store, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		// Counters are shared across instances when Redis is around anyway.
		if options.Backend == BackendMemory {
			return store.NewRateLimitMemoryStore(), nil
		}

		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		return store.NewRateLimitRedisStore(client), nil
	})

	do.Provide(injector, func(i *do.Injector) (ratelimit.Limiter, error) {
		rlStore, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		return ratelimit.NewSlidingWindowLimiter(rlStore, 120, time.Minute), nil
	})
}

// PublisherGroupPackage provides the event publisher and the typed publish
// functions for paste analytics events.
func PublisherGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		var publisher message.Publisher

		if options.Backend == BackendMemory {
			// Single-process run: no Redis to stream through.
			publisher = gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
		} else {
			client, err := do.Invoke[*redis.Client](i)
			if err != nil {
				return nil, err
			}

			publisher, err = redisstream.NewPublisher(
				redisstream.PublisherConfig{Client: client},
				watermill.NopLogger{},
			)
			if err != nil {
				return nil, err
			}
		}

		return messaging.NewPublisherGroup(publisher), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.PasteCreatedEvent], error) {
		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[analytics.PasteCreatedEvent](group.Publisher(), analytics.TopicPasteCreated), nil
	})

	do.Provide(injector, func(i *do.Injector) (messaging.Publish[analytics.PasteReadEvent], error) {
		group, err := do.Invoke[*messaging.PublisherGroup](i)
		if err != nil {
			return nil, err
		}

		return messaging.NewPublishFunc[analytics.PasteReadEvent](group.Publisher(), analytics.TopicPasteRead), nil
	})
}

// ConsumerGroupPackage provides the analytics consumer group.
func ConsumerGroupPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		subscriber, err := redisstream.NewSubscriber(
			redisstream.SubscriberConfig{
				Client:        client,
				ConsumerGroup: "paste-analytics",
			},
			watermill.NopLogger{},
		)
		if err != nil {
			return nil, err
		}

		analyticsStore := analyticsstore.NewNoop(logger)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicPasteCreated,
			analytics.NewPasteCreatedHandler(analyticsStore), logger))
		group.Add(messaging.NewConsumer(subscriber, analytics.TopicPasteRead,
			analytics.NewPasteReadHandler(analyticsStore), logger))

		return group, nil
	})
}

// HTTPPackage provides the router and the API with all routes and
// middlewares registered.
func HTTPPackage(injector *do.Injector) {
	do.Provide(injector, func(i *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})

	do.Provide(injector, func(i *do.Injector) (huma.API, error) {
		options, err := do.Invoke[*Options](i)
		if err != nil {
			return nil, err
		}

		router, err := do.Invoke[*chi.Mux](i)
		if err != nil {
			return nil, err
		}

		logger, err := do.Invoke[*zap.Logger](i)
		if err != nil {
			return nil, err
		}

		engine, err := do.Invoke[*paste.Engine](i)
		if err != nil {
			return nil, err
		}

		limiter, err := do.Invoke[ratelimit.Limiter](i)
		if err != nil {
			return nil, err
		}

		rlStore, err := do.Invoke[ratelimit.Store](i)
		if err != nil {
			return nil, err
		}

		publishCreated, err := do.Invoke[messaging.Publish[analytics.PasteCreatedEvent]](i)
		if err != nil {
			return nil, err
		}

		publishRead, err := do.Invoke[messaging.Publish[analytics.PasteReadEvent]](i)
		if err != nil {
			return nil, err
		}

		api := humachi.New(router, huma.DefaultConfig("Paste Service", "1.0.0"))

		api.UseMiddleware(middleware.RequestMeta(api))

		if options.Deterministic {
			api.UseMiddleware(middleware.SimulatedNow(api))
		}

		api.UseMiddleware(middleware.RateLimiter(api, limiter, rlStore, logger))

		baseURL := options.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", options.Port)
		}

		pasteHandler := handlers.NewPasteHandler(engine, baseURL, publishCreated, publishRead, logger)
		handlers.RegisterRoutes(api, pasteHandler)

		healthHandler, err := buildHealthHandler(i, options)
		if err != nil {
			return nil, err
		}

		health.RegisterRoutes(api, healthHandler)

		return api, nil
	})
}

func buildHealthHandler(i *do.Injector, options *Options) (*health.Handler, error) {
	var checks []health.Check

	switch options.Backend {
	case BackendRedis:
		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		checks = append(checks, health.Check{Name: "redis", Checker: health.NewRedisChecker(client)})
	case BackendPostgres:
		pool, err := do.Invoke[*pgxpool.Pool](i)
		if err != nil {
			return nil, err
		}

		client, err := do.Invoke[*redis.Client](i)
		if err != nil {
			return nil, err
		}

		checks = append(checks,
			health.Check{Name: "postgres", Checker: health.NewPostgresChecker(pool)},
			health.Check{Name: "redis", Checker: health.NewRedisChecker(client)},
		)
	}

	return health.NewHandler(checks...), nil
}
