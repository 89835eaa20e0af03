// Package app wires configuration into the running ingester: storage,
// sources, the job queue, notify sinks and the ops HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/sportsfeed/external/cricbuzz"
	"github.com/riskibarqy/sportsfeed/external/feed"
	"github.com/riskibarqy/sportsfeed/external/goalserve"
	"github.com/riskibarqy/sportsfeed/internal/config"
	"github.com/riskibarqy/sportsfeed/internal/domain/fixture"
	"github.com/riskibarqy/sportsfeed/internal/domain/jobscheduler"
	"github.com/riskibarqy/sportsfeed/internal/domain/match"
	"github.com/riskibarqy/sportsfeed/internal/domain/matchdetail"
	"github.com/riskibarqy/sportsfeed/internal/domain/rawdata"
	"github.com/riskibarqy/sportsfeed/internal/domain/score"
	"github.com/riskibarqy/sportsfeed/internal/domain/sport"
	infracache "github.com/riskibarqy/sportsfeed/internal/infrastructure/cache"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/jobqueue"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/notify"
	cachedrepo "github.com/riskibarqy/sportsfeed/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/sportsfeed/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/sportsfeed/internal/interfaces/httpapi"
	platformcache "github.com/riskibarqy/sportsfeed/internal/platform/cache"
	"github.com/riskibarqy/sportsfeed/internal/platform/id"
	"github.com/riskibarqy/sportsfeed/internal/platform/logging"
	"github.com/riskibarqy/sportsfeed/internal/platform/resilience"
	"github.com/riskibarqy/sportsfeed/internal/usecase"
)

// App holds the long-lived components of one ingester process.
type App struct {
	Server   *http.Server
	Pipeline *usecase.PipelineService
	Live     *usecase.LiveScoreService

	logger  *logging.Logger
	closers []func(context.Context) error
}

type repositories struct {
	sports    sport.Repository
	fixtures  fixture.Repository
	matches   match.Repository
	scores    score.Repository
	details   matchdetail.Repository
	raw       rawdata.Repository
	dispatches jobscheduler.Repository
}

// New builds the ingester. Callers must Close it; on error everything built
// so far is already released.
func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (_ *App, err error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	checks := make(map[string]httpapi.HealthCheck)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = infracache.OpenRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.onClose(func(context.Context) error { return redisClient.Close() })
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	var cacheBackend platformcache.Backend = platformcache.NewStore()
	if redisClient != nil {
		cacheBackend = infracache.NewRedisStore(redisClient, cfg.CachePrefix)
	}

	repos, err := a.openRepositories(ctx, cfg, checks)
	if err != nil {
		return nil, err
	}
	repos.sports = cachedrepo.NewSportRepository(repos.sports, cacheBackend, cfg.CacheTTLSports)

	fetcher := &feed.Router{
		HTTP: feed.NewHTTPFetcher(feed.HTTPConfig{
			MaxBodyBytes: cfg.FeedMaxBodyBytes,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.FeedCircuitEnabled,
				FailureThreshold: cfg.FeedCircuitFailureCount,
				OpenTimeout:      cfg.FeedCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMax,
			},
			Logger: logger,
		}),
		Render: feed.NewRenderFetcher(feed.RenderConfig{
			UserAgent:     cfg.ScrapeUserAgent,
			Settle:        cfg.ScrapeSettleDelay,
			RatePerSecond: cfg.ScrapeRPS,
			Burst:         1,
			ExecPath:      cfg.ScrapeChromePath,
			Logger:        logger,
		}),
	}
	a.onClose(func(context.Context) error {
		fetcher.Close()
		return nil
	})

	retry := resilience.RetryPolicy{Attempts: cfg.FeedRetryAttempts, Delay: cfg.FeedRetryDelay}
	scrapeSource := cricbuzz.New(cricbuzz.Config{
		BaseURL:   cfg.ScrapeBaseURL,
		UserAgent: cfg.ScrapeUserAgent,
		Timeout:   cfg.ScrapeTimeout,
		Retry:     retry,
	})
	liveSource := goalserve.New(goalserve.Config{
		BaseURL:   cfg.FeedBaseURL,
		APIKey:    cfg.FeedAPIKey,
		Timeout:   cfg.FeedTimeout,
		Retry:     retry,
		UserAgent: cfg.ScrapeUserAgent,
	})

	resolver := usecase.NewResolverService(repos.matches, repos.fixtures, cfg.ResolverWindow, logger)
	upserter := usecase.NewUpsertService(
		repos.fixtures,
		repos.matches,
		repos.scores,
		repos.details,
		repos.raw,
		resolver,
		usecase.UpsertConfig{BatchSize: cfg.UpsertBatchSize, Workers: cfg.UpsertWorkers},
		logger,
	)

	dispatcher := jobqueue.NewDispatcher(repos.dispatches, cfg.JobTimeout, logger)
	queue, err := a.buildQueue(cfg, dispatcher, repos.dispatches)
	if err != nil {
		return nil, err
	}

	hub, notifier, err := a.buildNotifier(cfg, redisClient)
	if err != nil {
		return nil, err
	}

	a.Pipeline = usecase.NewPipelineService(
		fetcher,
		scrapeSource,
		repos.sports,
		upserter,
		resolver,
		queue,
		usecase.PipelineConfig{SportSlug: "cricket", Location: cfg.Location},
		logger,
	)
	a.Live = usecase.NewLiveScoreService(
		fetcher,
		liveSource,
		repos.sports,
		repos.matches,
		upserter,
		resolver,
		cacheBackend,
		notifier,
		queue,
		usecase.LiveScoreConfig{
			MappingTTL: cfg.CacheTTLLeagueMappings,
			Workers:    cfg.LiveWorkers,
			Location:   cfg.Location,
		},
		logger,
	)
	dispatcher.Register(a.Pipeline.Handlers())
	dispatcher.Register(a.Live.Handlers())

	var stream http.Handler
	if hub != nil {
		stream = hub
	}
	handler := httpapi.NewHandler(a.Pipeline, a.Live, dispatcher, stream, checks, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
	})

	a.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return a, nil
}

// Close releases components in reverse build order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) onClose(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

func (a *App) openRepositories(ctx context.Context, cfg config.Config, checks map[string]httpapi.HealthCheck) (repositories, error) {
	if cfg.DBURL == "" {
		a.logger.Warn("DB_URL is empty, using in-memory repositories")
		return repositories{
			sports:    memory.NewSportRepository(cfg.Sports),
			fixtures:  memory.NewFixtureRepository(),
			matches:   memory.NewMatchRepository(),
			scores:    memory.NewScoreRepository(),
			details:   memory.NewMatchDetailRepository(),
			raw:       memory.NewRawDataRepository(),
			dispatches: memory.NewJobDispatchRepository(),
		}, nil
	}

	db, err := openDB(ctx, cfg)
	if err != nil {
		return repositories{}, err
	}
	a.onClose(func(context.Context) error { return db.Close() })
	checks["postgres"] = db.PingContext

	sports := postgres.NewSportRepository(db)
	for _, item := range cfg.Sports {
		if _, err := sports.Upsert(ctx, item); err != nil {
			return repositories{}, fmt.Errorf("seed sport %s: %w", item.Slug, err)
		}
	}

	return repositories{
		sports:    sports,
		fixtures:  postgres.NewFixtureRepository(db),
		matches:   postgres.NewMatchRepository(db),
		scores:    postgres.NewScoreRepository(db),
		details:   postgres.NewMatchDetailRepository(db),
		raw:       postgres.NewRawDataRepository(db),
		dispatches: postgres.NewJobDispatchRepository(db),
	}, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := DatabaseURL(cfg)
	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(dbNameFromURL(dsn)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	otelsql.ReportDBStatsMetrics(db.DB)
	return db, nil
}

func (a *App) buildQueue(cfg config.Config, dispatcher *jobqueue.Dispatcher, audit jobscheduler.Repository) (usecase.JobQueue, error) {
	ids := id.NewUUIDGenerator()
	switch cfg.QueueDriver {
	case config.QueueDriverQStash:
		queue, err := jobqueue.NewQStashQueue(jobqueue.QStashConfig{
			BaseURL:          cfg.QStashBaseURL,
			Token:            cfg.QStashToken,
			TargetBaseURL:    cfg.QStashTargetBaseURL,
			InternalJobToken: cfg.InternalJobToken,
			Publish:          resilience.RetryPolicy{Attempts: cfg.QStashPublishRetries, Delay: 500 * time.Millisecond},
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.QStashCircuitEnabled,
				FailureThreshold: cfg.QStashCircuitFailureCount,
				OpenTimeout:      cfg.QStashCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.QStashCircuitHalfOpenMaxReq,
			},
		}, audit, ids, a.logger)
		if err != nil {
			return nil, fmt.Errorf("build qstash queue: %w", err)
		}
		return queue, nil
	default:
		queue, err := jobqueue.NewMemoryQueue(dispatcher, ids, jobqueue.MemoryQueueConfig{Workers: cfg.QueueWorkers}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("start memory queue: %w", err)
		}
		a.onClose(queue.Stop)
		return queue, nil
	}
}

func (a *App) buildNotifier(cfg config.Config, redisClient *redis.Client) (*notify.Hub, usecase.ChangeNotifier, error) {
	var (
		hub   *notify.Hub
		sinks []usecase.ChangeNotifier
	)
	for _, driver := range cfg.NotifyDrivers {
		switch driver {
		case config.NotifyDriverLog:
			sinks = append(sinks, notify.NewLogNotifier(a.logger))
		case config.NotifyDriverRedis:
			if redisClient == nil {
				return nil, nil, fmt.Errorf("redis notify sink needs REDIS_URL")
			}
			sinks = append(sinks, notify.NewRedisStreamNotifier(redisClient, cfg.NotifyStream, cfg.NotifyStreamMaxLen))
		case config.NotifyDriverKafka:
			kafka, err := notify.NewKafkaNotifier(notify.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
			if err != nil {
				return nil, nil, err
			}
			a.onClose(func(context.Context) error { return kafka.Close() })
			sinks = append(sinks, kafka)
		case config.NotifyDriverWebSocket:
			hub = notify.NewHub(cfg.WSAllowedOrigins, a.logger)
			a.onClose(func(context.Context) error {
				hub.Close()
				return nil
			})
			sinks = append(sinks, hub)
		}
	}
	if len(sinks) == 1 {
		return hub, sinks[0], nil
	}
	return hub, notify.NewFanout(sinks...), nil
}
