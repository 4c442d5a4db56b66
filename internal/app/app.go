package app

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"cranewatch/internal/config"
	"cranewatch/internal/db"
	"cranewatch/internal/ingest"
	"cranewatch/internal/mqtt"
	"cranewatch/internal/notify"
	"cranewatch/internal/redispkg"
	"cranewatch/internal/repository"
)

// ingestStore satisfies ingest.Store from the underlying repositories.
type ingestStore struct {
	*repository.CraneRepository
	*repository.MeasurementRepository
}

// App wires the ingestion daemon: MQTT in, Postgres out, redis
// notifications on the side.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	pool     *sql.DB
	redis    *redis.Client
	cranes   *repository.CraneRepository
	capacity *ingest.CapacityCache
	pipeline *ingest.Pipeline
}

// New constructs the daemon's components.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	redisClient, err := redispkg.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		pool.Close()
		return nil, err
	}

	craneRepo := repository.NewCraneRepository(pool)
	measurementRepo := repository.NewMeasurementRepository(pool)
	configRepo := repository.NewConfigRepository(pool)

	capacity := ingest.NewCapacityCache(configRepo, logger)
	publisher := notify.NewPublisher(redisClient, logger)
	pipeline := ingest.NewPipeline(
		ingestStore{craneRepo, measurementRepo},
		capacity,
		publisher,
		logger,
	)

	return &App{
		cfg:      cfg,
		logger:   logger,
		pool:     pool,
		redis:    redisClient,
		cranes:   craneRepo,
		capacity: capacity,
		pipeline: pipeline,
	}, nil
}

// Run connects to the broker, subscribes every active crane topic and
// blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	cranes, err := a.cranes.ActiveCranes(ctx)
	if err != nil {
		return err
	}
	a.capacity.Preload(ctx, cranes)

	bindings, err := a.cranes.ActiveBindings(ctx)
	if err != nil {
		return err
	}

	client, err := mqtt.NewClient(a.cfg.MQTT.Broker, a.cfg.MQTT.ClientID,
		a.cfg.MQTT.Username, a.cfg.MQTT.Password, a.logger)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := mqtt.SubscribeBindings(ctx, client, bindings, a.pipeline.Ingest, a.logger); err != nil {
		return err
	}

	a.logger.Info("ingestor running",
		zap.Int("cranes", len(cranes)), zap.Int("topics", len(bindings)))
	<-ctx.Done()
	return ctx.Err()
}

// Close releases resources.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
