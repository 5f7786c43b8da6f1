// Package app is the composition root: bootstrap stays orchestration-only.
package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/riverqueue/river"

	"cleanedge.io/forms/internal/api/handlers"
	"cleanedge.io/forms/internal/config"
	"cleanedge.io/forms/internal/forms"
	"cleanedge.io/forms/internal/infrastructure"
	"cleanedge.io/forms/internal/jobs"
	"cleanedge.io/forms/internal/mailer"
	"cleanedge.io/forms/internal/observe"
	"cleanedge.io/forms/internal/pkg/logger"
	"cleanedge.io/forms/internal/pkg/worker"
	"cleanedge.io/forms/internal/ratelimit"
	"cleanedge.io/forms/internal/storage"
	"cleanedge.io/forms/internal/submission"
)

// Application holds composed application dependencies.
type Application struct {
	Config *config.Config
	Router *gin.Engine
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools

	limiter *ratelimit.Limiter
	sink    observe.Sink
}

// Bootstrap initializes all dependencies using manual DI.
func Bootstrap(ctx context.Context, cfg *config.Config) (*Application, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		GeneralPoolSize: cfg.Worker.GeneralPoolSize,
		MailPoolSize:    cfg.Worker.MailPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	sink, err := newSink(cfg, pools)
	if err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init sink: %w", err)
	}

	redisClient, limiter, err := newLimiter(ctx, cfg)
	if err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, jobs.NewSubmissionRetentionWorker(db.Pool, cfg.Retention.Period))
	var periodic []*river.PeriodicJob
	if cfg.Retention.Enabled {
		periodic = jobs.PeriodicJobs()
	}
	if err := db.InitRiverClient(workers, periodic); err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init river: %w", err)
	}

	server, err := handlers.NewServer(handlers.ServerDeps{
		Forms: forms.Deps{
			Cfg:   cfg,
			Store: storage.NewStore(db.Pool),
			Mail:  newGateway(cfg.Mail),
			Pools: pools,
			Pipeline: submission.Deps{
				Limiter:  limiter,
				Validate: submission.NewValidator(),
				Sink:     sink,
			},
		},
		Pool:  db.Pool,
		Redis: redisClient,
	})
	if err != nil {
		pools.Shutdown()
		db.Close()
		return nil, fmt.Errorf("init server: %w", err)
	}

	return &Application{
		Config:  cfg,
		Router:  newRouter(cfg, server, sink),
		DB:      db,
		Pools:   pools,
		limiter: limiter,
		sink:    sink,
	}, nil
}

// newSink picks the error sink: Sentry when a DSN is configured, plain
// structured logging otherwise.
func newSink(cfg *config.Config, pools *worker.Pools) (observe.Sink, error) {
	if cfg.Sentry.DSN == "" {
		return observe.NewLogSink(pools), nil
	}
	return observe.NewSentrySink(cfg.Sentry, pools)
}

// newLimiter builds the rate-limit store for the configured backend. The
// redis client is returned alongside so health checks can ping it.
func newLimiter(ctx context.Context, cfg *config.Config) (*redis.Client, *ratelimit.Limiter, error) {
	if cfg.RateLimit.Backend == "redis" {
		client, err := infrastructure.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		store, err := ratelimit.NewRedisStore(client)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return client, ratelimit.New(store), nil
	}
	return nil, ratelimit.New(ratelimit.NewMemoryStore(cfg.RateLimit.SweepInterval)), nil
}

// newGateway returns the SMTP gateway, or a no-op one when outbound mail
// is disabled.
func newGateway(cfg config.MailConfig) mailer.Gateway {
	if !cfg.Enabled {
		logger.Info("Outbound mail disabled, notifications will be logged only")
		return mailer.NopGateway{}
	}
	return mailer.NewSMTPGateway(cfg)
}
