package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"gorm.io/gorm"

	"github.com/yungbote/learnpath-backend/internal/data/db"
	"github.com/yungbote/learnpath-backend/internal/observability"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/rediscache"
)

// MetricsSink is a Recorder that can be drained.
type MetricsSink interface {
	observability.Recorder
	Flush(ctx context.Context) error
	Close(ctx context.Context) error
}

type nopSink struct{ observability.NopRecorder }

func (nopSink) Flush(context.Context) error { return nil }
func (nopSink) Close(context.Context) error { return nil }

type clientOpeners struct {
	store    func(log *logger.Logger, cfg Config) (CourseStore, error)
	llm      func(ctx context.Context, log *logger.Logger, cfg Config) (LLM, string, error)
	postgres func(ctx context.Context, log *logger.Logger, cfg db.PostgresConfig) (*gorm.DB, func() error, error)
	cache    func(ctx context.Context, log *logger.Logger, cfg Config) (*rediscache.VectorCache, error)
	metrics  func(ctx context.Context, log *logger.Logger, cfg Config) (MetricsSink, error)
	otel     func(ctx context.Context, log *logger.Logger, cfg observability.OtelConfig) func(context.Context) error
}

func defaultOpeners() clientOpeners {
	return clientOpeners{
		store: resolveCourseStore,
		llm:   resolveLLM,
		postgres: func(ctx context.Context, log *logger.Logger, cfg db.PostgresConfig) (*gorm.DB, func() error, error) {
			svc, err := db.NewPostgresService(ctx, log, cfg)
			if err != nil {
				return nil, nil, err
			}
			return svc.DB(), svc.Close, nil
		},
		cache: func(ctx context.Context, log *logger.Logger, cfg Config) (*rediscache.VectorCache, error) {
			if cfg.RedisAddr == "" {
				return nil, nil
			}
			return rediscache.New(ctx, log, rediscache.Config{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				TTL:      cfg.RedisTTL,
			})
		},
		metrics: func(ctx context.Context, log *logger.Logger, cfg Config) (MetricsSink, error) {
			if !cfg.MetricsEnabled {
				return nopSink{}, nil
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
			if err != nil {
				return nil, fmt.Errorf("load aws config: %w", err)
			}
			return observability.NewEmitter(log, cloudwatch.NewFromConfig(awsCfg), observability.EmitterConfig{
				Namespace:  cfg.MetricsNamespace,
				Dimensions: map[string]string{"Environment": cfg.Environment},
			}), nil
		},
		otel: observability.InitOTel,
	}
}

// Clients owns every external connection. Open is idempotent and safe for
// concurrent use; a failed Open keeps returning the same error.
type Clients struct {
	log *logger.Logger
	cfg Config

	openOnce  sync.Once
	openErr   error
	closeOnce sync.Once
	closeErr  error
	openers   clientOpeners

	Store          CourseStore
	LLM            LLM
	EmbeddingModel string
	DB             *gorm.DB
	Cache          *rediscache.VectorCache
	Metrics        MetricsSink

	closeDB      func() error
	otelShutdown func(context.Context) error
}

func NewClients(log *logger.Logger, cfg Config) *Clients {
	return &Clients{
		log:     log.With("service", "Clients"),
		cfg:     cfg,
		openers: defaultOpeners(),
		Metrics: nopSink{},
	}
}

func (c *Clients) Open(ctx context.Context) error {
	c.openOnce.Do(func() {
		c.openErr = c.open(ctx)
		if c.openErr != nil {
			c.log.Error("clients_open_failed", "error", c.openErr)
			c.release(context.Background())
		}
	})
	return c.openErr
}

func (c *Clients) open(ctx context.Context) error {
	c.log.Info("Wiring clients...")
	c.otelShutdown = c.openers.otel(ctx, c.log, c.cfg.OTel)

	metrics, err := c.openers.metrics(ctx, c.log, c.cfg)
	if err != nil {
		c.log.Warn("metrics disabled", "error", err)
	} else {
		c.Metrics = metrics
	}

	store, err := c.openers.store(c.log, c.cfg)
	if err != nil {
		return err
	}
	if err := store.Open(ctx); err != nil {
		return err
	}
	c.Store = store

	llm, model, err := c.openers.llm(ctx, c.log, c.cfg)
	if err != nil {
		return err
	}
	c.LLM, c.EmbeddingModel = llm, model

	gdb, closeDB, err := c.openers.postgres(ctx, c.log, c.cfg.Postgres)
	if err != nil {
		return fmt.Errorf("init postgres: %w", err)
	}
	c.DB, c.closeDB = gdb, closeDB

	cache, err := c.openers.cache(ctx, c.log, c.cfg)
	if err != nil {
		c.log.Warn("shared embedding cache unavailable; continuing with local cache only", "error", err)
	} else {
		c.Cache = cache
	}
	return nil
}

// FlushMetrics drains buffered metrics. It is called after each Lambda
// invocation.
func (c *Clients) FlushMetrics(ctx context.Context) {
	if c.Metrics == nil {
		return
	}
	if err := c.Metrics.Flush(ctx); err != nil {
		c.log.Warn("metric_flush_failed", "error", err)
	}
}

// Close releases every connection once. Later calls return the first result.
func (c *Clients) Close(ctx context.Context) error {
	c.closeOnce.Do(func() {
		c.closeErr = c.release(ctx)
	})
	return c.closeErr
}

func (c *Clients) release(ctx context.Context) error {
	var errs []error
	if c.Store != nil {
		if err := c.Store.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close vector store: %w", err))
		}
		c.Store = nil
	}
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
		c.Cache = nil
	}
	if c.closeDB != nil {
		if err := c.closeDB(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
		c.closeDB = nil
		c.DB = nil
	}
	if c.Metrics != nil {
		if err := c.Metrics.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close metrics: %w", err))
		}
	}
	if c.otelShutdown != nil {
		if err := c.otelShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown otel: %w", err))
		}
		c.otelShutdown = nil
	}
	return errors.Join(errs...)
}
