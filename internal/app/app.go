package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnpath-backend/internal/data/aggregates"
	pathrepos "github.com/yungbote/learnpath-backend/internal/data/repos/learningpath"
	apphttp "github.com/yungbote/learnpath-backend/internal/http"
	httpH "github.com/yungbote/learnpath-backend/internal/http/handlers"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/embed"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/persist"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/plan"
	"github.com/yungbote/learnpath-backend/internal/modules/pathgen/search"
	"github.com/yungbote/learnpath-backend/internal/platform/envutil"
	"github.com/yungbote/learnpath-backend/internal/platform/logger"
	"github.com/yungbote/learnpath-backend/internal/platform/retry"
)

type App struct {
	Log      *logger.Logger
	Cfg      Config
	Clients  *Clients
	Pipeline *pathgen.Pipeline
	Router   *gin.Engine
}

// New loads configuration, opens every client and wires the pipeline and
// router. It is meant to run once per process (or Lambda cold start).
func New(ctx context.Context) (*App, error) {
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clients := NewClients(log, cfg)
	if err := clients.Open(ctx); err != nil {
		log.Sync()
		return nil, err
	}

	pipeline := wirePipeline(log, cfg, clients)
	reader := persist.NewReader(log, pathrepos.NewPathRepo(clients.DB, log), pathrepos.NewCourseProgressRepo(clients.DB, log))
	router := wireRouter(log, cfg, pipeline, reader)

	return &App{
		Log:      log,
		Cfg:      cfg,
		Clients:  clients,
		Pipeline: pipeline,
		Router:   router,
	}, nil
}

func wirePipeline(log *logger.Logger, cfg Config, clients *Clients) *pathgen.Pipeline {
	log.Info("Wiring pipeline...")
	inv := retry.New(log)

	opts := []embed.Option{
		embed.WithInvoker(inv),
		embed.WithCacheSize(cfg.EmbeddingCacheSize),
		embed.WithMetrics(clients.Metrics),
		embed.WithModel(clients.EmbeddingModel),
	}
	if clients.Cache != nil {
		opts = append(opts, embed.WithSharedCache(clients.Cache))
	}

	paths := pathrepos.NewPathRepo(clients.DB, log)
	progress := pathrepos.NewCourseProgressRepo(clients.DB, log)

	return pathgen.NewPipeline(pathgen.Deps{
		Log:      log,
		Embedder: embed.NewCachedEmbedder(log, clients.LLM, opts...),
		Searcher: search.NewEngine(log, clients.Store),
		Planner:  plan.NewOrchestrator(log, clients.LLM, inv),
		Store:    persist.NewPersistor(log, aggregates.NewGormTxRunner(clients.DB), paths, progress),
		Metrics:  clients.Metrics,
		Invoker:  inv,
	}, cfg.PipelineConfig())
}

func wireRouter(log *logger.Logger, cfg Config, pipeline *pathgen.Pipeline, reader *persist.Reader) *gin.Engine {
	return apphttp.NewRouter(apphttp.RouterConfig{
		Log:            log,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		PathHandler:    httpH.NewPathHandler(log, pipeline, reader),
		HealthHandler:  httpH.NewHealthHandler(),
	})
}

// Run serves HTTP on cfg.Port until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := &apphttp.Server{Engine: a.Router}
	a.Log.Info("http_server_starting", "port", a.Cfg.Port)
	return srv.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.Clients != nil {
		if err := a.Clients.Close(ctx); err != nil && a.Log != nil {
			a.Log.Warn("clients_close_failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
