package app

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/cinelake/cinelake-backend/internal/db"
	"github.com/cinelake/cinelake-backend/internal/handlers"
	"github.com/cinelake/cinelake-backend/internal/identity"
	"github.com/cinelake/cinelake-backend/internal/observability"
	"github.com/cinelake/cinelake-backend/internal/platform/logger"
	"github.com/cinelake/cinelake-backend/internal/platform/typesense"
	"github.com/cinelake/cinelake-backend/internal/repos"
	"github.com/cinelake/cinelake-backend/internal/server"
	"github.com/cinelake/cinelake-backend/internal/services"
)

type Repos struct {
	Bronze repos.BronzeMovieRepo
	Runs   repos.PipelineRunRepo
}

type Services struct {
	Extractor  services.ExtractorService
	Bronze     services.BronzeService
	Loader     services.LoaderService
	SearchSync services.SearchSyncService
	Search     services.SearchService
	Gold       services.GoldService
	Pipeline   services.PipelineService
}

type App struct {
	Log      *logger.Logger
	Cfg      Config
	DB       *gorm.DB
	Router   *gin.Engine
	Repos    Repos
	Services Services
	watcher  *services.SeedWatcher
	cancel   context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg, err := LoadConfig(log)
	if err != nil {
		log.Sync()
		return nil, err
	}

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	searchClient, err := typesense.NewClient(log, typesense.ConfigFromEnv())
	if err != nil {
		log.Sync()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	reposet := Repos{
		Bronze: repos.NewBronzeMovieRepo(theDB, log),
		Runs:   repos.NewPipelineRunRepo(theDB, log),
	}

	assigner := identity.NewAssigner(identity.Mode(cfg.IdentityMode))
	redisClient := services.NewRedisClient(log)
	runStatus := services.NewRunStatusStore(redisClient, log)

	searchSync := services.NewSearchSyncService(reposet.Bronze, searchClient, log)
	loader := services.NewLoaderService(theDB, log)
	pipeline := services.NewPipelineService(reposet.Bronze, reposet.Runs, loader, searchSync, runStatus, metrics, log)
	bronze := services.NewBronzeService(reposet.Bronze, assigner, searchSync, pipeline, metrics, log)
	extractor := services.NewExtractorService(log)

	serviceset := Services{
		Extractor:  extractor,
		Bronze:     bronze,
		Loader:     loader,
		SearchSync: searchSync,
		Search:     services.NewSearchService(searchClient, log),
		Gold:       services.NewGoldService(theDB, log),
		Pipeline:   pipeline,
	}

	router := server.NewRouter(server.RouterConfig{
		SeedHandler:   handlers.NewSeedHandler(extractor, bronze),
		BronzeHandler: handlers.NewBronzeHandler(bronze),
		GoldHandler:   handlers.NewGoldHandler(serviceset.Gold),
		SearchHandler: handlers.NewSearchHandler(serviceset.Search),
		RunsHandler:   handlers.NewRunsHandler(pipeline),
		Registry:      registry,
		AllowOrigins:  cfg.AllowOrigins,
	})

	return &App{
		Log:      log,
		Cfg:      cfg,
		DB:       theDB,
		Router:   router,
		Repos:    reposet,
		Services: serviceset,
		watcher:  services.NewSeedWatcher(cfg.SeedDir, extractor, bronze, log),
	}, nil
}

// Start launches the seed directory watcher. The HTTP listener is run by
// the caller so tests can drive the router directly.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	return a.watcher.Start(ctx)
}

func (a *App) Run() error {
	if err := a.Start(); err != nil {
		return err
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	if err := a.Router.Run(a.Cfg.HTTPAddr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Stop() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Log.Sync()
}
