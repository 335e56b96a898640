package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cinelake/cinelake-backend/internal/handlers"
)

type RouterConfig struct {
	SeedHandler   *handlers.SeedHandler
	BronzeHandler *handlers.BronzeHandler
	GoldHandler   *handlers.GoldHandler
	SearchHandler *handlers.SearchHandler
	RunsHandler   *handlers.RunsHandler
	Registry      *prometheus.Registry
	AllowOrigins  []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	if cfg.Registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
	}

	// Seed ingest
	router.POST("/seed", cfg.SeedHandler.Upload)

	// Bronze CRUD
	router.GET("/raw/data", cfg.BronzeHandler.List)
	router.POST("/raw/data", cfg.BronzeHandler.Create)
	router.GET("/raw/data/:key", cfg.BronzeHandler.Get)
	router.PUT("/raw/data/:key", cfg.BronzeHandler.Update)
	router.DELETE("/raw/data/:key", cfg.BronzeHandler.Delete)

	// Gold reads
	router.GET("/gold/revenue_by_genre", cfg.GoldHandler.RevenueByGenre)
	router.GET("/gold/avg_score_by_year", cfg.GoldHandler.AvgScoreByYear)

	// Search
	router.GET("/search", cfg.SearchHandler.Search)

	// Pipeline runs
	router.POST("/etl/runs", cfg.RunsHandler.TriggerRun)
	router.GET("/etl/runs/:id", cfg.RunsHandler.GetRun)
	router.GET("/etl/runs/:id/status", cfg.RunsHandler.GetRunStatus)

	return router
}
