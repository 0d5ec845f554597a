package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/config"
	"github.com/filmatch/filmatch/internal/handlers"
	"github.com/filmatch/filmatch/internal/middleware"
	"github.com/filmatch/filmatch/internal/services"
	"github.com/filmatch/filmatch/internal/tmdb"
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	redis    *redis.Client
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	if cfg.TMDB.APIKey == "" {
		return nil, fmt.Errorf("tmdb api key is required")
	}

	// Optional warm cache for assembled results.
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts.MaxRetries = cfg.Redis.MaxRetries
		opts.PoolSize = cfg.Redis.PoolSize
		opts.ReadTimeout = cfg.Redis.Timeout
		app.redis = redis.NewClient(opts)
	}

	provider := tmdb.NewClient(&cfg.TMDB, app.logger)
	app.services = services.New(cfg, app.logger, provider, app.redis)
	app.handlers = handlers.New(app.logger, app.services)

	app.setupRouter()

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Error("Error closing redis client")
			return err
		}
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

func (a *App) setupRouter() {
	if a.config.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.Logger(a.logger))
	router.Use(middleware.Recovery(a.logger))
	router.Use(middleware.CORS(a.config))

	router.GET("/health", a.handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		recommendations := api.Group("/recommendations")
		{
			recommendations.POST("", a.handlers.Recommendation.Initial)
			recommendations.POST("/update", a.handlers.Recommendation.Update)
			recommendations.POST("/personalized", a.handlers.Recommendation.Personalized)
		}
	}

	a.router = router
}
