package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/config"
)

type HealthService struct {
	config *config.Config
	logger *logrus.Logger
	redis  *redis.Client
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func NewHealthService(cfg *config.Config, logger *logrus.Logger, redisClient *redis.Client) *HealthService {
	return &HealthService{
		config: cfg,
		logger: logger,
		redis:  redisClient,
	}
}

// CheckHealth reports liveness. The TMDB provider is probed lazily by real
// traffic, so only the optional redis cache is pinged here; a missing cache
// degrades the service but does not make it unhealthy.
func (s *HealthService) CheckHealth(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Services:  map[string]string{},
	}

	if s.redis == nil {
		status.Services["result_cache"] = "disabled"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.redis.Ping(pingCtx).Err(); err != nil {
		s.logger.WithError(err).Warn("Result cache ping failed")
		status.Status = "degraded"
		status.Services["result_cache"] = "unreachable"
	} else {
		status.Services["result_cache"] = "ok"
	}

	return status
}
