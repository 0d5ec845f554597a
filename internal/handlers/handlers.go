package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/services"
)

type Handlers struct {
	Recommendation *RecommendationHandler
	Health         *HealthHandler
}

func New(logger *logrus.Logger, svcs *services.Services) *Handlers {
	return &Handlers{
		Recommendation: NewRecommendationHandler(svcs.Recommendation, logger),
		Health:         NewHealthHandler(logger, svcs.Health),
	}
}
