package services

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/config"
)

type Services struct {
	Features       *FeatureService
	Candidates     *CandidateService
	Scorer         *SimilarityScorer
	Recommendation *RecommendationService
	Health         *HealthService
}

func New(cfg *config.Config, logger *logrus.Logger, provider MetadataProvider, redisClient *redis.Client) *Services {
	featureService := NewFeatureService(provider, cfg.Recommendation.FetchConcurrency, logger)
	candidateService := NewCandidateService(provider, logger)
	scorer := NewSimilarityScorer(&cfg.Recommendation)

	recommendationService := NewRecommendationService(
		featureService, candidateService, scorer,
		redisClient, &cfg.Recommendation, logger,
	)

	healthService := NewHealthService(cfg, logger, redisClient)

	return &Services{
		Features:       featureService,
		Candidates:     candidateService,
		Scorer:         scorer,
		Recommendation: recommendationService,
		Health:         healthService,
	}
}
