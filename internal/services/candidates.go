package services

import (
	"context"

	"github.com/sirupsen/logrus"
)

// CandidateService supplies the pool of movies to be scored. Both sources are
// best-effort: a provider failure produces an empty pool, never an error.
type CandidateService struct {
	provider MetadataProvider
	logger   *logrus.Logger
}

func NewCandidateService(provider MetadataProvider, logger *logrus.Logger) *CandidateService {
	return &CandidateService{
		provider: provider,
		logger:   logger,
	}
}

// Popular returns up to count ids from one page of the provider's popular
// listing, in provider order. The provider's popularity ordering is trusted
// as-is.
func (s *CandidateService) Popular(ctx context.Context, count int) []int {
	summaries, err := s.provider.PopularMovies(ctx, 1)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to fetch popular movies, candidate pool is empty")
		return nil
	}

	if count > 0 && len(summaries) > count {
		summaries = summaries[:count]
	}

	ids := make([]int, 0, len(summaries))
	for _, summary := range summaries {
		ids = append(ids, summary.ID)
	}

	return ids
}

// Search issues one query per term and collects the result ids, deduplicated.
// First-seen order is kept so callers get a deterministic pool.
func (s *CandidateService) Search(ctx context.Context, terms []string) []int {
	seen := make(map[int]struct{})
	var ids []int

	for _, term := range terms {
		summaries, err := s.provider.SearchMovies(ctx, term)
		if err != nil {
			s.logger.WithError(err).WithField("term", term).
				Warn("Search candidates unavailable for term")
			continue
		}

		for _, summary := range summaries {
			if _, ok := seen[summary.ID]; ok {
				continue
			}
			seen[summary.ID] = struct{}{}
			ids = append(ids, summary.ID)
		}
	}

	return ids
}
