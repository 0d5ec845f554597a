package services

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/filmatch/filmatch/internal/config"
	"github.com/filmatch/filmatch/internal/metrics"
	"github.com/filmatch/filmatch/pkg/models"
)

// Section keys of the personalized view. Each section is generated
// independently and omitted when its source signal is empty.
const (
	SectionBasedOnLikes       = "based_on_likes"
	SectionBasedOnLastLiked   = "based_on_last_liked"
	SectionBasedOnWatched     = "based_on_watched"
	SectionBasedOnLastWatched = "based_on_last_watched"
	SectionBasedOnHighRated   = "based_on_high_rated"
)

// RecommendationService orchestrates feature extraction, candidate supply,
// scoring, ranking and section assembly. Nothing here is fatal: a failed
// metadata fetch drops that movie, an empty profile yields an empty result.
type RecommendationService struct {
	features   FeatureSource
	candidates CandidateSource
	scorer     *SimilarityScorer
	redis      *redis.Client // optional warm cache for assembled sections
	config     *config.RecommendationConfig
	logger     *logrus.Logger
}

func NewRecommendationService(
	features FeatureSource,
	candidates CandidateSource,
	scorer *SimilarityScorer,
	redisClient *redis.Client,
	cfg *config.RecommendationConfig,
	logger *logrus.Logger,
) *RecommendationService {
	return &RecommendationService{
		features:   features,
		candidates: candidates,
		scorer:     scorer,
		redis:      redisClient,
		config:     cfg,
		logger:     logger,
	}
}

// Rank scores every candidate against every target, keeps the best match per
// candidate, and returns the top scorers in descending order.
//
// A candidate whose id appears in targetIDs is always excluded, a movie never
// recommends itself back. Candidates or targets with absent metadata are
// silently dropped. Only strictly positive maxima survive; ties keep
// candidate pool order (stable sort, no secondary key).
func (s *RecommendationService) Rank(ctx context.Context, targetIDs, candidateIDs []int, limit int) []models.RecommendationItem {
	limit = s.clampLimit(limit)

	timer := prometheus.NewTimer(metrics.RankingDuration)
	defer timer.ObserveDuration()

	targets := s.features.BuildFeatureMatrix(ctx, targetIDs)
	if len(targets) == 0 {
		return nil
	}

	excluded := make(map[int]struct{}, len(targetIDs))
	for _, id := range targetIDs {
		excluded[id] = struct{}{}
	}

	candidates := s.features.BuildFeatureMatrix(ctx, candidateIDs)

	items := make([]models.RecommendationItem, 0, len(candidates))
	for _, candidate := range candidates {
		if _, ok := excluded[candidate.ID]; ok {
			continue
		}

		var best float64
		for _, target := range targets {
			if score := s.scorer.Score(target, candidate); score > best {
				best = score
			}
		}

		if best > 0 {
			items = append(items, recommendationItem(candidate, best))
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SimilarityScore > items[j].SimilarityScore
	})

	if len(items) > limit {
		items = items[:limit]
	}

	return items
}

// InitialRecommendations ranks the popular pool (extended by search-term
// candidates when terms are supplied) against the selected movies.
func (s *RecommendationService) InitialRecommendations(ctx context.Context, selectedIDs []int, searchTerms []string, limit int) []models.RecommendationItem {
	if len(selectedIDs) == 0 {
		return nil
	}

	log := s.logger.WithField("request_id", uuid.NewString())

	pool := s.candidatePool(ctx, searchTerms)
	items := s.Rank(ctx, selectedIDs, pool, limit)

	log.WithFields(logrus.Fields{
		"targets":    len(selectedIDs),
		"candidates": len(pool),
		"results":    len(items),
	}).Debug("Initial recommendations generated")

	metrics.RecommendationsGenerated.WithLabelValues("initial").Add(float64(len(items)))

	return items
}

// UpdateRecommendations folds a new interaction into the profile and reruns
// the same pipeline; there is no separate incremental path. Appending an id
// already in the profile is a no-op, so the call is idempotent per movie.
func (s *RecommendationService) UpdateRecommendations(ctx context.Context, profileIDs []int, newMovieID int, searchTerms []string, limit int) []models.RecommendationItem {
	combined := profileIDs
	if !containsID(profileIDs, newMovieID) {
		combined = make([]int, 0, len(profileIDs)+1)
		combined = append(combined, profileIDs...)
		combined = append(combined, newMovieID)
	}

	return s.InitialRecommendations(ctx, combined, searchTerms, limit)
}

// PersonalizedSections builds one ranked section per available profile
// signal. The candidate pool is assembled once and shared across sections.
func (s *RecommendationService) PersonalizedSections(ctx context.Context, profile *models.UserProfile, limit int) map[string]models.RecommendationSection {
	limit = s.clampLimit(limit)

	cacheKey := s.sectionsCacheKey(profile, limit)
	if cached := s.cachedSections(ctx, cacheKey); cached != nil {
		return cached
	}

	log := s.logger.WithField("request_id", uuid.NewString())
	pool := s.candidatePool(ctx, profile.SearchHistory)

	sections := make(map[string]models.RecommendationSection)

	if len(profile.LikedMovies) > 0 {
		sections[SectionBasedOnLikes] = models.RecommendationSection{
			Label:           "Based on movies you liked",
			ReferenceMovies: profile.LikedMovies,
			Movies:          s.Rank(ctx, profile.LikedMovies, pool, limit),
		}

		// Last element of a caller-supplied list is the most recent like.
		lastLiked := profile.LikedMovies[len(profile.LikedMovies)-1]
		sections[SectionBasedOnLastLiked] = models.RecommendationSection{
			Label:           fmt.Sprintf("Because you liked %s", s.movieLabel(ctx, lastLiked)),
			ReferenceMovies: []int{lastLiked},
			Movies:          s.Rank(ctx, []int{lastLiked}, pool, limit),
		}
	}

	if len(profile.WatchedMovies) > 0 {
		sections[SectionBasedOnWatched] = models.RecommendationSection{
			Label:           "Based on movies you watched",
			ReferenceMovies: profile.WatchedMovies,
			Movies:          s.Rank(ctx, profile.WatchedMovies, pool, limit),
		}

		lastWatched := profile.WatchedMovies[len(profile.WatchedMovies)-1]
		sections[SectionBasedOnLastWatched] = models.RecommendationSection{
			Label:           fmt.Sprintf("Because you watched %s", s.movieLabel(ctx, lastWatched)),
			ReferenceMovies: []int{lastWatched},
			Movies:          s.Rank(ctx, []int{lastWatched}, pool, limit),
		}
	}

	if len(profile.RatedMovies) > 0 {
		best := profile.RatedMovies[0]
		for _, rated := range profile.RatedMovies[1:] {
			if rated.Rating > best.Rating {
				best = rated
			}
		}

		sections[SectionBasedOnHighRated] = models.RecommendationSection{
			Label:           fmt.Sprintf("Because you rated %s highly", s.movieLabel(ctx, best.MovieID)),
			ReferenceMovies: []int{best.MovieID},
			Movies:          s.Rank(ctx, []int{best.MovieID}, pool, limit),
		}
	}

	log.WithFields(logrus.Fields{
		"sections":   len(sections),
		"candidates": len(pool),
	}).Debug("Personalized sections generated")

	for key, section := range sections {
		metrics.RecommendationsGenerated.WithLabelValues(key).Add(float64(len(section.Movies)))
	}

	s.cacheSections(ctx, cacheKey, sections)

	return sections
}

// candidatePool is the popular page, extended by search-term results when the
// profile carries search history. Popular ids come first so stable
// tie-breaking favors the provider's ordering.
func (s *RecommendationService) candidatePool(ctx context.Context, searchTerms []string) []int {
	pool := s.candidates.Popular(ctx, s.config.CandidatePool)

	if len(searchTerms) == 0 {
		return pool
	}

	seen := make(map[int]struct{}, len(pool))
	for _, id := range pool {
		seen[id] = struct{}{}
	}

	for _, id := range s.candidates.Search(ctx, searchTerms) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pool = append(pool, id)
	}

	return pool
}

func (s *RecommendationService) clampLimit(limit int) int {
	if limit <= 0 {
		limit = s.config.DefaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if max := s.config.MaxLimit; max > 0 && limit > max {
		limit = max
	}
	return limit
}

// movieLabel resolves a title for section labels, falling back to a generic
// phrase when the movie's metadata is absent.
func (s *RecommendationService) movieLabel(ctx context.Context, movieID int) string {
	if record, ok := s.features.Features(ctx, movieID); ok && record.Title != "" {
		return record.Title
	}
	return "a recent pick"
}

func (s *RecommendationService) sectionsCacheKey(profile *models.UserProfile, limit int) string {
	payload, err := json.Marshal(struct {
		*models.UserProfile
		Limit int `json:"limit"`
	}{profile, limit})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("sections:%x", sha256.Sum256(payload))
}

func (s *RecommendationService) cachedSections(ctx context.Context, key string) map[string]models.RecommendationSection {
	if s.redis == nil || key == "" {
		return nil
	}

	cached, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return nil
	}

	var sections map[string]models.RecommendationSection
	if err := json.Unmarshal([]byte(cached), &sections); err != nil {
		return nil
	}

	s.logger.WithField("key", key).Debug("Personalized sections cache hit")
	return sections
}

func (s *RecommendationService) cacheSections(ctx context.Context, key string, sections map[string]models.RecommendationSection) {
	if s.redis == nil || key == "" {
		return
	}

	data, err := json.Marshal(sections)
	if err != nil {
		return
	}

	if err := s.redis.Set(ctx, key, data, s.config.ResultsTTL).Err(); err != nil {
		s.logger.WithError(err).Warn("Failed to cache personalized sections")
	}
}

func recommendationItem(candidate *models.MovieFeatures, score float64) models.RecommendationItem {
	return models.RecommendationItem{
		MovieID:         candidate.ID,
		Title:           candidate.Title,
		SimilarityScore: score,
		VoteAverage:     candidate.VoteAverage,
		Popularity:      candidate.Popularity,
		PosterPath:      candidate.PosterPath,
		BackdropPath:    candidate.BackdropPath,
		Overview:        candidate.Overview,
		ReleaseDate:     candidate.ReleaseDate,
		GenreIDs:        candidate.GenreIDs,
	}
}

func containsID(ids []int, id int) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}
