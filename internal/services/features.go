package services

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/filmatch/filmatch/internal/metrics"
	"github.com/filmatch/filmatch/internal/tmdb"
	"github.com/filmatch/filmatch/pkg/models"
)

// FeatureService memoizes per-movie feature records for the lifetime of the
// process. The cache is append-only: records are inserted once fully built
// and never evicted, so concurrent readers never observe partial state.
// Concurrent misses for the same id may both fetch; the duplicate work is
// bounded by profile and pool sizes, and identical records make the last
// write indistinguishable from the first.
type FeatureService struct {
	provider    MetadataProvider
	logger      *logrus.Logger
	concurrency int

	mu    sync.RWMutex
	cache map[int]*models.MovieFeatures
}

func NewFeatureService(provider MetadataProvider, concurrency int, logger *logrus.Logger) *FeatureService {
	if concurrency <= 0 {
		concurrency = 8
	}

	return &FeatureService{
		provider:    provider,
		logger:      logger,
		concurrency: concurrency,
		cache:       make(map[int]*models.MovieFeatures),
	}
}

// Features returns the feature record for a movie, fetching and caching it on
// first use. The second return is false when the movie is unknown to the
// provider or the fetch failed; callers exclude such movies from
// consideration rather than treating absence as an error.
func (s *FeatureService) Features(ctx context.Context, movieID int) (*models.MovieFeatures, bool) {
	s.mu.RLock()
	record, ok := s.cache[movieID]
	s.mu.RUnlock()
	if ok {
		metrics.FeatureCacheHits.Inc()
		return record, true
	}

	metrics.FeatureCacheMisses.Inc()

	movie, err := s.provider.MovieDetails(ctx, movieID)
	if err != nil {
		s.logger.WithError(err).WithField("movie_id", movieID).
			Debug("Movie metadata unavailable, excluding from consideration")
		return nil, false
	}

	record = buildFeatureRecord(movie)

	s.mu.Lock()
	s.cache[movieID] = record
	s.mu.Unlock()

	return record, true
}

// BuildFeatureMatrix maps Features over the input ids, silently dropping any
// id that resolves to absent metadata. Output order follows input order so
// downstream tie-breaking stays deterministic. Fetches run in parallel up to
// the configured concurrency; this is a throughput optimization only.
func (s *FeatureService) BuildFeatureMatrix(ctx context.Context, movieIDs []int) []*models.MovieFeatures {
	results := make([]*models.MovieFeatures, len(movieIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range movieIDs {
		i, id := i, id
		g.Go(func() error {
			if record, ok := s.Features(gctx, id); ok {
				results[i] = record
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; absence is encoded as a nil slot

	features := make([]*models.MovieFeatures, 0, len(movieIDs))
	for _, record := range results {
		if record != nil {
			features = append(features, record)
		}
	}

	return features
}

// CachedCount reports how many records the cache holds.
func (s *FeatureService) CachedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func buildFeatureRecord(movie *tmdb.Movie) *models.MovieFeatures {
	genreNames := make([]string, 0, len(movie.Genres))
	genreIDs := make([]int, 0, len(movie.Genres))
	for _, genre := range movie.Genres {
		genreNames = append(genreNames, genre.Name)
		genreIDs = append(genreIDs, genre.ID)
	}

	keywordNames := make([]string, 0, len(movie.Keywords.Keywords))
	for _, kw := range movie.Keywords.Keywords {
		keywordNames = append(keywordNames, kw.Name)
	}

	return &models.MovieFeatures{
		ID:           movie.ID,
		Title:        movie.Title,
		Genres:       strings.Join(genreNames, " "),
		Keywords:     strings.Join(keywordNames, " "),
		Popularity:   movie.Popularity,
		VoteAverage:  movie.VoteAverage,
		PosterPath:   movie.PosterPath,
		BackdropPath: movie.BackdropPath,
		Overview:     movie.Overview,
		ReleaseDate:  movie.ReleaseDate,
		GenreIDs:     genreIDs,
	}
}
