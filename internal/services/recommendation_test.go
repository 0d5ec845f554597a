package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmatch/filmatch/internal/config"
	"github.com/filmatch/filmatch/internal/tmdb"
	"github.com/filmatch/filmatch/pkg/models"
)

func testRecommendationConfig() *config.RecommendationConfig {
	return &config.RecommendationConfig{
		TextWeight:       0.5,
		PopularityWeight: 0.2,
		RatingWeight:     0.3,
		CandidatePool:    100,
		DefaultLimit:     20,
		MaxLimit:         50,
		FetchConcurrency: 4,
		ResultsTTL:       time.Minute,
	}
}

func newTestEngine(provider *fakeProvider, redisClient *redis.Client) *RecommendationService {
	cfg := testRecommendationConfig()
	logger := testLogger()

	return NewRecommendationService(
		NewFeatureService(provider, cfg.FetchConcurrency, logger),
		NewCandidateService(provider, logger),
		NewSimilarityScorer(cfg),
		redisClient,
		cfg,
		logger,
	)
}

// seedCatalog populates a small catalog: one profile movie and a candidate
// pool with an exact match, a partial match, a worthless candidate and the
// profile movie itself.
func seedCatalog(provider *fakeProvider) {
	provider.addMovie(100, "Origin", []string{"Action", "Adventure"}, []string{"hero"}, 50, 7.0)
	provider.addMovie(201, "Twin", []string{"Action", "Adventure"}, []string{"hero"}, 80, 8.0)
	provider.addMovie(202, "Cousin", []string{"Action", "Drama"}, nil, 40, 6.0)
	provider.addMovie(203, "Nothing", []string{"Documentary"}, nil, 0, 0)
	provider.popular = []tmdb.MovieSummary{
		{ID: 201}, {ID: 202}, {ID: 203}, {ID: 100},
	}
}

func TestRank_ExcludesTargets(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	items := engine.Rank(context.Background(), []int{100}, []int{201, 202, 203, 100}, 20)

	require.NotEmpty(t, items)
	for _, item := range items {
		assert.NotEqual(t, 100, item.MovieID, "a movie must never recommend itself back")
	}
}

func TestRank_SortedDescending(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	items := engine.Rank(context.Background(), []int{100}, []int{202, 201}, 20)

	require.Len(t, items, 2)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].SimilarityScore, items[i].SimilarityScore)
	}
	assert.Equal(t, 201, items[0].MovieID, "exact text match with higher popularity ranks first")
}

func TestRank_DropsZeroScores(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	// 203 has zero text overlap, zero popularity and zero rating.
	items := engine.Rank(context.Background(), []int{100}, []int{203}, 20)
	assert.Empty(t, items)
}

func TestRank_DropsFailedCandidates(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	// 999 is unknown to the provider; it must be absent regardless of its
	// supposed popularity.
	items := engine.Rank(context.Background(), []int{100}, []int{999, 201}, 20)

	require.Len(t, items, 1)
	assert.Equal(t, 201, items[0].MovieID)
}

func TestRank_EmptyTargets(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	assert.Empty(t, engine.Rank(context.Background(), nil, []int{201, 202}, 20))
}

func TestRank_TruncatesToLimit(t *testing.T) {
	provider := newFakeProvider()
	provider.addMovie(1, "Target", []string{"Action"}, nil, 50, 7)

	var pool []int
	for i := 0; i < 100; i++ {
		id := 1000 + i
		provider.addMovie(id, fmt.Sprintf("Candidate %d", i), []string{"Action"}, nil, float64(i), 5)
		pool = append(pool, id)
	}

	engine := newTestEngine(provider, nil)

	items := engine.Rank(context.Background(), []int{1}, pool, 20)
	assert.Len(t, items, 20)

	// The kept items are the top of the sorted sequence.
	assert.Equal(t, 1099, items[0].MovieID)
}

func TestRank_ClampsLimit(t *testing.T) {
	provider := newFakeProvider()
	provider.addMovie(1, "Target", []string{"Action"}, nil, 50, 7)

	var pool []int
	for i := 0; i < 60; i++ {
		id := 1000 + i
		provider.addMovie(id, fmt.Sprintf("Candidate %d", i), []string{"Action"}, nil, float64(i), 5)
		pool = append(pool, id)
	}

	engine := newTestEngine(provider, nil)

	assert.Len(t, engine.Rank(context.Background(), []int{1}, pool, 500), 50, "limit clamps to the max bound")
	assert.Len(t, engine.Rank(context.Background(), []int{1}, pool, 0), 20, "zero limit falls back to the default")
}

func TestInitialRecommendations_UsesPopularPool(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	items := engine.InitialRecommendations(context.Background(), []int{100}, nil, 20)

	require.NotEmpty(t, items)
	assert.Equal(t, 201, items[0].MovieID)
	for _, item := range items {
		assert.NotEqual(t, 100, item.MovieID)
	}
}

func TestInitialRecommendations_EmptySelection(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	assert.Empty(t, engine.InitialRecommendations(context.Background(), nil, nil, 20))
	assert.Equal(t, 0, provider.popularCalls, "no candidate fetch for an empty profile")
}

func TestInitialRecommendations_SearchTermsExtendPool(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)
	provider.addMovie(301, "Found", []string{"Action", "Adventure"}, []string{"hero"}, 60, 7.5)
	provider.search["found"] = []tmdb.MovieSummary{{ID: 301}}

	engine := newTestEngine(provider, nil)

	items := engine.InitialRecommendations(context.Background(), []int{100}, []string{"found"}, 20)

	ids := make([]int, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.MovieID)
	}
	assert.Contains(t, ids, 301)
}

func TestUpdateRecommendations_IdempotentForKnownMovie(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	profile := []int{100}
	initial := engine.InitialRecommendations(context.Background(), profile, nil, 20)
	updated := engine.UpdateRecommendations(context.Background(), profile, 100, nil, 20)

	assert.Equal(t, initial, updated, "re-adding a profile movie must not change the result")
}

func TestUpdateRecommendations_FoldsInNewInteraction(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	items := engine.UpdateRecommendations(context.Background(), []int{100}, 201, nil, 20)

	for _, item := range items {
		assert.NotEqual(t, 201, item.MovieID, "the new interaction joins the targets and is excluded")
	}
}

func TestPersonalizedSections_SignalPresence(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	profile := &models.UserProfile{
		WatchedMovies: []int{100, 202},
	}

	sections := engine.PersonalizedSections(context.Background(), profile, 20)

	assert.Contains(t, sections, SectionBasedOnWatched)
	assert.Contains(t, sections, SectionBasedOnLastWatched)
	assert.NotContains(t, sections, SectionBasedOnLikes)
	assert.NotContains(t, sections, SectionBasedOnLastLiked)
	assert.NotContains(t, sections, SectionBasedOnHighRated)

	lastWatched := sections[SectionBasedOnLastWatched]
	assert.Equal(t, []int{202}, lastWatched.ReferenceMovies, "last list element is the most recent watch")
	assert.Equal(t, "Because you watched Cousin", lastWatched.Label)
}

func TestPersonalizedSections_HighRatedPicksFirstMax(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	profile := &models.UserProfile{
		RatedMovies: []models.RatedMovie{
			{MovieID: 202, Rating: 9},
			{MovieID: 100, Rating: 9},
			{MovieID: 201, Rating: 5},
		},
	}

	sections := engine.PersonalizedSections(context.Background(), profile, 20)

	require.Contains(t, sections, SectionBasedOnHighRated)
	section := sections[SectionBasedOnHighRated]
	assert.Equal(t, []int{202}, section.ReferenceMovies, "first occurrence of the max rating wins")
	assert.Equal(t, "Because you rated Cousin highly", section.Label)
}

func TestPersonalizedSections_LikedSections(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	engine := newTestEngine(provider, nil)

	profile := &models.UserProfile{
		LikedMovies: []int{202, 100},
	}

	sections := engine.PersonalizedSections(context.Background(), profile, 20)

	require.Contains(t, sections, SectionBasedOnLikes)
	require.Contains(t, sections, SectionBasedOnLastLiked)

	likes := sections[SectionBasedOnLikes]
	assert.Equal(t, []int{202, 100}, likes.ReferenceMovies)
	for _, item := range likes.Movies {
		assert.NotEqual(t, 202, item.MovieID)
		assert.NotEqual(t, 100, item.MovieID)
	}

	assert.Equal(t, "Because you liked Origin", sections[SectionBasedOnLastLiked].Label)
}

func TestPersonalizedSections_ResultCache(t *testing.T) {
	provider := newFakeProvider()
	seedCatalog(provider)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	engine := newTestEngine(provider, redisClient)

	profile := &models.UserProfile{LikedMovies: []int{100}}

	first := engine.PersonalizedSections(context.Background(), profile, 20)
	popularCallsAfterFirst := provider.popularCalls

	second := engine.PersonalizedSections(context.Background(), profile, 20)

	assert.Equal(t, first, second)
	assert.Equal(t, popularCallsAfterFirst, provider.popularCalls, "second call is served from the result cache")
}
