package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filmatch/filmatch/internal/config"
)

func testClientConfig(baseURL string) *config.TMDBConfig {
	return &config.TMDBConfig{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		Timeout:          2 * time.Second,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Minute,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestClient_MovieDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "credits,keywords", r.URL.Query().Get("append_to_response"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":           603,
			"title":        "The Matrix",
			"vote_average": 8.2,
			"popularity":   85.6,
			"poster_path":  "/matrix.jpg",
			"release_date": "1999-03-30",
			"genres": []map[string]any{
				{"id": 28, "name": "Action"},
				{"id": 878, "name": "Science Fiction"},
			},
			"keywords": map[string]any{
				"keywords": []map[string]any{
					{"id": 1, "name": "dystopia"},
					{"id": 2, "name": "artificial intelligence"},
				},
			},
			"credits": map[string]any{
				"cast": []map[string]any{
					{"name": "Keanu Reeves", "character": "Neo", "order": 0},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), testLogger())

	movie, err := client.MovieDetails(context.Background(), 603)
	require.NoError(t, err)

	assert.Equal(t, 603, movie.ID)
	assert.Equal(t, "The Matrix", movie.Title)
	assert.Equal(t, 8.2, movie.VoteAverage)
	assert.Equal(t, 85.6, movie.Popularity)
	assert.Equal(t, "/matrix.jpg", movie.PosterPath)
	require.Len(t, movie.Genres, 2)
	assert.Equal(t, "Action", movie.Genres[0].Name)
	require.Len(t, movie.Keywords.Keywords, 2)
	assert.Equal(t, "dystopia", movie.Keywords.Keywords[0].Name)
	require.NotNil(t, movie.Credits)
	assert.Equal(t, "Keanu Reeves", movie.Credits.Cast[0].Name)
}

func TestClient_MovieDetailsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_message":"The resource you requested could not be found."}`))
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), testLogger())

	_, err := client.MovieDetails(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_PopularMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"page": 2,
			"results": []map[string]any{
				{"id": 10, "title": "First", "popularity": 90.0},
				{"id": 20, "title": "Second", "popularity": 80.0},
			},
		})
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), testLogger())

	results, err := client.PopularMovies(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, 10, results[0].ID, "provider order is preserved")
	assert.Equal(t, 20, results[1].ID)
}

func TestClient_SearchMovies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "the matrix", r.URL.Query().Get("query"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"page":    1,
			"results": []map[string]any{{"id": 603, "title": "The Matrix"}},
		})
	}))
	defer server.Close()

	client := NewClient(testClientConfig(server.URL), testLogger())

	results, err := client.SearchMovies(context.Background(), "the matrix")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 603, results[0].ID)
}

func TestClient_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testClientConfig(server.URL)
	cfg.BreakerThreshold = 2
	client := NewClient(cfg, testLogger())

	for i := 0; i < 2; i++ {
		_, err := client.MovieDetails(context.Background(), 1)
		assert.Error(t, err)
	}
	assert.Equal(t, int32(2), hits.Load())

	// Breaker is open now: the request fails fast without reaching the server.
	_, err := client.MovieDetails(context.Background(), 1)
	assert.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
