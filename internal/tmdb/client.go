package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"

	"github.com/filmatch/filmatch/internal/config"
	"github.com/filmatch/filmatch/internal/metrics"
)

// ErrNotFound is returned when TMDB reports the movie unknown. Callers treat
// it the same as any other provider failure: the movie is absent.
var ErrNotFound = errors.New("tmdb: movie not found")

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Keyword struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Movie is the detail payload for a single movie, with keywords and credits
// appended so one round trip carries everything feature extraction needs.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Genres       []Genre `json:"genres"`
	VoteAverage  float64 `json:"vote_average"`
	Popularity   float64 `json:"popularity"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	Keywords     struct {
		Keywords []Keyword `json:"keywords"`
	} `json:"keywords"`
	Credits *Credits `json:"credits,omitempty"`
}

// MovieSummary is one entry of a popular or search result page.
type MovieSummary struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	PosterPath  string  `json:"poster_path"`
}

type listResponse struct {
	Page    int            `json:"page"`
	Results []MovieSummary `json:"results"`
}

type apiResult struct {
	status int
	body   []byte
}

// Client is an HTTP client for the TMDB v3 API. All calls go through a
// circuit breaker so a misbehaving upstream fails fast instead of holding
// request goroutines on timeouts.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[apiResult]
	logger  *logrus.Logger
}

func NewClient(cfg *config.TMDBConfig, logger *logrus.Logger) *Client {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}

	breaker := gobreaker.NewCircuitBreaker[apiResult](gobreaker.Settings{
		Name:    "tmdb",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("TMDB circuit breaker state changed")
		},
	})

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		logger:  logger,
	}
}

// MovieDetails fetches a movie with keywords and credits appended, one round
// trip per movie.
func (c *Client) MovieDetails(ctx context.Context, movieID int) (*Movie, error) {
	params := url.Values{}
	params.Set("append_to_response", "credits,keywords")

	body, err := c.get(ctx, "/movie/"+strconv.Itoa(movieID), "movie_details", params)
	if err != nil {
		return nil, err
	}

	var movie Movie
	if err := json.Unmarshal(body, &movie); err != nil {
		return nil, fmt.Errorf("decode movie %d: %w", movieID, err)
	}

	return &movie, nil
}

// PopularMovies returns one page of TMDB's popular listing in provider order.
func (c *Client) PopularMovies(ctx context.Context, page int) ([]MovieSummary, error) {
	if page < 1 {
		page = 1
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	body, err := c.get(ctx, "/movie/popular", "popular", params)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode popular movies: %w", err)
	}

	return list.Results, nil
}

// SearchMovies runs a free-text title search.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]MovieSummary, error) {
	params := url.Values{}
	params.Set("query", query)

	body, err := c.get(ctx, "/search/movie", "search", params)
	if err != nil {
		return nil, err
	}

	var list listResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}

	return list.Results, nil
}

func (c *Client) get(ctx context.Context, path, endpoint string, params url.Values) ([]byte, error) {
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	timer := metrics.ProviderRequestTimer(endpoint)
	defer timer.ObserveDuration()

	result, err := c.breaker.Execute(func() (apiResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return apiResult{}, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return apiResult{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return apiResult{}, err
		}

		// A 404 is an answer, not a provider failure; it must not trip the breaker.
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
			return apiResult{}, fmt.Errorf("tmdb: unexpected status %d for %s", resp.StatusCode, path)
		}

		return apiResult{status: resp.StatusCode, body: body}, nil
	})
	if err != nil {
		metrics.ProviderErrors.WithLabelValues(endpoint).Inc()
		return nil, err
	}

	if result.status == http.StatusNotFound {
		return nil, ErrNotFound
	}

	return result.body, nil
}
