package services

import (
	"context"

	"github.com/filmatch/filmatch/internal/tmdb"
	"github.com/filmatch/filmatch/pkg/models"
)

// MetadataProvider is the slice of the TMDB client the services consume.
// Tests substitute fakes for it.
type MetadataProvider interface {
	MovieDetails(ctx context.Context, movieID int) (*tmdb.Movie, error)
	PopularMovies(ctx context.Context, page int) ([]tmdb.MovieSummary, error)
	SearchMovies(ctx context.Context, query string) ([]tmdb.MovieSummary, error)
}

// FeatureSource yields feature records for the ranking loop.
type FeatureSource interface {
	Features(ctx context.Context, movieID int) (*models.MovieFeatures, bool)
	BuildFeatureMatrix(ctx context.Context, movieIDs []int) []*models.MovieFeatures
}

// CandidateSource produces the pool of movies to be scored.
type CandidateSource interface {
	Popular(ctx context.Context, count int) []int
	Search(ctx context.Context, terms []string) []int
}
