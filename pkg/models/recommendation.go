package models

import "time"

// RatedMovie pairs a movie identifier with the rating the user gave it.
type RatedMovie struct {
	MovieID int     `json:"movie_id" binding:"required"`
	Rating  float64 `json:"rating" binding:"min=0,max=10"`
}

// UserProfile carries the interaction signals a recommendation request may
// supply. Every list is optional; list order is caller-supplied and treated
// as chronological (last element = most recent).
type UserProfile struct {
	SelectedMovies []int        `json:"selected_movies,omitempty"`
	LikedMovies    []int        `json:"liked_movies,omitempty"`
	WatchedMovies  []int        `json:"watched_movies,omitempty"`
	RatedMovies    []RatedMovie `json:"rated_movies,omitempty"`
	SearchHistory  []string     `json:"search_history,omitempty"`
}

type RecommendationRequest struct {
	UserProfile
	Limit int `json:"limit" binding:"omitempty,min=1,max=50"`
}

type UpdateRequest struct {
	ProfileMovies []int    `json:"profile_movies" binding:"required"`
	NewMovieID    int      `json:"new_movie_id" binding:"required"`
	SearchHistory []string `json:"search_history,omitempty"`
	Limit         int      `json:"limit" binding:"omitempty,min=1,max=50"`
}

// RecommendationItem is one ranked candidate. Constructed during ranking,
// discarded after response assembly; never persisted.
type RecommendationItem struct {
	MovieID         int     `json:"movie_id"`
	Title           string  `json:"title"`
	SimilarityScore float64 `json:"similarity_score"`
	VoteAverage     float64 `json:"vote_average"`
	Popularity      float64 `json:"popularity"`
	PosterPath      string  `json:"poster_path,omitempty"`
	BackdropPath    string  `json:"backdrop_path,omitempty"`
	Overview        string  `json:"overview,omitempty"`
	ReleaseDate     string  `json:"release_date,omitempty"`
	GenreIDs        []int   `json:"genre_ids,omitempty"`
}

// RecommendationSection is a labeled, independently generated ranked sub-list
// within a personalized response, carrying the reference movie ids that
// produced it.
type RecommendationSection struct {
	Label           string               `json:"label"`
	ReferenceMovies []int                `json:"reference_movies"`
	Movies          []RecommendationItem `json:"movies"`
}

type RecommendationResponse struct {
	Recommendations []RecommendationItem `json:"recommendations"`
	GeneratedAt     time.Time            `json:"generated_at"`
	Algorithm       string               `json:"algorithm"`
}

type PersonalizedResponse struct {
	Sections    map[string]RecommendationSection `json:"sections"`
	GeneratedAt time.Time                        `json:"generated_at"`
	Algorithm   string                           `json:"algorithm"`
}
