package models

// MovieFeatures is the normalized per-movie attribute bundle used for
// similarity scoring. Records are immutable once built and cached for the
// lifetime of the process.
type MovieFeatures struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Genres      string  `json:"genres"`   // space-joined genre names, stable order
	Keywords    string  `json:"keywords"` // space-joined keyword names, stable order
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`

	// Display fields passed through to responses.
	PosterPath   string `json:"poster_path,omitempty"`
	BackdropPath string `json:"backdrop_path,omitempty"`
	Overview     string `json:"overview,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
	GenreIDs     []int  `json:"genre_ids,omitempty"`
}

// FeatureText is the bag-of-words text blob scored by the similarity model:
// genres concatenated with keywords, space-separated.
func (m *MovieFeatures) FeatureText() string {
	if m.Genres == "" {
		return m.Keywords
	}
	if m.Keywords == "" {
		return m.Genres
	}
	return m.Genres + " " + m.Keywords
}
