package models

// MovieRecord is one row of the precomputed movie table
type MovieRecord struct {
	ID       int64  `json:"movie_id" yaml:"movie_id"`
	Title    string `json:"title" yaml:"title"`
	RowIndex int    `json:"row_index" yaml:"row_index"` // Position in the similarity matrix
	Year     string `json:"year,omitempty" yaml:"year,omitempty"`
	Genres   string `json:"genres,omitempty" yaml:"genres,omitempty"` // Comma-joined
}

// MetadataRecord is the normalized view of a movie returned by the metadata service
type MetadataRecord struct {
	Title               string  `json:"title" yaml:"title"`
	Overview            string  `json:"overview" yaml:"overview"`
	PosterURL           *string `json:"poster_url" yaml:"poster_url"`
	BackdropURL         *string `json:"backdrop_url" yaml:"backdrop_url"`
	RatingAverage       float64 `json:"rating_average" yaml:"rating_average"`
	VoteCount           int     `json:"vote_count" yaml:"vote_count"`
	ReleaseDateDisplay  string  `json:"release_date_display" yaml:"release_date_display"`
	ReleaseYear         string  `json:"release_year" yaml:"release_year"`
	RuntimeDisplay      string  `json:"runtime_display" yaml:"runtime_display"`
	Genres              string  `json:"genres" yaml:"genres"`
	Tagline             string  `json:"tagline" yaml:"tagline"`
	ExternalReferenceID string  `json:"external_reference_id" yaml:"external_reference_id"` // IMDb id

	// Fallback is set when the record was built from local table data
	Fallback bool `json:"fallback" yaml:"fallback"`
}

// Clone returns a copy that shares no pointer targets with r
func (r MetadataRecord) Clone() MetadataRecord {
	if r.PosterURL != nil {
		poster := *r.PosterURL
		r.PosterURL = &poster
	}
	if r.BackdropURL != nil {
		backdrop := *r.BackdropURL
		r.BackdropURL = &backdrop
	}
	return r
}

// Recommendation is a single enriched entry in a recommendation result
type Recommendation struct {
	MovieID  int64          `json:"movie_id" yaml:"movie_id"`
	Title    string         `json:"title" yaml:"title"`
	Score    float64        `json:"score" yaml:"score"`
	Metadata MetadataRecord `json:"metadata" yaml:"metadata"`
}

// RecommendationResult is the full answer to one "find similar" request
type RecommendationResult struct {
	Query           MovieRecord      `json:"query" yaml:"query"`
	Selected        MetadataRecord   `json:"selected" yaml:"selected"`
	Recommendations []Recommendation `json:"recommendations" yaml:"recommendations"`
	Warnings        []string         `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// TrendingMovie is one randomly sampled movie with its metadata
type TrendingMovie struct {
	MovieID  int64          `json:"movie_id" yaml:"movie_id"`
	Title    string         `json:"title" yaml:"title"`
	Metadata MetadataRecord `json:"metadata" yaml:"metadata"`
}

// TrendingResult is a random, enriched selection from the movie table
type TrendingResult struct {
	Movies   []TrendingMovie `json:"movies" yaml:"movies"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FallbackOverview is shown in place of an overview when metadata is unavailable
const FallbackOverview = "Details not available"

// NewFallbackRecord builds a degraded metadata record from local table fields
func NewFallbackRecord(movie MovieRecord) MetadataRecord {
	year := movie.Year
	if year == "" {
		year = "N/A"
	}
	return MetadataRecord{
		Title:          movie.Title,
		Overview:       FallbackOverview,
		ReleaseYear:    year,
		Genres:         movie.Genres,
		RatingAverage:  0,
		RuntimeDisplay: "N/A",
		Fallback:       true,
	}
}
