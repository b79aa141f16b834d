package metadata

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/tmdb"
)

const (
	posterSize   = "w500"
	backdropSize = "original"

	notAvailable       = "N/A"
	noOverview         = "No overview available"
	releaseDateLayout  = "2006-01-02"
	releaseDateDisplay = "Jan 02, 2006"
)

// Normalize maps a raw TMDB response onto the fixed MetadataRecord shape
func Normalize(details *tmdb.MovieDetails, imageBaseURL string) models.MetadataRecord {
	rec := models.MetadataRecord{
		Title:          details.Title,
		Overview:       noOverview,
		PosterURL:      imageURL(imageBaseURL, posterSize, details.PosterPath),
		BackdropURL:    imageURL(imageBaseURL, backdropSize, details.BackdropPath),
		VoteCount:      details.VoteCount,
		ReleaseYear:    notAvailable,
		RuntimeDisplay: notAvailable,
		Tagline:        details.Tagline,
	}

	if details.Overview != nil {
		rec.Overview = *details.Overview
	}

	if details.VoteAverage != nil {
		rec.RatingAverage = roundRating(*details.VoteAverage)
	}

	if details.ReleaseDate != nil && *details.ReleaseDate != "" {
		raw := *details.ReleaseDate
		rec.ReleaseYear = raw
		if len(raw) > 4 {
			rec.ReleaseYear = raw[:4]
		}
		rec.ReleaseDateDisplay = raw
		if t, err := time.Parse(releaseDateLayout, raw); err == nil {
			rec.ReleaseDateDisplay = t.Format(releaseDateDisplay)
		}
	}

	if details.Runtime != nil && *details.Runtime > 0 {
		rec.RuntimeDisplay = fmt.Sprintf("%d min", *details.Runtime)
	}

	names := make([]string, 0, len(details.Genres))
	for _, g := range details.Genres {
		names = append(names, g.Name)
	}
	rec.Genres = strings.Join(names, ", ")

	if details.IMDbID != nil {
		rec.ExternalReferenceID = *details.IMDbID
	}

	return rec
}

func imageURL(base, size string, path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := base + size + *path
	return &u
}

// roundRating rounds to one decimal place. Halfway cases go to the even
// digit, judged on the exact binary value, so 7.25 becomes 7.2 and 6.35
// (stored just below 6.35) becomes 6.3.
func roundRating(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
