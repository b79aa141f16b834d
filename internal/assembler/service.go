// Package assembler joins ranked candidates with their metadata into a final result.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/codehack/movierec/internal/metrics"
	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/recommend"
)

const (
	// DefaultPace spaces consecutive metadata fetches
	DefaultPace = 200 * time.Millisecond
	// DefaultWorkers keeps fetches sequential
	DefaultWorkers = 1
	// DefaultFeatured is the number of movies in a featured selection
	DefaultFeatured = 3
	// DefaultTrending is the number of movies in a trending selection
	DefaultTrending = 5
)

// DetailsFetcher returns metadata for a movie id, or nil and an error when it is unavailable
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, movieID int64) (*models.MetadataRecord, error)
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	Workers int
	Pace    time.Duration
	// Rand drives featured and trending selections; seeded from the clock when nil
	Rand *rand.Rand
}

// Service builds enriched recommendation results
type Service struct {
	engine  *recommend.Engine
	fetcher DetailsFetcher
	limiter *rate.Limiter
	workers int

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewService creates an assembler over engine and fetcher
func NewService(engine *recommend.Engine, fetcher DetailsFetcher, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Pace <= 0 {
		opts.Pace = DefaultPace
	}
	if opts.Rand == nil {
		seed := uint64(time.Now().UnixNano())
		opts.Rand = rand.New(rand.NewPCG(seed, seed>>32))
	}

	return &Service{
		engine:  engine,
		fetcher: fetcher,
		limiter: rate.NewLimiter(rate.Every(opts.Pace), 1),
		workers: opts.Workers,
		rng:     opts.Rand,
	}
}

// Engine exposes the underlying recommendation engine
func (s *Service) Engine() *recommend.Engine {
	return s.engine
}

// Recommend returns enriched recommendations for the movie with the exact given title
func (s *Service) Recommend(ctx context.Context, title string) (*models.RecommendationResult, error) {
	movie, err := s.engine.Resolve(title)
	if err != nil {
		recordOutcome(err)
		return nil, err
	}
	return s.recommendFor(ctx, movie)
}

// RecommendByID returns enriched recommendations for the movie with the given id
func (s *Service) RecommendByID(ctx context.Context, movieID int64) (*models.RecommendationResult, error) {
	movie, err := s.engine.ResolveID(movieID)
	if err != nil {
		recordOutcome(err)
		return nil, err
	}
	return s.recommendFor(ctx, movie)
}

func (s *Service) recommendFor(ctx context.Context, movie models.MovieRecord) (*models.RecommendationResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	}()

	candidates, err := s.engine.Similar(movie)
	if err != nil {
		recordOutcome(err)
		return nil, err
	}

	// Slot 0 is the selected movie, the rest follow engine order
	movies := make([]models.MovieRecord, 0, len(candidates)+1)
	movies = append(movies, movie)
	for _, c := range candidates {
		movies = append(movies, c.Movie)
	}

	records, warnings, err := s.fetchAll(ctx, movies)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble recommendations for movie %d: %w", movie.ID, err)
	}

	result := &models.RecommendationResult{
		Query:           movie,
		Selected:        records[0],
		Recommendations: make([]models.Recommendation, len(candidates)),
		Warnings:        warnings,
	}
	for i, c := range candidates {
		result.Recommendations[i] = models.Recommendation{
			MovieID:  c.Movie.ID,
			Title:    c.Movie.Title,
			Score:    c.Score,
			Metadata: records[i+1],
		}
	}

	metrics.Recommendations.WithLabelValues("ok").Inc()
	slog.Info("Assembled recommendations",
		"movie_id", movie.ID,
		"title", movie.Title,
		"count", len(result.Recommendations),
		"warnings", len(warnings))

	return result, nil
}

// fetchAll resolves metadata for every movie, substituting fallback records on failure.
// Output slots match input order regardless of completion order.
func (s *Service) fetchAll(ctx context.Context, movies []models.MovieRecord) ([]models.MetadataRecord, []string, error) {
	records := make([]models.MetadataRecord, len(movies))
	failures := make([]string, len(movies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, movie := range movies {
		g.Go(func() error {
			if err := s.limiter.Wait(gctx); err != nil {
				return err
			}
			rec, err := s.fetcher.FetchDetails(gctx, movie.ID)
			if err != nil || rec == nil {
				records[i] = models.NewFallbackRecord(movie)
				failures[i] = fmt.Sprintf("Could not load details for %q (id %d): %v", movie.Title, movie.ID, err)
				metrics.FallbackRecords.Inc()
				return nil
			}
			records[i] = *rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, w := range failures {
		if w != "" {
			warnings = append(warnings, w)
		}
	}
	return records, warnings, nil
}

// Featured returns n random movies from the local table (DefaultFeatured if n <= 0).
// No metadata is fetched.
func (s *Service) Featured(n int) []models.MovieRecord {
	if n <= 0 {
		n = DefaultFeatured
	}
	return s.sample(n)
}

// Trending returns n random movies (DefaultTrending if n <= 0) enriched with
// metadata, falling back to local fields for movies whose fetch fails.
func (s *Service) Trending(ctx context.Context, n int) (*models.TrendingResult, error) {
	if n <= 0 {
		n = DefaultTrending
	}
	movies := s.sample(n)

	records, warnings, err := s.fetchAll(ctx, movies)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble trending movies: %w", err)
	}

	result := &models.TrendingResult{
		Movies:   make([]models.TrendingMovie, len(movies)),
		Warnings: warnings,
	}
	for i, m := range movies {
		result.Movies[i] = models.TrendingMovie{
			MovieID:  m.ID,
			Title:    m.Title,
			Metadata: records[i],
		}
	}

	slog.Info("Assembled trending movies", "count", len(result.Movies), "warnings", len(warnings))
	return result, nil
}

func (s *Service) sample(n int) []models.MovieRecord {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.engine.Sample(n, s.rng)
}

// Details returns metadata for one movie. Movies in the local table degrade to a
// fallback record when the metadata service fails; unknown ids return the fetch error.
func (s *Service) Details(ctx context.Context, movieID int64) (*models.MetadataRecord, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rec, fetchErr := s.fetcher.FetchDetails(ctx, movieID)
	if fetchErr == nil && rec != nil {
		return rec, nil
	}

	movie, err := s.engine.ResolveID(movieID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", err, fetchErr)
	}

	metrics.FallbackRecords.Inc()
	fallback := models.NewFallbackRecord(movie)
	return &fallback, nil
}

func recordOutcome(err error) {
	switch {
	case errors.Is(err, recommend.ErrNotFound):
		metrics.Recommendations.WithLabelValues("not_found").Inc()
	case errors.Is(err, recommend.ErrAmbiguousTitle):
		metrics.Recommendations.WithLabelValues("ambiguous").Inc()
	case errors.Is(err, recommend.ErrEmptyResult):
		metrics.Recommendations.WithLabelValues("empty").Inc()
	}
}
