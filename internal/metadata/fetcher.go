// Package metadata fetches, normalizes and memoizes movie details from TMDB.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"

	"github.com/codehack/movierec/internal/metrics"
	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/storage"
	"github.com/codehack/movierec/internal/tmdb"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoffUnit = time.Second
)

// MovieGetter is the slice of the TMDB client the fetcher depends on
type MovieGetter interface {
	GetMovie(ctx context.Context, movieID int64) (*tmdb.MovieDetails, error)
}

// Options tunes a Fetcher. Zero values fall back to defaults.
type Options struct {
	ImageBaseURL string
	MaxAttempts  int
	// Attempt n waits n*BackoffUnit before attempt n+1
	BackoffUnit time.Duration
	// Consecutive transient failures that open the circuit breaker
	BreakerThreshold uint32
	// How long the breaker stays open before probing again
	BreakerTimeout time.Duration
}

// FetchError is the recoverable error returned when details could not be fetched.
// It wraps tmdb.ErrTransient, tmdb.ErrMalformedResponse or tmdb.ErrRejected.
type FetchError struct {
	MovieID  int64
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch details for movie %d after %d attempt(s): %v", e.MovieID, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Fetcher resolves movie ids to MetadataRecords with caching, retries and a circuit breaker
type Fetcher struct {
	client       MovieGetter
	cache        *storage.MetadataCache
	imageBaseURL string
	maxAttempts  int
	backoffUnit  time.Duration
	breaker      *gobreaker.CircuitBreaker[*tmdb.MovieDetails]
	group        singleflight.Group
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewFetcher creates a fetcher backed by client and cache
func NewFetcher(client MovieGetter, cache *storage.MetadataCache, opts Options) *Fetcher {
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = tmdb.DefaultImageBaseURL
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.BackoffUnit <= 0 {
		opts.BackoffUnit = DefaultBackoffUnit
	}
	if opts.BreakerThreshold == 0 {
		opts.BreakerThreshold = 5
	}
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 30 * time.Second
	}

	return &Fetcher{
		client:       client,
		cache:        cache,
		imageBaseURL: opts.ImageBaseURL,
		maxAttempts:  opts.MaxAttempts,
		backoffUnit:  opts.BackoffUnit,
		breaker:      newBreaker(opts.BreakerThreshold, opts.BreakerTimeout),
		sleep:        sleepContext,
	}
}

func newBreaker(threshold uint32, timeout time.Duration) *gobreaker.CircuitBreaker[*tmdb.MovieDetails] {
	metrics.CircuitBreakerState.Set(0)

	return gobreaker.NewCircuitBreaker[*tmdb.MovieDetails](gobreaker.Settings{
		Name:        "tmdb-api",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Only outages count against the breaker; a 404 or bad body for one movie does not
		IsSuccessful: func(err error) bool {
			return err == nil || !tmdb.IsRetryable(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			switch to {
			case gobreaker.StateClosed:
				metrics.CircuitBreakerState.Set(0)
			case gobreaker.StateHalfOpen:
				metrics.CircuitBreakerState.Set(1)
			case gobreaker.StateOpen:
				metrics.CircuitBreakerState.Set(2)
			}
		},
	})
}

// FetchDetails returns metadata for movieID. On failure it returns nil and a *FetchError;
// callers are expected to degrade to a fallback record rather than abort.
func (f *Fetcher) FetchDetails(ctx context.Context, movieID int64) (*models.MetadataRecord, error) {
	if rec, ok := f.cache.Get(movieID); ok {
		metrics.MetadataCacheLookups.WithLabelValues("hit").Inc()
		rec = rec.Clone()
		return &rec, nil
	}
	metrics.MetadataCacheLookups.WithLabelValues("miss").Inc()

	// Concurrent requests for the same id share one network round trip
	v, err, shared := f.group.Do(strconv.FormatInt(movieID, 10), func() (any, error) {
		if rec, ok := f.cache.Get(movieID); ok {
			return rec, nil
		}

		details, attempts, err := f.fetchWithRetry(ctx, movieID)
		if err != nil {
			return nil, &FetchError{MovieID: movieID, Attempts: attempts, Err: err}
		}

		rec := Normalize(details, f.imageBaseURL)
		f.cache.Set(movieID, rec)
		return rec, nil
	})
	if err != nil {
		slog.Warn("Unable to fetch movie details", "movie_id", movieID, "shared", shared, "error", err)
		return nil, err
	}

	// Each caller gets its own copy so edits never reach the cache
	rec := v.(models.MetadataRecord).Clone()
	return &rec, nil
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, movieID int64) (*tmdb.MovieDetails, int, error) {
	var lastErr error

	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		start := time.Now()
		details, err := f.breaker.Execute(func() (*tmdb.MovieDetails, error) {
			return f.client.GetMovie(ctx, movieID)
		})
		metrics.TMDBRequestDuration.Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.TMDBRequests.WithLabelValues("success").Inc()
			if attempt > 1 {
				slog.Info("Fetched movie details after retry", "movie_id", movieID, "attempt", attempt)
			}
			return details, attempt, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.TMDBRequests.WithLabelValues("circuit_open").Inc()
			return nil, attempt, fmt.Errorf("%w: %w", tmdb.ErrTransient, err)
		}

		metrics.TMDBRequests.WithLabelValues(outcome(err)).Inc()
		lastErr = err

		if !tmdb.IsRetryable(err) {
			return nil, attempt, err
		}

		if attempt == f.maxAttempts {
			break
		}

		wait := time.Duration(attempt) * f.backoffUnit
		slog.Debug("Retrying movie details", "movie_id", movieID, "attempt", attempt, "wait", wait, "error", err)
		if err := f.sleep(ctx, wait); err != nil {
			return nil, attempt, err
		}
	}

	return nil, f.maxAttempts, lastErr
}

func outcome(err error) string {
	switch {
	case errors.Is(err, tmdb.ErrTransient):
		return "transient"
	case errors.Is(err, tmdb.ErrMalformedResponse):
		return "malformed"
	default:
		return "rejected"
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
