// Package config reads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/codehack/movierec/internal/assembler"
	"github.com/codehack/movierec/internal/metadata"
	"github.com/codehack/movierec/internal/storage"
	"github.com/codehack/movierec/internal/tmdb"
)

const (
	DefaultMoviesPath     = "data/movies.parquet"
	DefaultSimilarityPath = "data/similarity.parquet"
	DefaultPort           = "8888"
)

// Config holds every tunable the CLI and server need
type Config struct {
	TMDBToken        string
	TMDBBaseURL      string
	TMDBImageBaseURL string

	MoviesPath     string
	SimilarityPath string

	FetchWorkers int
	FetchPace    time.Duration
	BackoffUnit  time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Config from environment variables, applying defaults for anything unset
func FromEnv() (*Config, error) {
	cfg := &Config{
		TMDBToken:        os.Getenv("TMDB_API_TOKEN"),
		TMDBBaseURL:      getEnv("TMDB_BASE_URL", tmdb.DefaultBaseURL),
		TMDBImageBaseURL: getEnv("TMDB_IMAGE_BASE_URL", tmdb.DefaultImageBaseURL),
		MoviesPath:       getEnv("MOVIEREC_MOVIES", DefaultMoviesPath),
		SimilarityPath:   getEnv("MOVIEREC_SIMILARITY", DefaultSimilarityPath),
		FetchWorkers:     assembler.DefaultWorkers,
		FetchPace:        assembler.DefaultPace,
		BackoffUnit:      metadata.DefaultBackoffUnit,
		CacheTTL:         storage.DefaultTTL,
	}

	if v := os.Getenv("MOVIEREC_FETCH_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid MOVIEREC_FETCH_WORKERS %q: must be a positive integer", v)
		}
		cfg.FetchWorkers = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"MOVIEREC_FETCH_PACE", &cfg.FetchPace},
		{"MOVIEREC_BACKOFF_UNIT", &cfg.BackoffUnit},
		{"MOVIEREC_CACHE_TTL", &cfg.CacheTTL},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("invalid %s %q: must be a positive duration", d.key, v)
		}
		*d.dst = parsed
	}

	if cfg.TMDBToken == "" {
		slog.Warn("TMDB_API_TOKEN not set, recommendations will use fallback details")
	}

	return cfg, nil
}

// ParseLogLevel maps a level name to its slog level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
