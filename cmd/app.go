package cmd

import (
	"fmt"

	"github.com/codehack/movierec/internal/assembler"
	"github.com/codehack/movierec/internal/config"
	"github.com/codehack/movierec/internal/dataset"
	"github.com/codehack/movierec/internal/metadata"
	"github.com/codehack/movierec/internal/recommend"
	"github.com/codehack/movierec/internal/storage"
	"github.com/codehack/movierec/internal/tmdb"
)

// loadConfig reads the environment and applies command line overrides
func loadConfig(flags *globalFlags) (*config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if flags.moviesPath != "" {
		cfg.MoviesPath = flags.moviesPath
	}
	if flags.similarityPath != "" {
		cfg.SimilarityPath = flags.similarityPath
	}
	return cfg, nil
}

func loadDataset(cfg *config.Config) (*dataset.Dataset, error) {
	d, err := dataset.NewLoader(cfg.MoviesPath, cfg.SimilarityPath).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	return d, nil
}

// newService wires the dataset, TMDB client, cache and fetcher into an assembler
func newService(cfg *config.Config, d *dataset.Dataset) *assembler.Service {
	client := tmdb.NewClient(cfg.TMDBBaseURL, cfg.TMDBToken)
	fetcher := metadata.NewFetcher(client, storage.New(cfg.CacheTTL), metadata.Options{
		ImageBaseURL: cfg.TMDBImageBaseURL,
		BackoffUnit:  cfg.BackoffUnit,
	})

	return assembler.NewService(recommend.NewEngine(d, recommend.DefaultLimit), fetcher, assembler.Options{
		Workers: cfg.FetchWorkers,
		Pace:    cfg.FetchPace,
	})
}

// setup loads everything a command needs to answer queries
func setup(flags *globalFlags) (*config.Config, *assembler.Service, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}
	d, err := loadDataset(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newService(cfg, d), nil
}
