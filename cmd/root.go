package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/codehack/movierec/internal/config"
)

// globalFlags are shared by every subcommand
type globalFlags struct {
	moviesPath     string
	similarityPath string
	logLevel       string
}

func NewRootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "movierec",
		Short: "Movie recommendations from a precomputed similarity matrix",
		Long: `Movierec recommends movies similar to a chosen title using a precomputed
similarity matrix, enriched with details from The Movie Database (TMDB).

When TMDB is unavailable, recommendations degrade to local table data instead of failing.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level, err := config.ParseLogLevel(flags.logLevel)
			if err != nil {
				return err
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flags.moviesPath, "movies", "", "Path to the movie table (.parquet or .jsonl, default $MOVIEREC_MOVIES)")
	cmd.PersistentFlags().StringVar(&flags.similarityPath, "similarity", "", "Path to the similarity matrix (.parquet or .jsonl, default $MOVIEREC_SIMILARITY)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add subcommands
	cmd.AddCommand(newRecommendCmd(flags))
	cmd.AddCommand(newDetailsCmd(flags))
	cmd.AddCommand(newServeCmd(flags))
	cmd.AddCommand(newInspectCmd(flags))
	cmd.AddCommand(newConvertCmd(flags))

	return cmd
}
