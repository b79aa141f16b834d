package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newConvertCmd(flags *globalFlags) *cobra.Command {
	var moviesOut, similarityOut string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a dataset to parquet",
		Long: `Loads and validates the movie table and similarity matrix (JSONL or parquet)
and writes them back out as parquet files.`,
		Example: `  movierec convert --movies movies.jsonl --similarity similarity.jsonl \
    --movies-out data/movies.parquet --similarity-out data/similarity.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			d, err := loadDataset(cfg)
			if err != nil {
				return err
			}

			if err := d.WriteParquet(moviesOut, similarityOut); err != nil {
				return fmt.Errorf("failed to write parquet dataset: %w", err)
			}

			slog.Info("Dataset converted", "movies", d.Len(), "movies_out", moviesOut, "similarity_out", similarityOut)
			return nil
		},
	}

	cmd.Flags().StringVar(&moviesOut, "movies-out", "movies.parquet", "Output path for the movie table")
	cmd.Flags().StringVar(&similarityOut, "similarity-out", "similarity.parquet", "Output path for the similarity matrix")

	return cmd
}
