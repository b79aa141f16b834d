package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newInspectCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize the loaded dataset",
		Long: `Loads the movie table and similarity matrix, validates them, and prints
the row count, matrix shape and any titles shared by several movies.`,
		Example: `  movierec inspect --movies ./data/movies.parquet --similarity ./data/similarity.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			d, err := loadDataset(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "========================================")
			fmt.Fprintln(out, "Dataset Summary")
			fmt.Fprintln(out, "========================================")
			fmt.Fprintf(out, "Movies:     %s (%d rows)\n", cfg.MoviesPath, d.Len())
			fmt.Fprintf(out, "Similarity: %s (%d x %d)\n", cfg.SimilarityPath, d.Len(), d.Len())

			dups := d.DuplicateTitles()
			if len(dups) == 0 {
				fmt.Fprintln(out, "Duplicate titles: none")
				return nil
			}

			titles := make([]string, 0, len(dups))
			for title := range dups {
				titles = append(titles, title)
			}
			sort.Strings(titles)

			fmt.Fprintf(out, "Duplicate titles: %d\n", len(titles))
			for i, title := range titles {
				if limit > 0 && i >= limit {
					fmt.Fprintf(out, "  ... and %d more\n", len(titles)-limit)
					break
				}
				ids := make([]int64, 0, len(dups[title]))
				for _, row := range dups[title] {
					ids = append(ids, d.Movie(row).ID)
				}
				fmt.Fprintf(out, "  %s: ids %v\n", title, ids)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of duplicate titles to list (0 for all)")

	return cmd
}
