package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/recommend"
	"github.com/codehack/movierec/internal/report"
)

func newRecommendCmd(flags *globalFlags) *cobra.Command {
	var byID bool
	var format string

	cmd := &cobra.Command{
		Use:   "recommend <title>",
		Short: "Recommend movies similar to a title",
		Long: `Looks up the movie with the exact given title and prints the five most
similar movies, enriched with TMDB details where available.

If several movies share the title, the command lists their ids; pass one
of them with --id to disambiguate.`,
		Example: `  # Recommend by exact title
  movierec recommend "The Dark Knight"

  # Recommend by TMDB id, as JSON
  movierec recommend --id 155 --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, svc, err := setup(flags)
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")

			var result *models.RecommendationResult
			if byID {
				id, perr := strconv.ParseInt(query, 10, 64)
				if perr != nil {
					return fmt.Errorf("invalid movie id %q: %w", query, perr)
				}
				result, err = svc.RecommendByID(cmd.Context(), id)
			} else {
				result, err = svc.Recommend(cmd.Context(), query)
			}

			var ambiguous *recommend.AmbiguousTitleError
			switch {
			case errors.As(err, &ambiguous):
				return fmt.Errorf("%q matches several movies, rerun with --id and one of %v", ambiguous.Title, ambiguous.MovieIDs)
			case errors.Is(err, recommend.ErrEmptyResult):
				fmt.Fprintln(cmd.OutOrStdout(), "No recommendations available: the dataset has too few movies")
				return nil
			case err != nil:
				return err
			}

			return report.WriteResult(cmd.OutOrStdout(), result, format)
		},
	}

	cmd.Flags().BoolVar(&byID, "id", false, "Treat the argument as a TMDB movie id instead of a title")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, csv, yaml)")

	return cmd
}
