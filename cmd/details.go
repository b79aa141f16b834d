package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/codehack/movierec/internal/report"
)

func newDetailsCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "details <movie-id>",
		Short: "Show TMDB details for one movie",
		Example: `  movierec details 27205
  movierec details 27205 --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid movie id %q: %w", args[0], err)
			}

			_, svc, err := setup(flags)
			if err != nil {
				return err
			}

			rec, err := svc.Details(cmd.Context(), id)
			if err != nil {
				return err
			}
			return report.WriteDetails(cmd.OutOrStdout(), rec, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, csv, yaml)")

	return cmd
}
