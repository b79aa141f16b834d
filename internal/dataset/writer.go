package dataset

import (
	"fmt"
	"log/slog"

	"github.com/parquet-go/parquet-go"
)

// WriteParquet writes the dataset as a movie table and a similarity matrix parquet file
func (d *Dataset) WriteParquet(moviesPath, similarityPath string) error {
	rows := make([]MovieRow, len(d.movies))
	for i, m := range d.movies {
		rows[i] = MovieRow{
			MovieID: m.ID,
			Title:   m.Title,
			Year:    m.Year,
			Genres:  m.Genres,
		}
	}
	if err := parquet.WriteFile(moviesPath, rows); err != nil {
		return fmt.Errorf("failed to write movies parquet: %w", err)
	}

	simRows := make([]SimilarityRow, len(d.matrix))
	for i, scores := range d.matrix {
		simRows[i] = SimilarityRow{Row: int64(i), Scores: scores}
	}
	if err := parquet.WriteFile(similarityPath, simRows); err != nil {
		return fmt.Errorf("failed to write similarity parquet: %w", err)
	}

	slog.Info("Dataset written", "movies_path", moviesPath, "similarity_path", similarityPath, "rows", len(rows))
	return nil
}
