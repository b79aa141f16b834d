package dataset

import (
	"fmt"

	"github.com/codehack/movierec/internal/models"
)

// MovieRow is the on-disk shape of one movie table row (parquet or JSONL)
type MovieRow struct {
	MovieID int64  `json:"movie_id" parquet:"movie_id"`
	Title   string `json:"title" parquet:"title"`
	Year    string `json:"year,omitempty" parquet:"year,optional"`
	Genres  string `json:"genres,omitempty" parquet:"genres,optional"` // Comma-joined genre names
}

// SimilarityRow is the on-disk shape of one similarity matrix row in parquet
type SimilarityRow struct {
	Row    int64     `parquet:"row"`
	Scores []float64 `parquet:"scores,list"`
}

// Dataset holds the movie table and its aligned similarity matrix.
// It is immutable after Load and safe for concurrent reads.
type Dataset struct {
	movies  []models.MovieRecord
	matrix  [][]float64
	byTitle map[string][]int
	byID    map[int64]int
}

func newDataset(movies []models.MovieRecord, matrix [][]float64) *Dataset {
	d := &Dataset{
		movies:  movies,
		matrix:  matrix,
		byTitle: make(map[string][]int, len(movies)),
		byID:    make(map[int64]int, len(movies)),
	}
	for i, m := range movies {
		d.byTitle[m.Title] = append(d.byTitle[m.Title], i)
		d.byID[m.ID] = i
	}
	return d
}

// Len returns the number of movies (N)
func (d *Dataset) Len() int {
	return len(d.movies)
}

// Movie returns the record at the given row index
func (d *Dataset) Movie(row int) models.MovieRecord {
	return d.movies[row]
}

// Movies returns a copy of the movie table in row order
func (d *Dataset) Movies() []models.MovieRecord {
	out := make([]models.MovieRecord, len(d.movies))
	copy(out, d.movies)
	return out
}

// Row returns the similarity scores of row i. The slice is shared and must not be modified.
func (d *Dataset) Row(i int) []float64 {
	return d.matrix[i]
}

// RowsByTitle returns every row index whose title matches exactly
func (d *Dataset) RowsByTitle(title string) []int {
	return d.byTitle[title]
}

// RowByID returns the row index of the movie with the given id
func (d *Dataset) RowByID(id int64) (int, bool) {
	row, ok := d.byID[id]
	return row, ok
}

// DuplicateTitles returns titles shared by more than one movie, mapped to their row indices
func (d *Dataset) DuplicateTitles() map[string][]int {
	dups := make(map[string][]int)
	for title, rows := range d.byTitle {
		if len(rows) > 1 {
			dups[title] = rows
		}
	}
	return dups
}

// New builds a dataset directly from in-memory values after validating them
func New(rows []MovieRow, matrix [][]float64) (*Dataset, error) {
	movies := toMovieRecords(rows)
	if err := validateMovies(movies); err != nil {
		return nil, err
	}
	if err := validateMatrix(matrix, len(movies)); err != nil {
		return nil, err
	}
	return newDataset(movies, matrix), nil
}

func toMovieRecords(rows []MovieRow) []models.MovieRecord {
	movies := make([]models.MovieRecord, len(rows))
	for i, r := range rows {
		movies[i] = models.MovieRecord{
			ID:       r.MovieID,
			Title:    r.Title,
			RowIndex: i,
			Year:     r.Year,
			Genres:   r.Genres,
		}
	}
	return movies
}

// validateMovies rejects tables where a movie id appears twice
func validateMovies(movies []models.MovieRecord) error {
	seen := make(map[int64]int, len(movies))
	for i, m := range movies {
		if prev, ok := seen[m.ID]; ok {
			return fmt.Errorf("movie id %d appears at rows %d and %d", m.ID, prev, i)
		}
		seen[m.ID] = i
	}
	return nil
}
