package dataset

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// Loader handles loading of the movie table and similarity matrix
type Loader struct {
	moviesPath     string
	similarityPath string
}

// NewLoader creates a new dataset loader
func NewLoader(moviesPath, similarityPath string) *Loader {
	return &Loader{
		moviesPath:     moviesPath,
		similarityPath: similarityPath,
	}
}

// Load reads both files and returns a validated dataset
func (l *Loader) Load() (*Dataset, error) {
	rows, err := l.LoadMovies()
	if err != nil {
		return nil, err
	}

	matrix, err := l.LoadSimilarity()
	if err != nil {
		return nil, err
	}

	d, err := New(rows, matrix)
	if err != nil {
		return nil, fmt.Errorf("invalid dataset: %w", err)
	}

	slog.Info("Dataset loaded", "movies", d.Len(), "movies_path", l.moviesPath, "similarity_path", l.similarityPath)
	if dups := d.DuplicateTitles(); len(dups) > 0 {
		slog.Warn("Dataset contains duplicate titles", "count", len(dups))
	}

	return d, nil
}

// LoadMovies loads the movie table from a parquet, JSONL or JSON array file
func (l *Loader) LoadMovies() ([]MovieRow, error) {
	switch ext := strings.ToLower(filepath.Ext(l.moviesPath)); ext {
	case ".parquet":
		return readParquet[MovieRow](l.moviesPath)
	case ".jsonl":
		return readJSONL[MovieRow](l.moviesPath)
	case ".json":
		return readJSONArray[MovieRow](l.moviesPath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .json)", ext)
	}
}

// LoadSimilarity loads the similarity matrix from a parquet, JSONL or JSON array file
func (l *Loader) LoadSimilarity() ([][]float64, error) {
	switch ext := strings.ToLower(filepath.Ext(l.similarityPath)); ext {
	case ".parquet":
		rows, err := readParquet[SimilarityRow](l.similarityPath)
		if err != nil {
			return nil, err
		}
		return matrixFromRows(rows)
	case ".jsonl":
		return readJSONL[[]float64](l.similarityPath)
	case ".json":
		return readJSONArray[[]float64](l.similarityPath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl, .json)", ext)
	}
}

// readJSONL decodes one value of type T per non-empty line
func readJSONL[T any](path string) ([]T, error) {
	slog.Debug("Opening JSONL file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)

	// Matrix rows hold N numbers each, so lines can get long
	const maxCapacity = 64 * 1024 * 1024
	scanner.Buffer(make([]byte, 0, 1024*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "path", path, "total_records", len(records))

	return records, nil
}

// readJSONArray decodes a file holding a single JSON array of T
func readJSONArray[T any](path string) ([]T, error) {
	slog.Debug("Opening JSON file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse JSON array: %w", err)
	}

	slog.Debug("Finished reading JSON file", "path", path, "total_records", len(records))

	return records, nil
}

// readParquet reads every row of a parquet file into T
func readParquet[T any](path string) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	records := make([]T, 0, pf.NumRows())

	for {
		// Fresh batch each time: the reader may reuse slice fields of rows it is handed
		rows := make([]T, 128)
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "path", path, "total_records", len(records))

	return records, nil
}

// matrixFromRows places each parquet row at its declared index
func matrixFromRows(rows []SimilarityRow) ([][]float64, error) {
	matrix := make([][]float64, len(rows))
	for _, r := range rows {
		if r.Row < 0 || int(r.Row) >= len(rows) {
			return nil, fmt.Errorf("similarity row index %d out of range [0, %d)", r.Row, len(rows))
		}
		if matrix[r.Row] != nil {
			return nil, fmt.Errorf("duplicate similarity row index %d", r.Row)
		}
		matrix[r.Row] = r.Scores
		if matrix[r.Row] == nil {
			matrix[r.Row] = []float64{}
		}
	}
	return matrix, nil
}

// validateMatrix checks the matrix is N x N with every entry a real number
func validateMatrix(matrix [][]float64, n int) error {
	if len(matrix) != n {
		return fmt.Errorf("similarity matrix has %d rows, movie table has %d", len(matrix), n)
	}
	for i, row := range matrix {
		if len(row) != n {
			return fmt.Errorf("similarity row %d has %d columns, expected %d", i, len(row), n)
		}
		for j, v := range row {
			if math.IsNaN(v) {
				return fmt.Errorf("similarity entry [%d][%d] is NaN", i, j)
			}
		}
	}
	return nil
}
