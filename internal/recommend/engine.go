// Package recommend selects the most similar movies from a precomputed similarity matrix.
package recommend

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/codehack/movierec/internal/models"
)

// DefaultLimit is the number of recommendations returned per query
const DefaultLimit = 5

var (
	// ErrNotFound is returned when no movie has the requested title or id
	ErrNotFound = errors.New("movie not found")
	// ErrEmptyResult is returned when the dataset has too few movies to recommend from
	ErrEmptyResult = errors.New("not enough movies to recommend")
	// ErrAmbiguousTitle is returned when several movies share the requested title
	ErrAmbiguousTitle = errors.New("title matches more than one movie")
)

// AmbiguousTitleError lists the movies sharing a title so the caller can pick one by id
type AmbiguousTitleError struct {
	Title    string
	MovieIDs []int64
}

func (e *AmbiguousTitleError) Error() string {
	return fmt.Sprintf("%s: %q matches movie ids %v", ErrAmbiguousTitle, e.Title, e.MovieIDs)
}

func (e *AmbiguousTitleError) Unwrap() error {
	return ErrAmbiguousTitle
}

// Source is the read-only view of the dataset the engine needs
type Source interface {
	Len() int
	Movie(row int) models.MovieRecord
	Row(i int) []float64
	RowsByTitle(title string) []int
	RowByID(id int64) (int, bool)
}

// Candidate is one ranked, not yet enriched, recommendation
type Candidate struct {
	Movie models.MovieRecord
	Score float64
}

// Engine ranks movies by their precomputed similarity to a query movie
type Engine struct {
	source Source
	limit  int
}

// NewEngine creates an engine returning up to limit candidates (DefaultLimit if limit <= 0)
func NewEngine(source Source, limit int) *Engine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Engine{
		source: source,
		limit:  limit,
	}
}

// Resolve maps an exact title to its movie record
func (e *Engine) Resolve(title string) (models.MovieRecord, error) {
	rows := e.source.RowsByTitle(title)
	switch len(rows) {
	case 0:
		return models.MovieRecord{}, fmt.Errorf("%w: %q", ErrNotFound, title)
	case 1:
		return e.source.Movie(rows[0]), nil
	default:
		ids := make([]int64, len(rows))
		for i, row := range rows {
			ids[i] = e.source.Movie(row).ID
		}
		return models.MovieRecord{}, &AmbiguousTitleError{Title: title, MovieIDs: ids}
	}
}

// ResolveID maps a movie id to its movie record
func (e *Engine) ResolveID(id int64) (models.MovieRecord, error) {
	row, ok := e.source.RowByID(id)
	if !ok {
		return models.MovieRecord{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return e.source.Movie(row), nil
}

// Recommend returns the movies most similar to the one with the given exact title
func (e *Engine) Recommend(title string) ([]Candidate, error) {
	movie, err := e.Resolve(title)
	if err != nil {
		return nil, err
	}
	return e.rank(movie.RowIndex)
}

// RecommendByID returns the movies most similar to the one with the given id
func (e *Engine) RecommendByID(id int64) ([]Candidate, error) {
	movie, err := e.ResolveID(id)
	if err != nil {
		return nil, err
	}
	return e.rank(movie.RowIndex)
}

// Similar ranks the movies most similar to an already resolved movie
func (e *Engine) Similar(movie models.MovieRecord) ([]Candidate, error) {
	if movie.RowIndex < 0 || movie.RowIndex >= e.source.Len() {
		return nil, fmt.Errorf("%w: row %d", ErrNotFound, movie.RowIndex)
	}
	return e.rank(movie.RowIndex)
}

type scored struct {
	column int
	score  float64
}

// rank orders row i by descending score. Equal scores keep ascending column order.
func (e *Engine) rank(i int) ([]Candidate, error) {
	if e.source.Len() <= 1 {
		return nil, ErrEmptyResult
	}

	row := e.source.Row(i)
	pairs := make([]scored, len(row))
	for j, s := range row {
		pairs[j] = scored{column: j, score: s}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})

	out := make([]Candidate, 0, e.limit)
	for _, p := range pairs {
		if p.column == i {
			continue
		}
		out = append(out, Candidate{
			Movie: e.source.Movie(p.column),
			Score: p.score,
		})
		if len(out) == e.limit {
			break
		}
	}

	return out, nil
}

// Search returns up to limit movies whose title contains query, case-insensitively, in table order
func (e *Engine) Search(query string, limit int) []models.MovieRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []models.MovieRecord
	for row := 0; row < e.source.Len(); row++ {
		if limit > 0 && len(out) >= limit {
			break
		}
		m := e.source.Movie(row)
		if q == "" || strings.Contains(strings.ToLower(m.Title), q) {
			out = append(out, m)
		}
	}
	return out
}

// Sample returns up to n distinct movies picked uniformly at random with r
func (e *Engine) Sample(n int, r *rand.Rand) []models.MovieRecord {
	n = min(n, e.source.Len())
	if n <= 0 {
		return nil
	}

	out := make([]models.MovieRecord, n)
	for i, row := range r.Perm(e.source.Len())[:n] {
		out[i] = e.source.Movie(row)
	}
	return out
}
