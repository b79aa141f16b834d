package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/recommend"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
	maxShowcaseSize    = 20
)

// HandleSearch lists movies whose title contains ?q=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	limit := defaultSearchLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			h.writeError(w, "Invalid limit: "+v, http.StatusBadRequest)
			return
		}
		limit = min(n, maxSearchLimit)
	}

	movies := h.service.Engine().Search(r.URL.Query().Get("q"), limit)
	if movies == nil {
		movies = []models.MovieRecord{}
	}
	h.writeJSON(w, http.StatusOK, movies)
}

// HandleFeatured returns ?n= random movies from the local table
func (h *Handler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	n, ok := h.showcaseSize(w, r)
	if !ok {
		return
	}

	movies := h.service.Featured(n)
	if movies == nil {
		movies = []models.MovieRecord{}
	}
	h.writeJSON(w, http.StatusOK, movies)
}

// HandleTrending returns ?n= random movies enriched with metadata
func (h *Handler) HandleTrending(w http.ResponseWriter, r *http.Request) {
	n, ok := h.showcaseSize(w, r)
	if !ok {
		return
	}

	result, err := h.service.Trending(r.Context(), n)
	if err != nil {
		h.writeError(w, "Unable to load trending movies: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// showcaseSize parses ?n=, returning 0 (the service default) when it is absent
func (h *Handler) showcaseSize(w http.ResponseWriter, r *http.Request) (int, bool) {
	v := r.URL.Query().Get("n")
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		h.writeError(w, "Invalid n: "+v, http.StatusBadRequest)
		return 0, false
	}
	return min(n, maxShowcaseSize), true
}

// HandleMovieDetails returns the metadata record for one movie id
func (h *Handler) HandleMovieDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.writeError(w, "Invalid movie id", http.StatusBadRequest)
		return
	}

	rec, err := h.service.Details(r.Context(), id)
	if err != nil {
		if errors.Is(err, recommend.ErrNotFound) {
			h.writeError(w, "Movie not found", http.StatusNotFound)
			return
		}
		h.writeError(w, "Unable to load movie details: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}
