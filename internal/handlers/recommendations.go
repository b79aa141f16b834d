package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codehack/movierec/internal/models"
	"github.com/codehack/movierec/internal/recommend"
)

// HandleRecommendations answers ?title= or ?id= with an enriched recommendation result
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	idParam := r.URL.Query().Get("id")

	var (
		result *models.RecommendationResult
		err    error
	)
	switch {
	case idParam != "":
		id, perr := strconv.ParseInt(idParam, 10, 64)
		if perr != nil {
			h.writeError(w, "Invalid movie id", http.StatusBadRequest)
			return
		}
		result, err = h.service.RecommendByID(r.Context(), id)
	case title != "":
		result, err = h.service.Recommend(r.Context(), title)
	default:
		h.writeError(w, "Either title or id is required", http.StatusBadRequest)
		return
	}

	if err != nil {
		h.writeRecommendError(w, err, title, idParam)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeRecommendError(w http.ResponseWriter, err error, title, idParam string) {
	var ambiguous *recommend.AmbiguousTitleError

	switch {
	case errors.As(err, &ambiguous):
		h.writeJSON(w, http.StatusConflict, errorResponse{
			Error:    err.Error(),
			MovieIDs: ambiguous.MovieIDs,
		})
	case errors.Is(err, recommend.ErrNotFound):
		h.writeError(w, "Movie not found", http.StatusNotFound)
	case errors.Is(err, recommend.ErrEmptyResult):
		// Not an error for the caller: the movie exists but nothing can be recommended
		result := &models.RecommendationResult{Recommendations: []models.Recommendation{}}
		if movie, ok := h.lookup(title, idParam); ok {
			result.Query = movie
			result.Selected = models.NewFallbackRecord(movie)
		}
		h.writeJSON(w, http.StatusOK, result)
	default:
		h.writeError(w, "Unable to build recommendations: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) lookup(title, idParam string) (models.MovieRecord, bool) {
	engine := h.service.Engine()
	if idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			return models.MovieRecord{}, false
		}
		movie, err := engine.ResolveID(id)
		return movie, err == nil
	}
	movie, err := engine.Resolve(title)
	return movie, err == nil
}
