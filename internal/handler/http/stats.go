package http

import (
	"Shortr-Backend/internal/repository"
	"Shortr-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// StatsHandler serves the public stats projection of a link.
type StatsHandler struct {
	statsService *service.StatsService
	log          *zap.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(statsService *service.StatsService, log *zap.Logger) *StatsHandler {
	return &StatsHandler{
		statsService: statsService,
		log:          log,
	}
}

// StatsResponse is the public stats shape
type StatsResponse struct {
	LongURL   string `json:"longURL"`
	ShortCode string `json:"shortCode"`
	Visited   int64  `json:"visited"`
}

// GetStats returns stats for one short code.
//
//	@Summary		Link statistics
//	@Tags			Stats
//	@Produce		json
//	@Param			code	path		string	true	"Short code"
//	@Success		200		{object}	StatsResponse
//	@Failure		404		{object}	map[string]string	"Unknown short code"
//	@Router			/api/stats/{code} [get]
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 || pathParts[2] == "" {
		h.writeError(w, "Short code is required", http.StatusBadRequest)
		return
	}
	code := pathParts[2]

	stats, err := h.statsService.StatsFor(r.Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			h.writeError(w, "Link not found", http.StatusNotFound)
			return
		}
		h.log.Error("failed to load stats", zap.String("short_code", code), zap.Error(err))
		h.writeError(w, "Failed to retrieve stats", http.StatusInternalServerError)
		return
	}

	response := StatsResponse{
		LongURL:   stats.LongURL,
		ShortCode: stats.ShortCode,
		Visited:   stats.VisitCount,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

func (h *StatsHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
