package http

import (
	"Shortr-Backend/internal/auth"
	"Shortr-Backend/internal/domain"
	"Shortr-Backend/internal/service"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// LinksHandler serves link creation, listing, bulk lookup and ownership sync.
type LinksHandler struct {
	linkService *service.LinkService
	log         *zap.Logger
}

// NewLinksHandler creates a new links handler.
func NewLinksHandler(linkService *service.LinkService, log *zap.Logger) *LinksHandler {
	return &LinksHandler{
		linkService: linkService,
		log:         log,
	}
}

// CreateLinkRequest is the link creation request body
type CreateLinkRequest struct {
	URL string `json:"URL"`
}

// LinkResponse is the public projection of a link. Owner identity and
// internal ids are never exposed.
type LinkResponse struct {
	LongURL   string `json:"longURL"`
	ShortCode string `json:"shortCode"`
	Visited   int64  `json:"visited"`
}

func toLinkResponse(link *domain.Link) LinkResponse {
	return LinkResponse{
		LongURL:   link.LongURL,
		ShortCode: link.ShortCode,
		Visited:   link.VisitCount,
	}
}

// CreateLink creates a new short link.
//
//	@Summary		Create a short link
//	@Description	Shorten a long URL; the link is attached to the caller when authenticated
//	@Tags			Links
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateLinkRequest	true	"Link creation request"
//	@Success		200		{object}	LinkResponse		"Link created"
//	@Failure		400		{object}	map[string]string	"Missing or malformed URL"
//	@Router			/ [post]
func (h *LinksHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid create link request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	// Attach the owner only when the optional auth middleware found one.
	var ownerID *int64
	if userID, ok := auth.GetUserIDFromContext(r.Context()); ok {
		ownerID = &userID
	}

	link, err := h.linkService.Create(r.Context(), req.URL, ownerID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidURL) {
			h.writeError(w, "URL is missing or not a valid absolute URL", http.StatusBadRequest)
			return
		}
		h.log.Error("failed to create link", zap.Error(err))
		h.writeError(w, "Failed to create link", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, toLinkResponse(link), http.StatusOK)
}

// ListOwned returns all links owned by the authenticated caller.
//
//	@Summary		List own links
//	@Tags			Links
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{array}		LinkResponse
//	@Failure		403	{object}	map[string]string	"Authentication required"
//	@Router			/links [get]
func (h *LinksHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusForbidden)
		return
	}

	links, err := h.linkService.GetAllForOwner(r.Context(), userID)
	if err != nil {
		h.log.Error("failed to list owner links", zap.Int64("user_id", userID), zap.Error(err))
		h.writeError(w, "Failed to retrieve links", http.StatusInternalServerError)
		return
	}

	responses := make([]LinkResponse, len(links))
	for i, link := range links {
		responses[i] = toLinkResponse(link)
	}

	h.writeJSON(w, responses, http.StatusOK)
}

// GetByIDs bulk-fetches links by id. The endpoint never fails: garbage
// and unknown ids are skipped and a storage error yields an empty array.
//
//	@Summary		Bulk fetch links by id
//	@Tags			Links
//	@Produce		json
//	@Param			ids	query		[]int	true	"Link ids"	collectionFormat(multi)
//	@Success		200	{array}		LinkResponse
//	@Router			/links-by-id [get]
func (h *LinksHandler) GetByIDs(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	for _, raw := range r.URL.Query()["ids"] {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}

	responses := make([]LinkResponse, 0, len(ids))

	links, err := h.linkService.GetByIDs(r.Context(), ids)
	if err != nil {
		h.log.Error("failed to fetch links by ids", zap.Int("id_count", len(ids)), zap.Error(err))
		h.writeJSON(w, responses, http.StatusOK)
		return
	}

	for _, link := range links {
		responses = append(responses, toLinkResponse(link))
	}

	h.writeJSON(w, responses, http.StatusOK)
}

// SyncOwnership claims the submitted short codes for the authenticated
// caller. Per-code outcomes are not reported; the call always succeeds.
//
//	@Summary		Claim anonymously created links
//	@Tags			Links
//	@Accept			json
//	@Security		BearerAuth
//	@Param			request	body	[]string	true	"Short codes to claim"
//	@Success		200		"Sync completed"
//	@Failure		403		{object}	map[string]string	"Authentication required"
//	@Router			/sync [put]
func (h *LinksHandler) SyncOwnership(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := auth.GetUserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusForbidden)
		return
	}

	var codes []string
	if err := json.NewDecoder(r.Body).Decode(&codes); err != nil {
		h.log.Debug("invalid sync request", zap.Error(err))
		h.writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	h.linkService.SyncOwnership(r.Context(), codes, userID)

	h.log.Info("ownership sync completed", zap.Int64("user_id", userID), zap.Int("code_count", len(codes)))
	w.WriteHeader(http.StatusOK)
}

// Helper methods

func (h *LinksHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func (h *LinksHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
