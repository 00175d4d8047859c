package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

// ModerationService defines the moderation operations used by the handler.
type ModerationService interface {
	List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error)
	Moderate(ctx context.Context, id, moderatorID string, input services.ModerationInput) (*entities.Review, error)
	Stats(ctx context.Context) (*services.ReviewStats, error)
	RecentActions(ctx context.Context, limit int) ([]*entities.AdminAction, error)
}

// ModerationHandler handles the moderation read surface and decisions.
type ModerationHandler struct {
	service ModerationService
}

// NewModerationHandler creates a new moderation handler.
func NewModerationHandler(service ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

// ListPending handles GET /api/moderation/pending
func (h *ModerationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, entities.ReviewStatusPending)
}

// ListFlagged handles GET /api/moderation/flagged
func (h *ModerationHandler) ListFlagged(w http.ResponseWriter, r *http.Request) {
	h.listByStatus(w, r, entities.ReviewStatusFlagged)
}

func (h *ModerationHandler) listByStatus(w http.ResponseWriter, r *http.Request, status entities.ReviewStatus) {
	filter := repositories.ReviewFilter{
		Status: &status,
		Limit:  50,
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}

	reviews, err := h.service.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// GetStats handles GET /api/moderation/stats
func (h *ModerationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, stats)
}

type moderateRequest struct {
	ModeratorID string  `json:"moderator_id"`
	Status      string  `json:"status"`
	Note        *string `json:"note,omitempty"`
	Verified    *bool   `json:"verified,omitempty"`
}

// ModerateReview handles POST /api/moderation/reviews/{id}
func (h *ModerationHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "review ID is required")
		return
	}

	var payload moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.ModeratorID) == "" {
		respondWithError(w, http.StatusBadRequest, "moderator_id is required")
		return
	}

	status, ok := entities.ParseReviewStatus(payload.Status)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown review status")
		return
	}

	review, err := h.service.Moderate(r.Context(), id, payload.ModeratorID, services.ModerationInput{
		Status:   status,
		Note:     payload.Note,
		Verified: payload.Verified,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

// ListActions handles GET /api/moderation/actions?limit=
func (h *ModerationHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	actions, err := h.service.RecentActions(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"actions": actions,
		"count":   len(actions),
	})
}
