package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearamenities/backend/internal/api/handlers"
	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

type stubModerationService struct {
	lastFilter   repositories.ReviewFilter
	moderated    []services.ModerationInput
	moderatorIDs []string
}

func (s *stubModerationService) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	s.lastFilter = filter
	return []*entities.Review{{ID: "review-1", Status: *filter.Status}}, nil
}

func (s *stubModerationService) Moderate(ctx context.Context, id, moderatorID string, input services.ModerationInput) (*entities.Review, error) {
	s.moderated = append(s.moderated, input)
	s.moderatorIDs = append(s.moderatorIDs, moderatorID)
	return &entities.Review{ID: id, Status: input.Status, ModeratorID: &moderatorID}, nil
}

func (s *stubModerationService) Stats(ctx context.Context) (*services.ReviewStats, error) {
	return &services.ReviewStats{Total: 3, Pending: 2, Approved: 1}, nil
}

func (s *stubModerationService) RecentActions(ctx context.Context, limit int) ([]*entities.AdminAction, error) {
	return []*entities.AdminAction{{ID: "action-1", Action: "moderate_review_approved"}}, nil
}

func TestModerationHandler_ListPending(t *testing.T) {
	service := &stubModerationService{}
	handler := handlers.NewModerationHandler(service)

	req := httptest.NewRequest("GET", "/api/moderation/pending", nil)
	w := httptest.NewRecorder()
	handler.ListPending(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, service.lastFilter.Status)
	assert.Equal(t, entities.ReviewStatusPending, *service.lastFilter.Status)
	assert.Equal(t, 50, service.lastFilter.Limit)
}

func TestModerationHandler_ListFlagged_CustomLimit(t *testing.T) {
	service := &stubModerationService{}
	handler := handlers.NewModerationHandler(service)

	req := httptest.NewRequest("GET", "/api/moderation/flagged?limit=10", nil)
	w := httptest.NewRecorder()
	handler.ListFlagged(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entities.ReviewStatusFlagged, *service.lastFilter.Status)
	assert.Equal(t, 10, service.lastFilter.Limit)
}

func TestModerationHandler_ListFlagged_LimitOutOfRangeIgnored(t *testing.T) {
	service := &stubModerationService{}
	handler := handlers.NewModerationHandler(service)

	req := httptest.NewRequest("GET", "/api/moderation/flagged?limit=9999", nil)
	w := httptest.NewRecorder()
	handler.ListFlagged(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, service.lastFilter.Limit)
}

func TestModerationHandler_ModerateReview_Success(t *testing.T) {
	service := &stubModerationService{}
	handler := handlers.NewModerationHandler(service)

	body := `{"moderator_id":"mod-1","status":"approved","note":"ok","verified":true}`
	req := httptest.NewRequest("POST", "/api/moderation/reviews/review-1", strings.NewReader(body))
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()
	handler.ModerateReview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, service.moderated, 1)
	assert.Equal(t, entities.ReviewStatusApproved, service.moderated[0].Status)
	assert.Equal(t, "mod-1", service.moderatorIDs[0])
	assert.NotNil(t, service.moderated[0].Verified)
	assert.True(t, *service.moderated[0].Verified)
}

func TestModerationHandler_ModerateReview_RequiresModeratorID(t *testing.T) {
	handler := handlers.NewModerationHandler(&stubModerationService{})

	body := `{"status":"approved"}`
	req := httptest.NewRequest("POST", "/api/moderation/reviews/review-1", strings.NewReader(body))
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()
	handler.ModerateReview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationHandler_ModerateReview_UnknownStatus(t *testing.T) {
	handler := handlers.NewModerationHandler(&stubModerationService{})

	body := `{"moderator_id":"mod-1","status":"banished"}`
	req := httptest.NewRequest("POST", "/api/moderation/reviews/review-1", strings.NewReader(body))
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()
	handler.ModerateReview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModerationHandler_GetStats(t *testing.T) {
	handler := handlers.NewModerationHandler(&stubModerationService{})

	req := httptest.NewRequest("GET", "/api/moderation/stats", nil)
	w := httptest.NewRecorder()
	handler.GetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats services.ReviewStats
	err := json.NewDecoder(w.Body).Decode(&stats)
	assert.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
}

func TestModerationHandler_ListActions(t *testing.T) {
	handler := handlers.NewModerationHandler(&stubModerationService{})

	req := httptest.NewRequest("GET", "/api/moderation/actions", nil)
	w := httptest.NewRecorder()
	handler.ListActions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Actions []*entities.AdminAction `json:"actions"`
		Count   int                     `json:"count"`
	}
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 1, response.Count)
	assert.Equal(t, "moderate_review_approved", response.Actions[0].Action)
}
