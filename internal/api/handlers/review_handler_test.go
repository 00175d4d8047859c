package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nearamenities/backend/internal/api/handlers"
	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

type stubReviewService struct {
	submitted []services.ReviewInput
	flagged   []string
	submitErr error
	updateErr error
	deleteErr error
}

func (s *stubReviewService) Submit(ctx context.Context, input services.ReviewInput) (*entities.Review, error) {
	if s.submitErr != nil {
		return nil, s.submitErr
	}
	s.submitted = append(s.submitted, input)
	return &entities.Review{
		ID:                "review-1",
		AmenityID:         input.AmenityID,
		Nickname:          input.Nickname,
		CleanlinessRating: input.CleanlinessRating,
		Status:            entities.ReviewStatusPending,
	}, nil
}

func (s *stubReviewService) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	return []*entities.Review{}, nil
}

func (s *stubReviewService) Flag(ctx context.Context, id, flaggerID string) (*entities.Review, error) {
	s.flagged = append(s.flagged, flaggerID)
	return &entities.Review{ID: id, FlagCount: 1, Status: entities.ReviewStatusPending}, nil
}

func (s *stubReviewService) MarkHelpful(ctx context.Context, id string) (*entities.Review, error) {
	return &entities.Review{ID: id, HelpfulCount: 1}, nil
}

func (s *stubReviewService) Update(ctx context.Context, id, authorID string, update services.ReviewUpdate) (*entities.Review, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &entities.Review{ID: id, AuthorID: &authorID}, nil
}

func (s *stubReviewService) Delete(ctx context.Context, id, authorID string) error {
	return s.deleteErr
}

func submitRequest(body, remoteAddr string) *http.Request {
	req := httptest.NewRequest("POST", "/api/amenities/amenity-1/reviews", strings.NewReader(body))
	req.SetPathValue("id", "amenity-1")
	req.RemoteAddr = remoteAddr
	return req
}

func TestReviewHandler_SubmitReview_Success(t *testing.T) {
	service := &stubReviewService{}
	handler := handlers.NewReviewHandler(service, nil)

	body := `{"nickname":"maria","cleanliness_rating":4,"has_soap":"yes"}`
	w := httptest.NewRecorder()
	handler.SubmitReview(w, submitRequest(body, "10.0.0.1:1234"))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, service.submitted, 1)
	assert.Equal(t, "amenity-1", service.submitted[0].AmenityID)
	assert.Equal(t, entities.TriState("yes"), service.submitted[0].HasSoap)

	var response entities.Review
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, entities.ReviewStatusPending, response.Status)
}

func TestReviewHandler_SubmitReview_InvalidPayload(t *testing.T) {
	handler := handlers.NewReviewHandler(&stubReviewService{}, nil)

	w := httptest.NewRecorder()
	handler.SubmitReview(w, submitRequest("{not json", "10.0.0.1:1234"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_SubmitReview_ValidationError(t *testing.T) {
	service := &stubReviewService{submitErr: apperrors.NewValidationError("cleanliness rating must be between 1 and 5")}
	handler := handlers.NewReviewHandler(service, nil)

	body := `{"nickname":"maria","cleanliness_rating":9}`
	w := httptest.NewRecorder()
	handler.SubmitReview(w, submitRequest(body, "10.0.0.1:1234"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_SubmitReview_RateLimit(t *testing.T) {
	service := &stubReviewService{}
	handler := handlers.NewReviewHandler(service, nil)

	for i := 0; i < 5; i++ {
		body := fmt.Sprintf(`{"nickname":"maria","cleanliness_rating":4,"comments":"visit %d"}`, i)
		w := httptest.NewRecorder()
		handler.SubmitReview(w, submitRequest(body, "10.0.0.2:1234"))
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	body := `{"nickname":"maria","cleanliness_rating":4,"comments":"one too many"}`
	w := httptest.NewRecorder()
	handler.SubmitReview(w, submitRequest(body, "10.0.0.2:1234"))

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Len(t, service.submitted, 5)
}

func TestReviewHandler_SubmitReview_Duplicate(t *testing.T) {
	service := &stubReviewService{}
	handler := handlers.NewReviewHandler(service, nil)

	body := `{"nickname":"maria","cleanliness_rating":4,"comments":"clean and bright"}`
	w := httptest.NewRecorder()
	handler.SubmitReview(w, submitRequest(body, "10.0.0.3:1234"))
	assert.Equal(t, http.StatusCreated, w.Code)

	w2 := httptest.NewRecorder()
	handler.SubmitReview(w2, submitRequest(body, "10.0.0.3:1234"))

	assert.Equal(t, http.StatusAccepted, w2.Code)
	assert.Len(t, service.submitted, 1)

	var response map[string]string
	err := json.NewDecoder(w2.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, "duplicate_ignored", response["status"])
}

func TestReviewHandler_FlagReview_FallsBackToClientIP(t *testing.T) {
	service := &stubReviewService{}
	handler := handlers.NewReviewHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/reviews/review-1/flag", strings.NewReader(`{}`))
	req.SetPathValue("id", "review-1")
	req.RemoteAddr = "10.0.0.4:1234"
	w := httptest.NewRecorder()

	handler.FlagReview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"10.0.0.4"}, service.flagged)
}

func TestReviewHandler_FlagReview_UsesBodyFlaggerID(t *testing.T) {
	service := &stubReviewService{}
	handler := handlers.NewReviewHandler(service, nil)

	req := httptest.NewRequest("POST", "/api/reviews/review-1/flag", strings.NewReader(`{"flagger_id":"user-9"}`))
	req.SetPathValue("id", "review-1")
	req.RemoteAddr = "10.0.0.4:1234"
	w := httptest.NewRecorder()

	handler.FlagReview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"user-9"}, service.flagged)
}

func TestReviewHandler_UpdateReview_RequiresAuthorID(t *testing.T) {
	handler := handlers.NewReviewHandler(&stubReviewService{}, nil)

	req := httptest.NewRequest("PATCH", "/api/reviews/review-1", strings.NewReader(`{"cleanliness_rating":5}`))
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()

	handler.UpdateReview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_UpdateReview_MismatchedAuthorReadsNotFound(t *testing.T) {
	service := &stubReviewService{updateErr: apperrors.NewNotFoundError("review with id review-1 not found")}
	handler := handlers.NewReviewHandler(service, nil)

	req := httptest.NewRequest("PATCH", "/api/reviews/review-1", strings.NewReader(`{"author_id":"intruder","cleanliness_rating":5}`))
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()

	handler.UpdateReview(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReviewHandler_DeleteReview_RequiresAuthorID(t *testing.T) {
	handler := handlers.NewReviewHandler(&stubReviewService{}, nil)

	req := httptest.NewRequest("DELETE", "/api/reviews/review-1", nil)
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()

	handler.DeleteReview(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewHandler_DeleteReview_Success(t *testing.T) {
	handler := handlers.NewReviewHandler(&stubReviewService{}, nil)

	req := httptest.NewRequest("DELETE", "/api/reviews/review-1?author_id=author-1", nil)
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()

	handler.DeleteReview(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReviewHandler_MarkHelpful(t *testing.T) {
	handler := handlers.NewReviewHandler(&stubReviewService{}, nil)

	req := httptest.NewRequest("POST", "/api/reviews/review-1/helpful", nil)
	req.SetPathValue("id", "review-1")
	w := httptest.NewRecorder()

	handler.MarkHelpful(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response entities.Review
	err := json.NewDecoder(w.Body).Decode(&response)
	assert.NoError(t, err)
	assert.Equal(t, 1, response.HelpfulCount)
}
