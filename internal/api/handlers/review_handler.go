package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/providers"
	"github.com/nearamenities/backend/internal/domain/repositories"
)

const (
	reviewRateLimit   = 5
	reviewRateWindow  = time.Hour
	reviewDedupWindow = 24 * time.Hour
)

// ReviewLifecycle defines the review operations used by the handler.
type ReviewLifecycle interface {
	Submit(ctx context.Context, input services.ReviewInput) (*entities.Review, error)
	List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error)
	Flag(ctx context.Context, id, flaggerID string) (*entities.Review, error)
	MarkHelpful(ctx context.Context, id string) (*entities.Review, error)
	Update(ctx context.Context, id, authorID string, update services.ReviewUpdate) (*entities.Review, error)
	Delete(ctx context.Context, id, authorID string) error
}

// ReviewHandler handles public review submissions and interactions. The
// submission endpoint is rate-limited per client and deduplicated by
// content fingerprint, via the shared cache when available.
type ReviewHandler struct {
	service ReviewLifecycle
	cache   providers.CacheProvider
	local   *localRateLimiter
	deduper *localDeduper
}

// NewReviewHandler creates a new review handler. cache may be nil; rate
// limiting then falls back to per-process state.
func NewReviewHandler(service ReviewLifecycle, cache providers.CacheProvider) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		cache:   cache,
		local:   newLocalRateLimiter(),
		deduper: newLocalDeduper(),
	}
}

type reviewRequest struct {
	AuthorID *string `json:"author_id,omitempty"`
	Nickname string  `json:"nickname"`

	CleanlinessRating int `json:"cleanliness_rating"`

	HasToiletPaper string  `json:"has_toilet_paper,omitempty"`
	HasMirror      string  `json:"has_mirror,omitempty"`
	HasHotWater    string  `json:"has_hot_water,omitempty"`
	HasSoap        string  `json:"has_soap,omitempty"`
	HasSanitaryBin string  `json:"has_sanitary_bin,omitempty"`
	HandDryer      *string `json:"hand_dryer,omitempty"`

	PhotoRef *string `json:"photo_ref,omitempty"`
	Comments *string `json:"comments,omitempty"`

	ContactType *string `json:"contact_type,omitempty"`
	ContactInfo *string `json:"contact_info,omitempty"`
}

// SubmitReview handles POST /api/amenities/{id}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	amenityID := r.PathValue("id")
	if amenityID == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	var payload reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	key := "review:rate:" + clientIP(r)
	allowed, retryAfter := h.allowRequest(r.Context(), key)
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
		respondWithError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	dupKey := "review:dup:" + reviewFingerprint(amenityID, payload, clientIP(r))
	if h.isDuplicate(r.Context(), dupKey) {
		respondWithJSON(w, http.StatusAccepted, map[string]string{
			"status": "duplicate_ignored",
		})
		return
	}

	input := services.ReviewInput{
		AmenityID:         amenityID,
		AuthorID:          payload.AuthorID,
		Nickname:          payload.Nickname,
		CleanlinessRating: payload.CleanlinessRating,
		HasToiletPaper:    entities.TriState(payload.HasToiletPaper),
		HasMirror:         entities.TriState(payload.HasMirror),
		HasHotWater:       entities.TriState(payload.HasHotWater),
		HasSoap:           entities.TriState(payload.HasSoap),
		HasSanitaryBin:    entities.TriState(payload.HasSanitaryBin),
		PhotoRef:          payload.PhotoRef,
		Comments:          payload.Comments,
	}
	if payload.HandDryer != nil {
		hd := entities.HandDryerType(*payload.HandDryer)
		input.HandDryer = &hd
	}
	if payload.ContactType != nil && payload.ContactInfo != nil {
		ct := entities.ContactType(*payload.ContactType)
		input.ContactType = &ct
		input.ContactInfo = payload.ContactInfo
	}

	review, err := h.service.Submit(r.Context(), input)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, review)
}

// ListReviews handles GET /api/amenities/{id}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	amenityID := r.PathValue("id")
	if amenityID == "" {
		respondWithError(w, http.StatusBadRequest, "amenity ID is required")
		return
	}

	filter := repositories.ReviewFilter{
		AmenityID: amenityID,
		Limit:     30,
	}

	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := entities.ParseReviewStatus(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, "unknown review status")
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 && limit <= 100 {
			filter.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
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

type reviewUpdateRequest struct {
	AuthorID string `json:"author_id"`

	CleanlinessRating *int    `json:"cleanliness_rating,omitempty"`
	HasToiletPaper    *string `json:"has_toilet_paper,omitempty"`
	HasMirror         *string `json:"has_mirror,omitempty"`
	HasHotWater       *string `json:"has_hot_water,omitempty"`
	HasSoap           *string `json:"has_soap,omitempty"`
	HasSanitaryBin    *string `json:"has_sanitary_bin,omitempty"`
	HandDryer         *string `json:"hand_dryer,omitempty"`
	PhotoRef          *string `json:"photo_ref,omitempty"`
	Comments          *string `json:"comments,omitempty"`
}

// UpdateReview handles PATCH /api/reviews/{id}
func (h *ReviewHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "review ID is required")
		return
	}

	var payload reviewUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(payload.AuthorID) == "" {
		respondWithError(w, http.StatusBadRequest, "author_id is required")
		return
	}

	update := services.ReviewUpdate{
		CleanlinessRating: payload.CleanlinessRating,
		PhotoRef:          payload.PhotoRef,
		Comments:          payload.Comments,
	}
	update.HasToiletPaper = triStatePtr(payload.HasToiletPaper)
	update.HasMirror = triStatePtr(payload.HasMirror)
	update.HasHotWater = triStatePtr(payload.HasHotWater)
	update.HasSoap = triStatePtr(payload.HasSoap)
	update.HasSanitaryBin = triStatePtr(payload.HasSanitaryBin)
	if payload.HandDryer != nil {
		hd := entities.HandDryerType(*payload.HandDryer)
		update.HandDryer = &hd
	}

	review, err := h.service.Update(r.Context(), id, payload.AuthorID, update)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "review ID is required")
		return
	}

	authorID := r.URL.Query().Get("author_id")
	if authorID == "" {
		respondWithError(w, http.StatusBadRequest, "author_id is required")
		return
	}

	if err := h.service.Delete(r.Context(), id, authorID); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type flagRequest struct {
	FlaggerID string `json:"flagger_id"`
}

// FlagReview handles POST /api/reviews/{id}/flag
func (h *ReviewHandler) FlagReview(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "review ID is required")
		return
	}

	var payload flagRequest
	_ = json.NewDecoder(r.Body).Decode(&payload)
	flaggerID := payload.FlaggerID
	if flaggerID == "" {
		flaggerID = clientIP(r)
	}

	review, err := h.service.Flag(r.Context(), id, flaggerID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

// MarkHelpful handles POST /api/reviews/{id}/helpful
func (h *ReviewHandler) MarkHelpful(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "review ID is required")
		return
	}

	review, err := h.service.MarkHelpful(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, review)
}

func triStatePtr(value *string) *entities.TriState {
	if value == nil {
		return nil
	}
	ts := entities.TriState(*value)
	return &ts
}

func (h *ReviewHandler) allowRequest(ctx context.Context, key string) (bool, time.Duration) {
	if h.cache == nil {
		return h.local.allow(key, reviewRateLimit, reviewRateWindow)
	}

	state := rateLimitState{}
	if data, err := h.cache.Get(ctx, key); err == nil {
		_ = json.Unmarshal(data, &state)
	}

	if state.Count >= reviewRateLimit {
		return false, reviewRateWindow
	}

	state.Count++
	data, _ := json.Marshal(state)
	_ = h.cache.Set(ctx, key, data, int(reviewRateWindow.Seconds()))
	return true, reviewRateWindow
}

type rateLimitState struct {
	Count int `json:"count"`
}

func (h *ReviewHandler) isDuplicate(ctx context.Context, key string) bool {
	if h.cache == nil {
		return h.deduper.seen(key, reviewDedupWindow)
	}

	exists, err := h.cache.Exists(ctx, key)
	if err == nil && exists {
		return true
	}

	_ = h.cache.Set(ctx, key, []byte("1"), int(reviewDedupWindow.Seconds()))
	return false
}

type localRateLimiter struct {
	mu     sync.Mutex
	states map[string]*localRateState
}

type localRateState struct {
	count   int
	resetAt time.Time
}

func newLocalRateLimiter() *localRateLimiter {
	return &localRateLimiter{
		states: make(map[string]*localRateState),
	}
}

func (l *localRateLimiter) allow(key string, limit int, window time.Duration) (bool, time.Duration) {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.states[key]
	if !ok || now.After(state.resetAt) {
		state = &localRateState{count: 0, resetAt: now.Add(window)}
		l.states[key] = state
	}

	if state.count >= limit {
		retryAfter := time.Until(state.resetAt)
		if retryAfter < 0 {
			retryAfter = window
		}
		return false, retryAfter
	}

	state.count++
	return true, window
}

type localDeduper struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newLocalDeduper() *localDeduper {
	return &localDeduper{
		entries: make(map[string]time.Time),
	}
}

func (d *localDeduper) seen(key string, window time.Duration) bool {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if expiresAt, ok := d.entries[key]; ok && now.Before(expiresAt) {
		return true
	}

	d.entries[key] = now.Add(window)
	return false
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

func reviewFingerprint(amenityID string, payload reviewRequest, ip string) string {
	comments := ""
	if payload.Comments != nil {
		comments = *payload.Comments
	}

	normalized := []string{
		amenityID,
		strconv.Itoa(payload.CleanlinessRating),
		normalizeText(payload.Nickname),
		normalizeText(comments),
		ip,
	}

	hash := sha256.Sum256([]byte(strings.Join(normalized, "|")))
	return hex.EncodeToString(hash[:])
}

func normalizeText(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return ""
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
