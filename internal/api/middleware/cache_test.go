package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testCache struct {
	entries map[string][]byte
	ttls    map[string]int
}

func newTestCache() *testCache {
	return &testCache{entries: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *testCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, ok := c.entries[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return data, nil
}

func (c *testCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.entries[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *testCache) Delete(ctx context.Context, key string) error {
	delete(c.entries, key)
	return nil
}

func (c *testCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.entries[key]
	return ok, nil
}

func countingHandler(hits *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hits++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"amenities":[],"count":` + strconv.Itoa(*hits) + `}`))
	})
}

func TestCacheMiddleware_HitServesStoredResponse(t *testing.T) {
	cache := newTestCache()
	hits := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(countingHandler(&hits))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, httptest.NewRequest("GET", "/api/amenities?category=toilet", nil))
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, httptest.NewRequest("GET", "/api/amenities?category=toilet", nil))

	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits, "second request must not reach the handler")
}

func TestCacheMiddleware_KeyIncludesQuery(t *testing.T) {
	cache := newTestCache()
	hits := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(countingHandler(&hits))

	for _, target := range []string{
		"/api/amenities?category=toilet",
		"/api/amenities?category=playground",
	} {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		assert.Equal(t, "MISS", w.Header().Get("X-Cache"), target)
	}

	assert.Equal(t, 2, hits)
}

func TestCacheMiddleware_LongestPrefixWins(t *testing.T) {
	cache := newTestCache()
	hits := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(countingHandler(&hits))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/amenities/bounds?swLat=1&swLng=1&neLat=2&neLng=2", nil))
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	for _, ttl := range cache.ttls {
		assert.Equal(t, 300, ttl, "bounds route uses the shorter TTL")
	}
}

func TestCacheMiddleware_SkipsNonGet(t *testing.T) {
	cache := newTestCache()
	hits := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(countingHandler(&hits))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/amenities", nil))

	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Empty(t, cache.entries)
}

func TestCacheMiddleware_SkipsUnconfiguredRoutes(t *testing.T) {
	cache := newTestCache()
	hits := 0
	handler := NewCacheMiddleware(cache, nil).Middleware(countingHandler(&hits))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/moderation/pending", nil))

	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Empty(t, cache.entries)
}

func TestCacheMiddleware_DoesNotCacheErrors(t *testing.T) {
	cache := newTestCache()
	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream"}`))
	})
	handler := NewCacheMiddleware(cache, nil).Middleware(failing)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/geocode?q=berlin", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, cache.entries)
}
