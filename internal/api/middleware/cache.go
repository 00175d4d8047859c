package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/nearamenities/backend/internal/domain/providers"
	"github.com/nearamenities/backend/internal/infrastructure/observability"
)

// CacheConfig holds cache behavior for one route prefix.
type CacheConfig struct {
	TTLSeconds int
	Enabled    bool
}

// CacheMiddleware provides time-boxed response caching for amenity read
// endpoints. Writes invalidate nothing; entries simply expire.
type CacheMiddleware struct {
	cache        providers.CacheProvider
	metrics      *observability.Metrics
	routeConfigs map[string]CacheConfig
}

// NewCacheMiddleware creates a new cache middleware. metrics may be nil.
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics) *CacheMiddleware {
	return &CacheMiddleware{
		cache:   cache,
		metrics: metrics,
		routeConfigs: map[string]CacheConfig{
			"/api/amenities/bounds": {TTLSeconds: 300, Enabled: true},
			"/api/amenities":        {TTLSeconds: 600, Enabled: true},
			"/api/geocode":          {TTLSeconds: 3600, Enabled: true},
			"/api/reverse-geocode":  {TTLSeconds: 3600, Enabled: true},
		},
	}
}

// Middleware returns the cache middleware handler.
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}

		config := m.routeConfig(r.URL.Path)
		if !config.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)

		if cached, err := m.cache.Get(r.Context(), key); err == nil {
			if m.metrics != nil {
				observability.RecordCacheHit(r.Context(), m.metrics, r.URL.Path)
			}
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		if m.metrics != nil {
			observability.RecordCacheMiss(r.Context(), m.metrics, r.URL.Path)
		}
		w.Header().Set("X-Cache", "MISS")

		recorder := &responseRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			_ = m.cache.Set(r.Context(), key, recorder.body.Bytes(), config.TTLSeconds)
		}
	})
}

// routeConfig returns the cache configuration for a path, longest prefix
// wins so /api/amenities/bounds beats /api/amenities.
func (m *CacheMiddleware) routeConfig(path string) CacheConfig {
	if config, ok := m.routeConfigs[path]; ok {
		return config
	}

	best := ""
	for pattern := range m.routeConfigs {
		if strings.HasPrefix(path, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return m.routeConfigs[best]
	}

	return CacheConfig{Enabled: false}
}

func cacheKey(r *http.Request) string {
	params := r.URL.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(r.URL.Path)
	for _, k := range keys {
		fmt.Fprintf(&b, "&%s=%s", k, strings.Join(params[k], ","))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "http:cache:" + hex.EncodeToString(sum[:])
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(data []byte) (int, error) {
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
