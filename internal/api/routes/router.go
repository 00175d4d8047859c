package routes

import (
	"net/http"

	"github.com/nearamenities/backend/internal/api/handlers"
	"github.com/nearamenities/backend/internal/api/middleware"
	"github.com/nearamenities/backend/internal/infrastructure/observability"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	mux *http.ServeMux

	amenityHandler    *handlers.AmenityHandler
	reviewHandler     *handlers.ReviewHandler
	moderationHandler *handlers.ModerationHandler
	geocodingHandler  *handlers.GeocodingHandler
	ingestionHandler  *handlers.IngestionHandler

	cacheMiddleware *middleware.CacheMiddleware
	metrics         *observability.Metrics
}

// NewRouter creates a new router.
func NewRouter(
	amenityHandler *handlers.AmenityHandler,
	reviewHandler *handlers.ReviewHandler,
	moderationHandler *handlers.ModerationHandler,
	geocodingHandler *handlers.GeocodingHandler,
	ingestionHandler *handlers.IngestionHandler,
	cacheMiddleware *middleware.CacheMiddleware,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:               http.NewServeMux(),
		amenityHandler:    amenityHandler,
		reviewHandler:     reviewHandler,
		moderationHandler: moderationHandler,
		geocodingHandler:  geocodingHandler,
		ingestionHandler:  ingestionHandler,
		cacheMiddleware:   cacheMiddleware,
		metrics:           metrics,
	}
}

// SetupRoutes configures all application routes.
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Amenity endpoints
	r.mux.HandleFunc("GET /api/amenities", r.amenityHandler.ListAmenities)
	r.mux.HandleFunc("GET /api/amenities/bounds", r.amenityHandler.ListAmenitiesByBounds)
	r.mux.HandleFunc("GET /api/amenities/{id}", r.amenityHandler.GetAmenity)
	r.mux.HandleFunc("GET /api/amenities/{id}/rating", r.amenityHandler.GetAmenityRating)

	// Review endpoints
	r.mux.HandleFunc("GET /api/amenities/{id}/reviews", r.reviewHandler.ListReviews)
	r.mux.HandleFunc("POST /api/amenities/{id}/reviews", r.reviewHandler.SubmitReview)
	r.mux.HandleFunc("PATCH /api/reviews/{id}", r.reviewHandler.UpdateReview)
	r.mux.HandleFunc("DELETE /api/reviews/{id}", r.reviewHandler.DeleteReview)
	r.mux.HandleFunc("POST /api/reviews/{id}/flag", r.reviewHandler.FlagReview)
	r.mux.HandleFunc("POST /api/reviews/{id}/helpful", r.reviewHandler.MarkHelpful)

	// Moderation endpoints
	r.mux.HandleFunc("GET /api/moderation/pending", r.moderationHandler.ListPending)
	r.mux.HandleFunc("GET /api/moderation/flagged", r.moderationHandler.ListFlagged)
	r.mux.HandleFunc("GET /api/moderation/stats", r.moderationHandler.GetStats)
	r.mux.HandleFunc("POST /api/moderation/reviews/{id}", r.moderationHandler.ModerateReview)
	r.mux.HandleFunc("GET /api/moderation/actions", r.moderationHandler.ListActions)

	// Ingestion endpoint
	r.mux.HandleFunc("POST /api/ingest", r.ingestionHandler.TriggerIngestion)

	// Geocoding endpoints
	r.mux.HandleFunc("GET /api/geocode", r.geocodingHandler.Geocode)
	r.mux.HandleFunc("GET /api/reverse-geocode", r.geocodingHandler.ReverseGeocode)

	// Middleware applies in reverse order; CORS is outermost so cached
	// responses carry CORS headers too.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)

	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}

	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
