package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nearamenities/backend/internal/application/services"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/infrastructure/clients/overpass"
)

// IngestionTrigger defines the ingestion operation used by the handler.
type IngestionTrigger interface {
	Sync(ctx context.Context, category entities.Category, bbox overpass.BoundingBox) (*services.IngestionSummary, error)
}

// IngestionHandler triggers a fetch-normalize-upsert cycle for one
// category and bounding box.
type IngestionHandler struct {
	service IngestionTrigger
}

// NewIngestionHandler creates a new ingestion handler.
func NewIngestionHandler(service IngestionTrigger) *IngestionHandler {
	return &IngestionHandler{service: service}
}

type ingestRequest struct {
	Category string  `json:"category"`
	SwLat    float64 `json:"sw_lat"`
	SwLng    float64 `json:"sw_lng"`
	NeLat    float64 `json:"ne_lat"`
	NeLng    float64 `json:"ne_lng"`
}

// TriggerIngestion handles POST /api/ingest
func (h *IngestionHandler) TriggerIngestion(w http.ResponseWriter, r *http.Request) {
	var payload ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	category, ok := entities.ParseCategory(payload.Category)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "unknown or missing category")
		return
	}
	if payload.SwLat > payload.NeLat || payload.SwLng > payload.NeLng {
		respondWithError(w, http.StatusBadRequest, "invalid bounding box")
		return
	}

	summary, err := h.service.Sync(r.Context(), category, overpass.BoundingBox{
		SouthLat: payload.SwLat,
		WestLng:  payload.SwLng,
		NorthLat: payload.NeLat,
		EastLng:  payload.NeLng,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}
