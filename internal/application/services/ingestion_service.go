package services

import (
	"context"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/overpass"
	"github.com/nearamenities/backend/internal/infrastructure/observability"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// IngestionSummary reports one fetch-normalize-upsert cycle.
type IngestionSummary struct {
	ElementsFetched  int `json:"elements_fetched"`
	ElementsDropped  int `json:"elements_dropped"`
	AmenitiesCreated int `json:"amenities_created"`
	AmenitiesUpdated int `json:"amenities_updated"`
}

// IngestionService hydrates raw geodata into canonical amenity storage.
// Ingestion is idempotent; re-running the same category and box replaces
// records instead of duplicating them.
type IngestionService struct {
	client  overpass.Client
	repo    repositories.AmenityRepository
	metrics *observability.Metrics
}

// NewIngestionService creates a new ingestion service. metrics may be nil.
func NewIngestionService(client overpass.Client, repo repositories.AmenityRepository, metrics *observability.Metrics) *IngestionService {
	return &IngestionService{
		client:  client,
		repo:    repo,
		metrics: metrics,
	}
}

// Sync fetches elements for one category inside the box, normalizes them
// and upserts the result.
func (s *IngestionService) Sync(ctx context.Context, category entities.Category, bbox overpass.BoundingBox) (*IngestionSummary, error) {
	filters := QueryForCategory(category)
	if len(filters) == 0 {
		return nil, apperrors.NewValidationError("unknown amenity category")
	}

	elements, err := s.client.Fetch(ctx, overpass.Query{
		Filters: filters,
		BBox:    bbox,
	})
	if err != nil {
		return nil, err
	}

	amenities := NormalizeElements(elements, category)

	summary := &IngestionSummary{
		ElementsFetched: len(elements),
		ElementsDropped: len(elements) - len(amenities),
	}

	for _, amenity := range amenities {
		_, err := s.repo.GetByExternalID(ctx, amenity.ExternalID)
		switch {
		case err == nil:
			summary.AmenitiesUpdated++
		case apperrors.IsNotFound(err):
			summary.AmenitiesCreated++
		default:
			return summary, err
		}

		if err := s.repo.Upsert(ctx, amenity); err != nil {
			return summary, err
		}
	}

	if s.metrics != nil {
		observability.RecordIngestMetric(ctx, s.metrics, string(category), len(amenities), summary.ElementsDropped)
	}

	return summary, nil
}
