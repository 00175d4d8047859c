package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nearamenities/backend/internal/adapters/memory"
	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/infrastructure/clients/overpass"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

type stubOverpassClient struct {
	elements []overpass.Element
	err      error
	queries  []overpass.Query
}

func (c *stubOverpassClient) Fetch(ctx context.Context, query overpass.Query) ([]overpass.Element, error) {
	c.queries = append(c.queries, query)
	return c.elements, c.err
}

func TestSync_CreatesAndCountsDrops(t *testing.T) {
	client := &stubOverpassClient{elements: []overpass.Element{
		{Type: "node", ID: 1, Lat: floatPtr(52.5), Lon: floatPtr(13.4), Tags: map[string]string{"name": "WC Mitte"}},
		{Type: "node", ID: 2, Lat: floatPtr(52.6), Lon: floatPtr(13.5)},
		{Type: "way", ID: 3},
	}}
	store := memory.NewAmenityStore()
	service := NewIngestionService(client, store, nil)

	summary, err := service.Sync(context.Background(), entities.CategoryToilet, overpass.BoundingBox{
		SouthLat: 52.3, WestLng: 13.0, NorthLat: 52.7, EastLng: 13.8,
	})
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if summary.ElementsFetched != 3 {
		t.Errorf("fetched = %d, want 3", summary.ElementsFetched)
	}
	if summary.ElementsDropped != 1 {
		t.Errorf("dropped = %d, want 1 for the element without coordinates", summary.ElementsDropped)
	}
	if summary.AmenitiesCreated != 2 || summary.AmenitiesUpdated != 0 {
		t.Errorf("created/updated = %d/%d, want 2/0", summary.AmenitiesCreated, summary.AmenitiesUpdated)
	}

	// The structured query carries the category's tag filters.
	if len(client.queries) != 1 {
		t.Fatalf("expected 1 fetch, got %d", len(client.queries))
	}
	if len(client.queries[0].Filters) == 0 {
		t.Error("query has no tag filters")
	}

	stored, err := store.GetByExternalID(context.Background(), "node/1")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if stored.Name != "WC Mitte" {
		t.Errorf("name = %q, want WC Mitte", stored.Name)
	}
}

func TestSync_Idempotent(t *testing.T) {
	client := &stubOverpassClient{elements: []overpass.Element{
		{Type: "node", ID: 1, Lat: floatPtr(52.5), Lon: floatPtr(13.4)},
	}}
	store := memory.NewAmenityStore()
	service := NewIngestionService(client, store, nil)
	bbox := overpass.BoundingBox{SouthLat: 52.3, WestLng: 13.0, NorthLat: 52.7, EastLng: 13.8}

	first, err := service.Sync(context.Background(), entities.CategoryToilet, bbox)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	firstStored, err := store.GetByExternalID(context.Background(), "node/1")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}

	second, err := service.Sync(context.Background(), entities.CategoryToilet, bbox)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if first.AmenitiesCreated != 1 || second.AmenitiesCreated != 0 || second.AmenitiesUpdated != 1 {
		t.Errorf("runs = %+v then %+v, want create then update", first, second)
	}

	// Re-ingesting replaces the record but keeps its identity.
	secondStored, err := store.GetByExternalID(context.Background(), "node/1")
	if err != nil {
		t.Fatalf("GetByExternalID: %v", err)
	}
	if secondStored.ID != firstStored.ID {
		t.Error("re-ingestion changed the amenity id")
	}
}

func TestSync_PropagatesFetchError(t *testing.T) {
	client := &stubOverpassClient{err: errors.New("all endpoints failed")}
	service := NewIngestionService(client, memory.NewAmenityStore(), nil)

	_, err := service.Sync(context.Background(), entities.CategoryToilet, overpass.BoundingBox{})
	if err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestSync_UnknownCategory(t *testing.T) {
	client := &stubOverpassClient{}
	service := NewIngestionService(client, memory.NewAmenityStore(), nil)

	_, err := service.Sync(context.Background(), entities.Category("spaceport"), overpass.BoundingBox{})
	if !apperrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(client.queries) != 0 {
		t.Error("unknown category must not hit the client")
	}
}
