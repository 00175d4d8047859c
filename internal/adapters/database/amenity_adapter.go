package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// AmenityAdapter implements amenity persistence in Postgres. Ingestion is
// idempotent: the upsert conflicts on external_id and replaces the whole
// row, so re-ingesting a batch never duplicates records.
type AmenityAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewAmenityAdapter creates a new amenity adapter.
func NewAmenityAdapter(client *postgres.Client) repositories.AmenityRepository {
	return &AmenityAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func amenityRecord(amenity *entities.Amenity) (goqu.Record, error) {
	attributes, err := json.Marshal(amenity.Attributes)
	if err != nil {
		return nil, err
	}
	details, err := json.Marshal(amenity.Details)
	if err != nil {
		return nil, err
	}
	rawTags, err := json.Marshal(amenity.RawTags)
	if err != nil {
		return nil, err
	}

	return goqu.Record{
		"id":          amenity.ID,
		"external_id": amenity.ExternalID,
		"category":    string(amenity.Category),
		"name":        amenity.Name,
		"latitude":    amenity.Location.Latitude,
		"longitude":   amenity.Location.Longitude,
		"attributes":  attributes,
		"details":     details,
		"raw_tags":    rawTags,
		"created_at":  amenity.CreatedAt,
		"updated_at":  amenity.UpdatedAt,
	}, nil
}

// Upsert inserts or fully replaces an amenity keyed on external_id.
func (a *AmenityAdapter) Upsert(ctx context.Context, amenity *entities.Amenity) error {
	if amenity == nil {
		return apperrors.NewInternalError("amenity is nil", fmt.Errorf("amenity is nil"))
	}

	record, err := amenityRecord(amenity)
	if err != nil {
		return apperrors.NewInternalError("failed to encode amenity", err)
	}

	update := goqu.Record{}
	for k, v := range record {
		if k == "id" || k == "external_id" || k == "created_at" {
			continue
		}
		update[k] = v
	}

	query, args, err := a.db.Insert("amenities").
		Rows(record).
		OnConflict(goqu.DoUpdate("external_id", update)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build amenity upsert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to upsert amenity", err)
	}

	return nil
}

const amenityColumns = `
	id, external_id, category, name, latitude, longitude,
	attributes, details, raw_tags, created_at, updated_at
`

func scanAmenity(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Amenity, error) {
	amenity := &entities.Amenity{}
	var attributes, details, rawTags []byte

	err := row.Scan(
		&amenity.ID,
		&amenity.ExternalID,
		&amenity.Category,
		&amenity.Name,
		&amenity.Location.Latitude,
		&amenity.Location.Longitude,
		&attributes,
		&details,
		&rawTags,
		&amenity.CreatedAt,
		&amenity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(attributes) > 0 {
		if err := json.Unmarshal(attributes, &amenity.Attributes); err != nil {
			return nil, err
		}
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &amenity.Details); err != nil {
			return nil, err
		}
	}
	if len(rawTags) > 0 {
		if err := json.Unmarshal(rawTags, &amenity.RawTags); err != nil {
			return nil, err
		}
	}

	return amenity, nil
}

// GetByID retrieves an amenity by store id.
func (a *AmenityAdapter) GetByID(ctx context.Context, id string) (*entities.Amenity, error) {
	query := fmt.Sprintf(`SELECT %s FROM amenities WHERE id = $1`, amenityColumns)

	amenity, err := scanAmenity(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get amenity", err)
	}

	return amenity, nil
}

// GetByExternalID retrieves an amenity by source-system id.
func (a *AmenityAdapter) GetByExternalID(ctx context.Context, externalID string) (*entities.Amenity, error) {
	query := fmt.Sprintf(`SELECT %s FROM amenities WHERE external_id = $1`, amenityColumns)

	amenity, err := scanAmenity(a.client.DB().QueryRowContext(ctx, query, externalID))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("amenity with external id %s not found", externalID))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get amenity", err)
	}

	return amenity, nil
}

// ListByCategory retrieves all amenities in a category.
func (a *AmenityAdapter) ListByCategory(ctx context.Context, category entities.Category) ([]*entities.Amenity, error) {
	query := fmt.Sprintf(`SELECT %s FROM amenities WHERE category = $1`, amenityColumns)

	rows, err := a.client.DB().QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list amenities", err)
	}
	defer rows.Close()

	return collectAmenities(rows)
}

// ListByBounds retrieves amenities inside the closed rectangle.
func (a *AmenityAdapter) ListByBounds(ctx context.Context, sw, ne entities.Location, category *entities.Category) ([]*entities.Amenity, error) {
	if err := ValidateBounds(sw, ne); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT %s FROM amenities
		WHERE latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, amenityColumns)
	args := []interface{}{sw.Latitude, ne.Latitude, sw.Longitude, ne.Longitude}

	if category != nil {
		query += " AND category = $5"
		args = append(args, string(*category))
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list amenities by bounds", err)
	}
	defer rows.Close()

	return collectAmenities(rows)
}

// Delete removes an amenity. Reviews are intentionally not cascaded.
func (a *AmenityAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.client.DB().ExecContext(ctx, `DELETE FROM amenities WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete amenity", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("amenity with id %s not found", id))
	}

	return nil
}

func collectAmenities(rows *sql.Rows) ([]*entities.Amenity, error) {
	amenities := []*entities.Amenity{}
	for rows.Next() {
		amenity, err := scanAmenity(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan amenity", err)
		}
		amenities = append(amenities, amenity)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating amenities", err)
	}
	return amenities, nil
}

// ValidateBounds rejects inverted rectangles. Boxes spanning the
// antimeridian or poles are refused rather than silently mishandled.
func ValidateBounds(sw, ne entities.Location) error {
	if sw.Latitude > ne.Latitude {
		return apperrors.NewValidationError("south-west latitude exceeds north-east latitude")
	}
	if sw.Longitude > ne.Longitude {
		return apperrors.NewValidationError("bounding boxes crossing the antimeridian are not supported")
	}
	return nil
}
