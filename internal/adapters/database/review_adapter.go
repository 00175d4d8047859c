package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/nearamenities/backend/internal/domain/entities"
	"github.com/nearamenities/backend/internal/domain/repositories"
	"github.com/nearamenities/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/nearamenities/backend/pkg/errors"
)

// ReviewAdapter implements review persistence in Postgres. Flag and
// MarkHelpful run as single UPDATE statements so concurrent calls cannot
// lose increments and the auto-flag check sees the post-increment count.
type ReviewAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewReviewAdapter creates a new review adapter.
func NewReviewAdapter(client *postgres.Client) repositories.ReviewRepository {
	return &ReviewAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

const reviewColumns = `
	id, amenity_id, author_id, nickname, cleanliness_rating,
	has_toilet_paper, has_mirror, has_hot_water, has_soap, has_sanitary_bin,
	hand_dryer, photo_ref, comments, contact_type, contact_info,
	status, flag_count, helpful_count,
	moderator_id, moderated_at, moderation_note, is_verified,
	created_at, updated_at
`

func reviewRecord(review *entities.Review) goqu.Record {
	return goqu.Record{
		"id":                 review.ID,
		"amenity_id":         review.AmenityID,
		"author_id":          review.AuthorID,
		"nickname":           review.Nickname,
		"cleanliness_rating": review.CleanlinessRating,
		"has_toilet_paper":   string(review.HasToiletPaper),
		"has_mirror":         string(review.HasMirror),
		"has_hot_water":      string(review.HasHotWater),
		"has_soap":           string(review.HasSoap),
		"has_sanitary_bin":   string(review.HasSanitaryBin),
		"hand_dryer":         review.HandDryer,
		"photo_ref":          review.PhotoRef,
		"comments":           review.Comments,
		"contact_type":       review.ContactType,
		"contact_info":       review.ContactInfo,
		"status":             string(review.Status),
		"flag_count":         review.FlagCount,
		"helpful_count":      review.HelpfulCount,
		"moderator_id":       review.ModeratorID,
		"moderated_at":       review.ModeratedAt,
		"moderation_note":    review.ModerationNote,
		"is_verified":        review.IsVerified,
		"created_at":         review.CreatedAt,
		"updated_at":         review.UpdatedAt,
	}
}

func scanReview(row interface {
	Scan(dest ...interface{}) error
}) (*entities.Review, error) {
	review := &entities.Review{}
	var toiletPaper, mirror, hotWater, soap, sanitaryBin string
	var handDryer, contactType, status sql.NullString

	err := row.Scan(
		&review.ID,
		&review.AmenityID,
		&review.AuthorID,
		&review.Nickname,
		&review.CleanlinessRating,
		&toiletPaper,
		&mirror,
		&hotWater,
		&soap,
		&sanitaryBin,
		&handDryer,
		&review.PhotoRef,
		&review.Comments,
		&contactType,
		&review.ContactInfo,
		&status,
		&review.FlagCount,
		&review.HelpfulCount,
		&review.ModeratorID,
		&review.ModeratedAt,
		&review.ModerationNote,
		&review.IsVerified,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	review.HasToiletPaper = entities.TriState(toiletPaper)
	review.HasMirror = entities.TriState(mirror)
	review.HasHotWater = entities.TriState(hotWater)
	review.HasSoap = entities.TriState(soap)
	review.HasSanitaryBin = entities.TriState(sanitaryBin)
	review.Status = entities.ReviewStatus(status.String)

	if handDryer.Valid {
		hd := entities.HandDryerType(handDryer.String)
		review.HandDryer = &hd
	}
	if contactType.Valid {
		ct := entities.ContactType(contactType.String)
		review.ContactType = &ct
	}

	return review, nil
}

// Create persists a new review.
func (a *ReviewAdapter) Create(ctx context.Context, review *entities.Review) error {
	query, args, err := a.db.Insert("reviews").Rows(reviewRecord(review)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create review", err)
	}

	return nil
}

// GetByID retrieves a review by id.
func (a *ReviewAdapter) GetByID(ctx context.Context, id string) (*entities.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE id = $1`, reviewColumns)

	review, err := scanReview(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get review", err)
	}

	return review, nil
}

// Update fully replaces a stored review.
func (a *ReviewAdapter) Update(ctx context.Context, review *entities.Review) error {
	record := reviewRecord(review)
	delete(record, "id")
	delete(record, "created_at")

	query, args, err := a.db.Update("reviews").
		Set(record).
		Where(goqu.C("id").Eq(review.ID)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build review update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", review.ID))
	}

	return nil
}

// Delete removes a review.
func (a *ReviewAdapter) Delete(ctx context.Context, id string) error {
	result, err := a.client.DB().ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return apperrors.NewInternalError("failed to delete review", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}

	return nil
}

// List retrieves reviews matching the filter, newest first.
func (a *ReviewAdapter) List(ctx context.Context, filter repositories.ReviewFilter) ([]*entities.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE 1=1`, reviewColumns)
	args := []interface{}{}
	argCount := 1

	if filter.AmenityID != "" {
		query += fmt.Sprintf(" AND amenity_id = $%d", argCount)
		args = append(args, filter.AmenityID)
		argCount++
	}

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, string(*filter.Status))
		argCount++
	}

	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argCount)
		args = append(args, filter.Limit)
		argCount++
	}

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argCount)
		args = append(args, filter.Offset)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list reviews", err)
	}
	defer rows.Close()

	reviews := []*entities.Review{}
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan review", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating reviews", err)
	}

	return reviews, nil
}

// Flag atomically increments the flag count and applies the auto-flag
// transition in the same statement.
func (a *ReviewAdapter) Flag(ctx context.Context, id string, threshold int) (*entities.Review, error) {
	query := fmt.Sprintf(`
		UPDATE reviews SET
			flag_count = flag_count + 1,
			status = CASE
				WHEN flag_count + 1 >= $2 AND status NOT IN ('flagged', 'rejected')
				THEN 'flagged' ELSE status
			END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, reviewColumns)

	review, err := scanReview(a.client.DB().QueryRowContext(ctx, query, id, threshold))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to flag review", err)
	}

	return review, nil
}

// MarkHelpful atomically increments the helpful count.
func (a *ReviewAdapter) MarkHelpful(ctx context.Context, id string) (*entities.Review, error) {
	query := fmt.Sprintf(`
		UPDATE reviews SET
			helpful_count = helpful_count + 1,
			updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, reviewColumns)

	review, err := scanReview(a.client.DB().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("review with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to mark review helpful", err)
	}

	return review, nil
}

// ApprovedRatings returns cleanliness ratings of approved reviews for one
// amenity.
func (a *ReviewAdapter) ApprovedRatings(ctx context.Context, amenityID string) ([]int, error) {
	query := `SELECT cleanliness_rating FROM reviews WHERE amenity_id = $1 AND status = 'approved'`

	rows, err := a.client.DB().QueryContext(ctx, query, amenityID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query approved ratings", err)
	}
	defer rows.Close()

	ratings := []int{}
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, apperrors.NewInternalError("failed to scan rating", err)
		}
		ratings = append(ratings, rating)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating ratings", err)
	}

	return ratings, nil
}

// CountByStatus returns review counts grouped by status.
func (a *ReviewAdapter) CountByStatus(ctx context.Context) (map[entities.ReviewStatus]int, error) {
	rows, err := a.client.DB().QueryContext(ctx, `SELECT status, COUNT(*) FROM reviews GROUP BY status`)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count reviews", err)
	}
	defer rows.Close()

	counts := map[entities.ReviewStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.NewInternalError("failed to scan count", err)
		}
		counts[entities.ReviewStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating counts", err)
	}

	return counts, nil
}
