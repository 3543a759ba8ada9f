package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
)

func (r *reviewRepository) Create(ctx context.Context, review *model.Review, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	review.ID = uuid.New()
	review.CreatedAt = time.Now()
	review.UpdatedAt = time.Now()

	// reviews.booking_id carries a unique constraint, so a concurrent
	// duplicate review loses here and the whole transaction rolls back.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reviews (
			id, booking_id, client_id, provider_id,
			punctuality, quality, communication, professionalism,
			average_score, comment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		review.ID, review.BookingID, review.ClientID, review.ProviderID,
		review.Punctuality, review.Quality, review.Communication,
		review.Professionalism, review.AverageScore, review.Comment,
		review.CreatedAt, review.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	// Full recomputation over the review set rather than an incremental
	// running average; correct under concurrent inserts at this scale.
	var scores []float64
	err = tx.SelectContext(ctx, &scores, `
		SELECT average_score FROM reviews WHERE provider_id = $1`,
		review.ProviderID,
	)
	if err != nil {
		return fmt.Errorf("failed to load provider scores: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE providers SET rating = $2, updated_at = $3 WHERE id = $1`,
		review.ProviderID, model.ProviderRating(scores), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to recompute provider rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*model.Review, error) {
	query := `
		SELECT id, booking_id, client_id, provider_id,
			   punctuality, quality, communication, professionalism,
			   average_score, comment, created_at, updated_at
		FROM reviews
		WHERE booking_id = $1
	`
	var review model.Review
	err := r.db.GetContext(ctx, &review, query, bookingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) ListForProvider(ctx context.Context, providerID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT id, booking_id, client_id, provider_id,
			   punctuality, quality, communication, professionalism,
			   average_score, comment, created_at, updated_at
		FROM reviews
		WHERE provider_id = $1
		ORDER BY created_at DESC
	`
	var reviews []*model.Review
	err := r.db.SelectContext(ctx, &reviews, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
