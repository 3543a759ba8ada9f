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

func (r *listingRepository) Create(ctx context.Context, listing *model.Listing) error {
	query := `
		INSERT INTO listings (
			id, provider_id, type, title, description, hourly_rate,
			status, rejection_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	listing.ID = uuid.New()
	listing.CreatedAt = time.Now()
	listing.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		listing.ID,
		listing.ProviderID,
		listing.Type,
		listing.Title,
		listing.Description,
		listing.HourlyRate,
		listing.Status,
		listing.RejectionReason,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}
	return nil
}

func (r *listingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Listing, error) {
	query := `
		SELECT id, provider_id, type, title, description, hourly_rate,
			   status, rejection_reason, created_at, updated_at
		FROM listings
		WHERE id = $1
	`
	var listing model.Listing
	err := r.db.GetContext(ctx, &listing, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *model.Listing) error {
	query := `
		UPDATE listings
		SET title = $1, description = $2, hourly_rate = $3,
			status = $4, rejection_reason = $5, updated_at = $6
		WHERE id = $7
	`
	listing.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		listing.Title,
		listing.Description,
		listing.HourlyRate,
		listing.Status,
		listing.RejectionReason,
		listing.UpdatedAt,
		listing.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *listingRepository) List(ctx context.Context, providerID uuid.UUID, status model.ListingStatus) ([]*model.Listing, error) {
	query := `
		SELECT id, provider_id, type, title, description, hourly_rate,
			   status, rejection_reason, created_at, updated_at
		FROM listings
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if providerID != uuid.Nil {
		query += fmt.Sprintf(" AND provider_id = $%d", argCount)
		args = append(args, providerID)
		argCount++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, status)
		argCount++
	}

	query += " ORDER BY created_at DESC"

	var listings []*model.Listing
	err := r.db.SelectContext(ctx, &listings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}
