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

func (r *providerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, user_id, service_id, hourly_rate, rating, available_days,
			   bio, status, created_at, updated_at
		FROM providers
		WHERE id = $1
	`
	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Provider, error) {
	query := `
		SELECT id, user_id, service_id, hourly_rate, rating, available_days,
			   bio, status, created_at, updated_at
		FROM providers
		WHERE user_id = $1
	`
	var provider model.Provider
	err := r.db.GetContext(ctx, &provider, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provider by user: %w", err)
	}
	return &provider, nil
}

func (r *providerRepository) Update(ctx context.Context, provider *model.Provider) error {
	// Rating is owned by the review aggregator and updated only inside the
	// review transaction, never through this method.
	query := `
		UPDATE providers
		SET hourly_rate = $1, available_days = $2, bio = $3, status = $4, updated_at = $5
		WHERE id = $6
	`
	provider.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		provider.HourlyRate,
		provider.AvailableDays,
		provider.Bio,
		provider.Status,
		provider.UpdatedAt,
		provider.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update provider: %w", err)
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

func (r *providerRepository) List(ctx context.Context, filters *model.ProviderFilters) ([]*model.Provider, error) {
	query := `
		SELECT id, user_id, service_id, hourly_rate, rating, available_days,
			   bio, status, created_at, updated_at
		FROM providers
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.ServiceID != uuid.Nil {
			query += fmt.Sprintf(" AND service_id = $%d", argCount)
			args = append(args, filters.ServiceID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.MinRating > 0 {
			query += fmt.Sprintf(" AND rating >= $%d", argCount)
			args = append(args, filters.MinRating)
			argCount++
		}
	}

	query += " ORDER BY rating DESC, created_at ASC"

	var providers []*model.Provider
	err := r.db.SelectContext(ctx, &providers, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	return providers, nil
}
