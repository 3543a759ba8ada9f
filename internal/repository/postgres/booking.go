package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serviceloop/marketplace-api/internal/model"
	"github.com/serviceloop/marketplace-api/internal/repository"
)

const bookingColumns = `
	id, client_id, provider_id, service_id, start_time, end_time,
	address, access_instructions, special_instructions,
	base_amount, premium, discount, final_amount, commission,
	status, payment_status, idempotency_key, created_at, updated_at
`

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the provider row so concurrent creates for the same provider
	// serialize on the conflict check.
	if err := lockProvider(ctx, tx, booking.ProviderID); err != nil {
		return err
	}

	conflict, err := hasOverlap(ctx, tx, booking.ProviderID, booking.StartTime, booking.EndTime, nil)
	if err != nil {
		return err
	}
	if conflict {
		return repository.ErrBookingConflict
	}

	booking.ID = uuid.New()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
				$15, $16, $17, $18, $19)`,
		booking.ID, booking.ClientID, booking.ProviderID, booking.ServiceID,
		booking.StartTime, booking.EndTime, booking.Address,
		booking.AccessInstructions, booking.SpecialInstructions,
		booking.BaseAmount, booking.Premium, booking.Discount,
		booking.FinalAmount, booking.Commission, booking.Status,
		booking.PaymentStatus, booking.IdempotencyKey,
		booking.CreatedAt, booking.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) GetByIdempotencyKey(ctx context.Context, clientID uuid.UUID, key string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE client_id = $1 AND idempotency_key = $2`

	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, clientID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking by idempotency key: %w", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking, event *model.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := lockProvider(ctx, tx, booking.ProviderID); err != nil {
		return err
	}

	conflict, err := hasOverlap(ctx, tx, booking.ProviderID, booking.StartTime, booking.EndTime, &booking.ID)
	if err != nil {
		return err
	}
	if conflict {
		return repository.ErrBookingConflict
	}

	booking.UpdatedAt = time.Now()

	result, err := tx.ExecContext(ctx, `
		UPDATE bookings
		SET start_time = $1, end_time = $2, address = $3,
			access_instructions = $4, special_instructions = $5,
			base_amount = $6, premium = $7, discount = $8,
			final_amount = $9, commission = $10,
			status = $11, payment_status = $12, updated_at = $13
		WHERE id = $14`,
		booking.StartTime, booking.EndTime, booking.Address,
		booking.AccessInstructions, booking.SpecialInstructions,
		booking.BaseAmount, booking.Premium, booking.Discount,
		booking.FinalAmount, booking.Commission,
		booking.Status, booking.PaymentStatus, booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
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
		return fmt.Errorf("failed to commit booking update: %w", err)
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
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

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.ClientID != uuid.Nil {
			query += fmt.Sprintf(" AND client_id = $%d", argCount)
			args = append(args, filters.ClientID)
			argCount++
		}
		if filters.ProviderID != uuid.Nil {
			query += fmt.Sprintf(" AND provider_id = $%d", argCount)
			args = append(args, filters.ProviderID)
			argCount++
		}
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
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND start_time >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND end_time <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}

	query += " ORDER BY start_time ASC"

	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListActiveForProviderOnDate(ctx context.Context, providerID uuid.UUID, date time.Time) ([]*model.Booking, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE provider_id = $1
		AND status != 'cancelled'
		AND start_time < $3
		AND end_time > $2
		ORDER BY start_time ASC
	`
	var bookings []*model.Booking
	err := r.db.SelectContext(ctx, &bookings, query, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider bookings: %w", err)
	}
	return bookings, nil
}

func lockProvider(ctx context.Context, tx *sqlx.Tx, providerID uuid.UUID) error {
	var id uuid.UUID
	err := tx.GetContext(ctx, &id, `SELECT id FROM providers WHERE id = $1 FOR UPDATE`, providerID)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock provider: %w", err)
	}
	return nil
}

func hasOverlap(ctx context.Context, tx *sqlx.Tx, providerID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE provider_id = $1
			AND status != 'cancelled'
			AND start_time < $3
			AND end_time > $2
	`
	args := []interface{}{providerID, start, end}

	if excludeID != nil {
		query += " AND id != $4"
		args = append(args, *excludeID)
	}
	query += ")"

	var conflict bool
	if err := tx.GetContext(ctx, &conflict, query, args...); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return conflict, nil
}

func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}

	event.CreatedAt = time.Now()
	event.UpdatedAt = event.CreatedAt

	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.EventType, event.Payload, event.Status,
		event.RetryCount, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
