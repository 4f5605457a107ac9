package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore handles persistence against the relational backend
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres creates a pool and verifies the connection
func OpenPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(pool), nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Close releases the pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Seat Preference Operations ---

// GetSeatPreference returns the preference row of a user
func (s *PostgresStore) GetSeatPreference(ctx context.Context, userID string) (*models.SeatPreference, error) {
	query := `
		SELECT user_id, preference_type, updated_at
		FROM seat_preferences
		WHERE user_id = $1
	`

	var p models.SeatPreference
	err := s.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.PreferenceType, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get seat preference: %w", err)
	}
	return &p, nil
}

// UpsertSeatPreference creates or replaces the preference of a user
func (s *PostgresStore) UpsertSeatPreference(ctx context.Context, pref models.SeatPreference) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO seat_preferences (user_id, preference_type, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET preference_type = EXCLUDED.preference_type, updated_at = NOW()
	`, pref.UserID, pref.PreferenceType)
	if err != nil {
		return fmt.Errorf("failed to upsert seat preference: %w", err)
	}
	return nil
}

// --- Booking History Operations ---

// InsertHistory appends a booking history row
func (s *PostgresStore) InsertHistory(ctx context.Context, record *models.HistoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO booking_history (id, user_id, request_id, num_seats, seat_preference, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.pool.Exec(ctx, query,
		record.ID, record.UserID, record.RequestID, record.NumSeats,
		nullablePreference(record.SeatPreference), record.Status, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking history: %w", err)
	}
	return nil
}

// ListHistory returns the most recent history rows of a user, newest first
func (s *PostgresStore) ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	query := `
		SELECT id, user_id, request_id, num_seats, seat_preference, status,
		       allocated_seats, error_message, created_at
		FROM booking_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query booking history: %w", err)
	}
	defer rows.Close()

	records := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var r models.HistoryRecord
		var preference *string
		err := rows.Scan(
			&r.ID, &r.UserID, &r.RequestID, &r.NumSeats, &preference, &r.Status,
			&r.AllocatedSeats, &r.ErrorMessage, &r.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking history: %w", err)
		}
		if preference != nil {
			r.SeatPreference = models.PreferenceType(*preference)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking history: %w", err)
	}

	return records, nil
}

func nullablePreference(p models.PreferenceType) *string {
	if p == "" {
		return nil
	}
	v := string(p)
	return &v
}
