package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore is an embedded backend for local runs
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and migrates it
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create db dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if err := ApplyMigrations(ctx, db); err != nil {
		db.Close() //nolint:errcheck
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) GetSeatPreference(ctx context.Context, userID string) (*models.SeatPreference, error) {
	var (
		p         models.SeatPreference
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT user_id, preference_type, updated_at FROM seat_preferences WHERE user_id = ?
`, userID).Scan(&p.UserID, &p.PreferenceType, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get seat preference: %w", err)
	}
	if p.UpdatedAt, err = parseTS(updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse seat preference updated_at: %w", err)
	}
	return &p, nil
}

func (s *SQLiteStore) UpsertSeatPreference(ctx context.Context, pref models.SeatPreference) error {
	now := ts(time.Now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO seat_preferences(user_id, preference_type, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	preference_type=excluded.preference_type,
	updated_at=excluded.updated_at
`, pref.UserID, string(pref.PreferenceType), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert seat preference: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertHistory(ctx context.Context, record *models.HistoryRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	var seats any
	if len(record.AllocatedSeats) > 0 {
		raw, err := json.Marshal(record.AllocatedSeats)
		if err != nil {
			return fmt.Errorf("failed to encode allocated seats: %w", err)
		}
		seats = string(raw)
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO booking_history(id, user_id, request_id, num_seats, seat_preference, status, allocated_seats, error_message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, record.ID.String(), record.UserID, record.RequestID, record.NumSeats,
		nullablePreference(record.SeatPreference), string(record.Status), seats, record.ErrorMessage, ts(record.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert booking history: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, request_id, num_seats, seat_preference, status, allocated_seats, error_message, created_at
FROM booking_history
WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ?
`, userID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query booking history: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]models.HistoryRecord, 0)
	for rows.Next() {
		var (
			r          models.HistoryRecord
			id         string
			preference sql.NullString
			seats      sql.NullString
			errMessage sql.NullString
			createdAt  string
		)
		if err := rows.Scan(&id, &r.UserID, &r.RequestID, &r.NumSeats, &preference, &r.Status, &seats, &errMessage, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan booking history: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("failed to parse booking history id: %w", err)
		}
		if preference.Valid {
			r.SeatPreference = models.PreferenceType(preference.String)
		}
		if seats.Valid && seats.String != "" {
			if err := json.Unmarshal([]byte(seats.String), &r.AllocatedSeats); err != nil {
				return nil, fmt.Errorf("failed to decode allocated seats: %w", err)
			}
		}
		if errMessage.Valid {
			msg := errMessage.String
			r.ErrorMessage = &msg
		}
		if r.CreatedAt, err = parseTS(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse booking history created_at: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read booking history: %w", err)
	}
	return records, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(sortableTS)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// fixed-width so that text ordering matches time ordering
const sortableTS = "2006-01-02T15:04:05.000000000Z07:00"
