package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrStoreDisabled = errors.New("persistence is not configured")
)

// Store is the persistence backend for seat preferences and booking history
type Store interface {
	GetSeatPreference(ctx context.Context, userID string) (*models.SeatPreference, error)
	UpsertSeatPreference(ctx context.Context, pref models.SeatPreference) error
	InsertHistory(ctx context.Context, record *models.HistoryRecord) error
	ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error)
	Close() error
}

// Open connects to the backend named by databaseURL:
//
//	postgres://... or postgresql://...  PostgreSQL through pgx
//	sqlite:<path> or file:<path>        embedded SQLite, migrated on open
//
// An empty URL returns ErrStoreDisabled.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	u := strings.TrimSpace(databaseURL)
	switch {
	case u == "":
		return nil, ErrStoreDisabled
	case strings.HasPrefix(u, "postgres://"), strings.HasPrefix(u, "postgresql://"):
		return OpenPostgres(ctx, u)
	case strings.HasPrefix(u, "sqlite:"):
		return OpenSQLite(ctx, strings.TrimPrefix(u, "sqlite:"))
	case strings.HasPrefix(u, "file:"):
		return OpenSQLite(ctx, strings.TrimPrefix(u, "file:"))
	default:
		return nil, fmt.Errorf("unsupported database url scheme: %q", u)
	}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 10
	}
	return limit
}
