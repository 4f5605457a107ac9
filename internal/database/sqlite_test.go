package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "booking.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_EmptyURLDisablesStore(t *testing.T) {
	store, err := Open(context.Background(), "  ")
	assert.Nil(t, store)
	assert.ErrorIs(t, err, ErrStoreDisabled)
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	_, err := Open(context.Background(), "mysql://root@localhost/booking")
	assert.Error(t, err)
}

func TestOpen_SQLiteScheme(t *testing.T) {
	store, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "nested", "booking.db"))
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*SQLiteStore)
	assert.True(t, ok)
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	store := openTestSQLite(t)

	require.NoError(t, ApplyMigrations(context.Background(), store.db))

	var count int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(sqliteMigrations), count)
}

func TestSQLiteStore_SeatPreference(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	_, err := store.GetSeatPreference(ctx, "user-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.UpsertSeatPreference(ctx, models.SeatPreference{UserID: "user-1", PreferenceType: models.PreferenceWindow}))
	pref, err := store.GetSeatPreference(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PreferenceWindow, pref.PreferenceType)
	assert.False(t, pref.UpdatedAt.IsZero())

	require.NoError(t, store.UpsertSeatPreference(ctx, models.SeatPreference{UserID: "user-1", PreferenceType: models.PreferenceAisle}))
	pref, err = store.GetSeatPreference(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.PreferenceAisle, pref.PreferenceType)
}

func TestSQLiteStore_UpsertRejectsUnknownPreference(t *testing.T) {
	store := openTestSQLite(t)

	err := store.UpsertSeatPreference(context.Background(), models.SeatPreference{UserID: "user-1", PreferenceType: "sofa"})
	assert.Error(t, err)
}

func TestSQLiteStore_History(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"R1", "R2", "R3"} {
		require.NoError(t, store.InsertHistory(ctx, &models.HistoryRecord{
			UserID:         "user-1",
			RequestID:      id,
			NumSeats:       i + 1,
			SeatPreference: models.PreferenceWindow,
			Status:         models.BookingStatusPending,
			CreatedAt:      base.Add(time.Duration(i) * 100 * time.Millisecond),
		}))
	}
	msg := "Not enough seats"
	require.NoError(t, store.InsertHistory(ctx, &models.HistoryRecord{
		UserID:       "user-2",
		RequestID:    "R9",
		NumSeats:     2,
		Status:       models.BookingStatusFailed,
		ErrorMessage: &msg,
	}))

	records, err := store.ListHistory(ctx, "user-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "R3", records[0].RequestID)
	assert.Equal(t, "R2", records[1].RequestID)
	assert.Equal(t, models.PreferenceWindow, records[0].SeatPreference)
	assert.Equal(t, models.BookingStatusPending, records[0].Status)
	assert.Nil(t, records[0].ErrorMessage)

	other, err := store.ListHistory(ctx, "user-2", 10)
	require.NoError(t, err)
	require.Len(t, other, 1)
	require.NotNil(t, other[0].ErrorMessage)
	assert.Equal(t, "Not enough seats", *other[0].ErrorMessage)
	assert.Empty(t, other[0].SeatPreference)
}

func TestSQLiteStore_HistoryReadsAllocatedSeats(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, store.InsertHistory(ctx, &models.HistoryRecord{
		UserID:         "user-1",
		RequestID:      "R1",
		NumSeats:       2,
		Status:         models.BookingStatusConfirmed,
		AllocatedSeats: []string{"A1", "A2"},
	}))

	records, err := store.ListHistory(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"A1", "A2"}, records[0].AllocatedSeats)
}

func TestSQLiteStore_ListHistoryEmpty(t *testing.T) {
	store := openTestSQLite(t)

	records, err := store.ListHistory(context.Background(), "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 10, clampLimit(0))
	assert.Equal(t, 10, clampLimit(-3))
	assert.Equal(t, 5, clampLimit(5))
	assert.Equal(t, 10, clampLimit(1000))
}
