package service

import (
	"context"
	"log"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
)

// BookingService is the surface the console handlers drive
type BookingService interface {
	State() state.Snapshot
	Submit(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error)
	Reset() (state.Snapshot, error)
	History(ctx context.Context, userID string) ([]models.HistoryRecord, error)
	Preference(ctx context.Context, userID string) (models.PreferenceType, error)
	SavePreference(ctx context.Context, userID string, preference models.PreferenceType) error
}

// BookingAPI issues the one-shot create-request call
type BookingAPI interface {
	RequestBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error)
}

// StatusAPI queries the allocation decision of a request
type StatusAPI interface {
	GetBookingStatus(ctx context.Context, requestID string) (*models.BookingStatusRecord, error)
}

// PreferenceStore reads and upserts a user's seat preference
type PreferenceStore interface {
	GetSeatPreference(ctx context.Context, userID string) (*models.SeatPreference, error)
	UpsertSeatPreference(ctx context.Context, pref models.SeatPreference) error
}

// HistoryStore appends and lists booking history rows
type HistoryStore interface {
	InsertHistory(ctx context.Context, record *models.HistoryRecord) error
	ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error)
}

// Notifier delivers user-visible notices
type Notifier interface {
	Notify(notice models.Notice)
}

// LogNotifier writes notices to the process log
type LogNotifier struct{}

func (LogNotifier) Notify(notice models.Notice) {
	log.Printf("notice [%s] %s: %s", notice.Level, notice.Title, notice.Message)
}
