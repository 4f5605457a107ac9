package mocks

import (
	"context"
	"sync"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
	"github.com/stretchr/testify/mock"
)

// MockBookingService is a mock implementation of BookingService
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) State() state.Snapshot {
	args := m.Called()
	return args.Get(0).(state.Snapshot)
}

func (m *MockBookingService) Submit(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResponse), args.Error(1)
}

func (m *MockBookingService) Reset() (state.Snapshot, error) {
	args := m.Called()
	return args.Get(0).(state.Snapshot), args.Error(1)
}

func (m *MockBookingService) History(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryRecord), args.Error(1)
}

func (m *MockBookingService) Preference(ctx context.Context, userID string) (models.PreferenceType, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.PreferenceType), args.Error(1)
}

func (m *MockBookingService) SavePreference(ctx context.Context, userID string, preference models.PreferenceType) error {
	args := m.Called(ctx, userID, preference)
	return args.Error(0)
}

// MockBookingAPI is a mock implementation of BookingAPI
type MockBookingAPI struct {
	mock.Mock
}

func (m *MockBookingAPI) RequestBooking(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingResponse), args.Error(1)
}

// MockStatusAPI is a mock implementation of StatusAPI
type MockStatusAPI struct {
	mock.Mock
}

func (m *MockStatusAPI) GetBookingStatus(ctx context.Context, requestID string) (*models.BookingStatusRecord, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BookingStatusRecord), args.Error(1)
}

// MockPreferenceStore is a mock implementation of PreferenceStore
type MockPreferenceStore struct {
	mock.Mock
}

func (m *MockPreferenceStore) GetSeatPreference(ctx context.Context, userID string) (*models.SeatPreference, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SeatPreference), args.Error(1)
}

func (m *MockPreferenceStore) UpsertSeatPreference(ctx context.Context, pref models.SeatPreference) error {
	args := m.Called(ctx, pref)
	return args.Error(0)
}

// MockHistoryStore is a mock implementation of HistoryStore
type MockHistoryStore struct {
	mock.Mock
}

func (m *MockHistoryStore) InsertHistory(ctx context.Context, record *models.HistoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHistoryStore) ListHistory(ctx context.Context, userID string, limit int) ([]models.HistoryRecord, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryRecord), args.Error(1)
}

// RecordingNotifier keeps every notice it receives
type RecordingNotifier struct {
	mu      sync.Mutex
	notices []models.Notice
}

func (n *RecordingNotifier) Notify(notice models.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

// Notices returns a copy of the received notices
func (n *RecordingNotifier) Notices() []models.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.Notice(nil), n.notices...)
}

// Titles returns the titles of the received notices in order
func (n *RecordingNotifier) Titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	titles := make([]string, 0, len(n.notices))
	for _, notice := range n.notices {
		titles = append(titles, notice.Title)
	}
	return titles
}
