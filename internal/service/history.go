package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/google/uuid"
)

const (
	historyQueueSize  = 32
	historyErrBuffer  = 16
	historyWriteLimit = 10 * time.Second
)

// Submission is what HistorySync records after a successful create-request
type Submission struct {
	RequestID string
	NumSeats  int
	UserID    string
}

// HistorySync writes a best-effort history row for each accepted booking.
// Writes are queued and performed by Run; the booking flow never waits on
// them and never sees their errors.
type HistorySync struct {
	store    HistoryStore
	prefs    *PreferenceResolver
	notifier Notifier
	queue    chan Submission
	errs     chan error
	now      func() time.Time
}

// NewHistorySync creates a HistorySync. A nil store disables recording.
func NewHistorySync(store HistoryStore, prefs *PreferenceResolver, notifier Notifier) *HistorySync {
	if prefs == nil {
		prefs = NewPreferenceResolver(nil)
	}
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &HistorySync{
		store:    store,
		prefs:    prefs,
		notifier: notifier,
		queue:    make(chan Submission, historyQueueSize),
		errs:     make(chan error, historyErrBuffer),
		now:      time.Now,
	}
}

// RecordSubmission queues a history write without blocking. It returns
// false when nothing was queued.
func (h *HistorySync) RecordSubmission(sub Submission) bool {
	if h.store == nil || strings.TrimSpace(sub.UserID) == "" {
		return false
	}
	select {
	case h.queue <- sub:
		return true
	default:
		log.Printf("history: queue full, dropping record for %s", sub.RequestID)
		return false
	}
}

// Errors delivers write failures. Unread errors are dropped.
func (h *HistorySync) Errors() <-chan error {
	return h.errs
}

// Run performs queued writes until ctx is done
func (h *HistorySync) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.queue:
			h.write(ctx, sub)
		}
	}
}

func (h *HistorySync) write(ctx context.Context, sub Submission) {
	ctx, cancel := context.WithTimeout(ctx, historyWriteLimit)
	defer cancel()

	preference, err := h.prefs.Fetch(ctx, sub.UserID)
	if err != nil {
		log.Printf("history: %v, recording preference %q", err, preference)
	}

	record := &models.HistoryRecord{
		ID:             uuid.New(),
		UserID:         sub.UserID,
		RequestID:      sub.RequestID,
		NumSeats:       sub.NumSeats,
		SeatPreference: preference,
		Status:         models.BookingStatusPending,
		CreatedAt:      h.now().UTC(),
	}
	if err := h.store.InsertHistory(ctx, record); err != nil {
		perr := &PersistenceError{Op: "record booking history", Err: err}
		log.Printf("history: %v", perr)
		h.notifier.Notify(models.Notice{
			Level:   models.NoticeWarning,
			Title:   "History Not Saved",
			Message: "Your booking is still being processed, but it could not be added to your history.",
		})
		select {
		case h.errs <- perr:
		default:
		}
		return
	}
	log.Printf("history: recorded request %s for user %s", sub.RequestID, sub.UserID)
}
