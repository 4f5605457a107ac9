package state

import (
	"sync"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

const subscriberBuffer = 16

// Snapshot is a read-only copy of the booking lifecycle state
type Snapshot struct {
	RequestID      *string          `json:"requestId"`
	Status         models.AppStatus `json:"appStatus"`
	AllocatedSeats []string         `json:"allocatedSeats,omitempty"`
	Error          string           `json:"error,omitempty"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// CurrentRequestID returns the request ID or "" when none is set
func (s Snapshot) CurrentRequestID() string {
	if s.RequestID == nil {
		return ""
	}
	return *s.RequestID
}

// AppState holds the single booking lifecycle of a client session.
//
// The setters do not check that requestId is set exactly when the status is
// pending, confirmed or failed; SubmissionTask and StatusPoller keep that
// invariant. Presentation code only reads through Snapshot and Subscribe.
type AppState struct {
	mu             sync.RWMutex
	requestID      *string
	status         models.AppStatus
	allocatedSeats []string
	errMessage     string
	updatedAt      time.Time

	subMu       sync.Mutex
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// New creates an AppState in the idle status
func New() *AppState {
	return &AppState{
		status:      models.AppStatusIdle,
		updatedAt:   time.Now(),
		subscribers: make(map[int]chan Snapshot),
	}
}

// SetRequestID sets or clears the active request ID
func (s *AppState) SetRequestID(id *string) {
	s.mu.Lock()
	if id == nil {
		s.requestID = nil
	} else {
		v := *id
		s.requestID = &v
	}
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// SetAppStatus sets the lifecycle status
func (s *AppState) SetAppStatus(status models.AppStatus) {
	s.mu.Lock()
	s.status = status
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Reset returns to idle with no request ID. It is the only way out of a
// terminal status.
func (s *AppState) Reset() {
	s.mu.Lock()
	s.requestID = nil
	s.status = models.AppStatusIdle
	s.allocatedSeats = nil
	s.errMessage = ""
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// BeginBooking moves to booking unless a submission is already in flight.
// The previous request ID and outcome are cleared.
func (s *AppState) BeginBooking() bool {
	s.mu.Lock()
	if s.status.InFlight() {
		s.mu.Unlock()
		return false
	}
	s.requestID = nil
	s.status = models.AppStatusBooking
	s.allocatedSeats = nil
	s.errMessage = ""
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return true
}

// Resolve applies a terminal status record for requestID. It is a no-op
// returning false when requestID is no longer the active request or the
// status has already left pending.
func (s *AppState) Resolve(requestID string, record models.BookingStatusRecord) bool {
	if !record.Status.IsTerminal() {
		return false
	}
	s.mu.Lock()
	if s.requestID == nil || *s.requestID != requestID || s.status != models.AppStatusPending {
		s.mu.Unlock()
		return false
	}
	s.status = models.AppStatus(record.Status)
	if len(record.AllocatedSeats) > 0 {
		s.allocatedSeats = append([]string(nil), record.AllocatedSeats...)
	}
	s.errMessage = record.Error
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return true
}

// IsPolling reports whether requestID is still the pending request
func (s *AppState) IsPolling(requestID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requestID != nil && *s.requestID == requestID && s.status == models.AppStatusPending
}

// Snapshot returns a copy of the current state
func (s *AppState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every change.
// Slow subscribers miss intermediate snapshots rather than block writers.
func (s *AppState) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, subscriberBuffer)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

func (s *AppState) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:    s.status,
		Error:     s.errMessage,
		UpdatedAt: s.updatedAt,
	}
	if s.requestID != nil {
		id := *s.requestID
		snap.RequestID = &id
	}
	if len(s.allocatedSeats) > 0 {
		snap.AllocatedSeats = append([]string(nil), s.allocatedSeats...)
	}
	return snap
}

func (s *AppState) publish(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
		}
	}
}
