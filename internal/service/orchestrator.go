package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
)

const DefaultHistoryLimit = 10

// Options wires an Orchestrator. State, BookingAPI and StatusAPI are required.
type Options struct {
	State           *state.AppState
	BookingAPI      BookingAPI
	StatusAPI       StatusAPI
	PreferenceStore PreferenceStore
	HistoryStore    HistoryStore
	Notifier        Notifier
	Poll            PollOptions
	HistoryLimit    int
}

// Orchestrator binds the submit and "book another" actions to the
// submission, polling and history tasks
type Orchestrator struct {
	state        *state.AppState
	submission   *SubmissionTask
	poller       *StatusPoller
	prefs        *PreferenceResolver
	history      *HistorySync
	historyStore HistoryStore
	notifier     Notifier
	historyLimit int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu   sync.Mutex
	poll *PollTask
}

// NewOrchestrator creates an Orchestrator. Call Start before submitting and
// Close when the session ends.
func NewOrchestrator(opts Options) *Orchestrator {
	st := opts.State
	if st == nil {
		st = state.New()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{}
	}
	limit := opts.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	prefs := NewPreferenceResolver(opts.PreferenceStore)
	ctx, cancel := context.WithCancel(context.Background())

	return &Orchestrator{
		state:        st,
		submission:   NewSubmissionTask(opts.BookingAPI, st),
		poller:       NewStatusPoller(opts.StatusAPI, st, opts.Poll),
		prefs:        prefs,
		history:      NewHistorySync(opts.HistoryStore, prefs, notifier),
		historyStore: opts.HistoryStore,
		notifier:     notifier,
		historyLimit: limit,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start runs the history writer in the background
func (o *Orchestrator) Start() {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.history.Run(o.ctx)
	}()
}

// Close tears down polling and the history writer
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.stopPollLocked()
	o.mu.Unlock()
	o.cancel()
	o.wg.Wait()
}

// AppState returns the state container the orchestrator drives
func (o *Orchestrator) AppState() *state.AppState {
	return o.state
}

// HistoryErrors exposes failed history writes
func (o *Orchestrator) HistoryErrors() <-chan error {
	return o.history.Errors()
}

// ActivePoll returns the running poll task, if any
func (o *Orchestrator) ActivePoll() *PollTask {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.poll
}

// State returns the current lifecycle snapshot
func (o *Orchestrator) State() state.Snapshot {
	return o.state.Snapshot()
}

// Submit runs one booking attempt. On success the status poller and the
// history write start concurrently; neither delays the returned response.
func (o *Orchestrator) Submit(ctx context.Context, userID string, req models.BookingRequest) (*models.BookingResponse, error) {
	o.mu.Lock()
	if !o.state.Snapshot().Status.InFlight() {
		// cancel-before-start
		o.stopPollLocked()
	}
	o.mu.Unlock()

	// the attempt outlives the caller; a disconnecting viewer must not fail it
	resp, err := o.submission.Submit(context.WithoutCancel(ctx), req)
	if err != nil {
		o.notifySubmitError(err)
		return nil, err
	}

	o.mu.Lock()
	// a reset and a newer submission may have happened in between
	if o.state.IsPolling(resp.RequestID) {
		o.stopPollLocked()
		o.poll = o.poller.Start(o.ctx, resp.RequestID)
	}
	o.mu.Unlock()

	log.Printf("booking: request %s accepted for %d seats", resp.RequestID, req.NumSeats)
	o.notifier.Notify(models.Notice{
		Level:   models.NoticeInfo,
		Title:   "Booking Request Submitted",
		Message: fmt.Sprintf("Request ID: %s", resp.RequestID),
	})

	if strings.TrimSpace(userID) != "" {
		o.history.RecordSubmission(Submission{
			RequestID: resp.RequestID,
			NumSeats:  req.NumSeats,
			UserID:    userID,
		})
	}
	return resp, nil
}

// Reset is the "book another" action. It stops polling and returns to idle.
func (o *Orchestrator) Reset() (state.Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state.Snapshot().Status == models.AppStatusBooking {
		return o.state.Snapshot(), ErrResetWhileBooking
	}
	o.stopPollLocked()
	o.state.Reset()
	return o.state.Snapshot(), nil
}

// History lists the most recent bookings of userID
func (o *Orchestrator) History(ctx context.Context, userID string) ([]models.HistoryRecord, error) {
	if strings.TrimSpace(userID) == "" || o.historyStore == nil {
		return []models.HistoryRecord{}, nil
	}
	records, err := o.historyStore.ListHistory(ctx, userID, o.historyLimit)
	if err != nil {
		return nil, &PersistenceError{Op: "list booking history", Err: err}
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	return records, nil
}

// Preference returns the saved preference of userID, or "any"
func (o *Orchestrator) Preference(ctx context.Context, userID string) (models.PreferenceType, error) {
	return o.prefs.Fetch(ctx, userID)
}

// SavePreference upserts the preference of userID
func (o *Orchestrator) SavePreference(ctx context.Context, userID string, preference models.PreferenceType) error {
	if err := o.prefs.Save(ctx, userID, preference); err != nil {
		var perr *PersistenceError
		if errors.As(err, &perr) {
			o.notifier.Notify(models.Notice{Level: models.NoticeError, Title: "Error", Message: perr.Error()})
		}
		return err
	}
	o.notifier.Notify(models.Notice{
		Level:   models.NoticeInfo,
		Title:   "Preferences Saved",
		Message: "Your seat preferences have been updated successfully.",
	})
	return nil
}

func (o *Orchestrator) notifySubmitError(err error) {
	var verr *ValidationError
	var terr *TransportError
	switch {
	case errors.As(err, &verr):
		o.notifier.Notify(models.Notice{Level: models.NoticeError, Title: "Invalid Input", Message: verr.Message})
	case errors.As(err, &terr):
		log.Printf("booking: %v", err)
		o.notifier.Notify(models.Notice{Level: models.NoticeError, Title: "Booking Failed", Message: terr.Error()})
	}
}

func (o *Orchestrator) stopPollLocked() {
	if o.poll == nil {
		return
	}
	o.poll.Stop()
	o.poll = nil
}
