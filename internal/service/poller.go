package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
)

const DefaultPollInterval = 2 * time.Second

// PollOptions parameterize a StatusPoller
type PollOptions struct {
	// Interval between the end of one status query and the next
	Interval time.Duration
	// MaxFailures is the number of consecutive failed queries after which the
	// request is resolved as failed. Zero keeps polling forever.
	MaxFailures int
	// IsTerminal decides whether a status ends polling
	IsTerminal func(models.BookingStatus) bool
	// OnRecord observes every status record received while polling
	OnRecord func(requestID string, record models.BookingStatusRecord)
}

// StatusPoller polls the status endpoint for the pending request
type StatusPoller struct {
	api   StatusAPI
	state *state.AppState
	opts  PollOptions
}

// NewStatusPoller creates a StatusPoller, filling in default options
func NewStatusPoller(api StatusAPI, st *state.AppState, opts PollOptions) *StatusPoller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = models.BookingStatus.IsTerminal
	}
	if opts.MaxFailures < 0 {
		opts.MaxFailures = 0
	}
	return &StatusPoller{api: api, state: st, opts: opts}
}

// PollTask is one running polling loop keyed to a single request ID
type PollTask struct {
	requestID string
	cancel    context.CancelFunc
	done      chan struct{}
	queries   atomic.Int64
}

// RequestID returns the request the task polls
func (t *PollTask) RequestID() string {
	return t.requestID
}

// Cancel stops the task. Any in-flight query is aborted and its result dropped.
func (t *PollTask) Cancel() {
	t.cancel()
}

// Done is closed when the loop has exited
func (t *PollTask) Done() <-chan struct{} {
	return t.done
}

// Stop cancels the task and waits for the loop to exit
func (t *PollTask) Stop() {
	t.cancel()
	<-t.done
}

// Queries returns the number of status queries issued so far
func (t *PollTask) Queries() int64 {
	return t.queries.Load()
}

// Start launches a polling loop for requestID. The first query is issued
// immediately.
func (p *StatusPoller) Start(parent context.Context, requestID string) *PollTask {
	ctx, cancel := context.WithCancel(parent)
	task := &PollTask{
		requestID: requestID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go func() {
		defer close(task.done)
		defer cancel()
		p.run(ctx, task)
	}()
	return task
}

func (p *StatusPoller) run(ctx context.Context, task *PollTask) {
	requestID := task.requestID
	failures := 0

	for {
		if ctx.Err() != nil {
			return
		}
		if !p.state.IsPolling(requestID) {
			return
		}

		task.queries.Add(1)
		record, err := p.api.GetBookingStatus(ctx, requestID)
		if ctx.Err() != nil {
			// cancelled while the query was in flight
			return
		}

		if err != nil {
			failures++
			log.Printf("poller: status query for %s failed (attempt %d): %v", requestID, failures, err)
			if p.opts.MaxFailures > 0 && failures >= p.opts.MaxFailures {
				p.state.Resolve(requestID, models.BookingStatusRecord{
					Status: models.BookingStatusFailed,
					Error:  fmt.Sprintf("status unavailable after %d attempts", failures),
				})
				return
			}
		} else if record != nil {
			failures = 0
			if p.opts.OnRecord != nil {
				p.opts.OnRecord(requestID, *record)
			}
			if p.opts.IsTerminal(record.Status) {
				if p.state.Resolve(requestID, *record) {
					log.Printf("poller: request %s resolved as %s", requestID, record.Status)
				}
				return
			}
		}

		if err := sleepWithContext(ctx, p.opts.Interval); err != nil {
			return
		}
	}
}

func sleepWithContext(ctx context.Context, wait time.Duration) error {
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
