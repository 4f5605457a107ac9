package service

import (
	"context"
	"fmt"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
)

// ValidateRequest checks the seat count before anything is sent
func ValidateRequest(req models.BookingRequest) error {
	if req.NumSeats < models.MinSeatsPerRequest || req.NumSeats > models.MaxSeatsPerRequest {
		return &ValidationError{
			Field:   "numSeats",
			Message: fmt.Sprintf("Please enter between %d and %d seats", models.MinSeatsPerRequest, models.MaxSeatsPerRequest),
		}
	}
	return nil
}

// SubmissionTask performs the create-request call and moves AppState
// through booking to pending or failed around it
type SubmissionTask struct {
	api   BookingAPI
	state *state.AppState
}

// NewSubmissionTask creates a SubmissionTask
func NewSubmissionTask(api BookingAPI, st *state.AppState) *SubmissionTask {
	return &SubmissionTask{api: api, state: st}
}

// Submit sends req once. Invalid input and an in-flight submission are
// rejected without touching AppState. No retries are attempted.
func (t *SubmissionTask) Submit(ctx context.Context, req models.BookingRequest) (*models.BookingResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if !t.state.BeginBooking() {
		return nil, ErrSubmissionInProgress
	}

	resp, err := t.api.RequestBooking(ctx, req)
	if err != nil {
		t.state.SetAppStatus(models.AppStatusFailed)
		return nil, &TransportError{Err: err}
	}

	requestID := resp.RequestID
	t.state.SetRequestID(&requestID)
	t.state.SetAppStatus(models.AppStatusPending)
	return resp, nil
}
