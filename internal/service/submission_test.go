package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service/mocks"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name     string
		numSeats int
		valid    bool
	}{
		{name: "zero", numSeats: 0, valid: false},
		{name: "negative", numSeats: -2, valid: false},
		{name: "one", numSeats: 1, valid: true},
		{name: "seven", numSeats: 7, valid: true},
		{name: "eight", numSeats: 8, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateRequest(models.BookingRequest{NumSeats: tt.numSeats})
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "numSeats", verr.Field)
			assert.Equal(t, "Please enter between 1 and 7 seats", verr.Message)
		})
	}
}

func TestSubmissionTask_InvalidInputMakesNoCall(t *testing.T) {
	for _, n := range []int{0, 8, 100} {
		api := new(mocks.MockBookingAPI)
		st := state.New()
		task := service.NewSubmissionTask(api, st)

		resp, err := task.Submit(context.Background(), models.BookingRequest{NumSeats: n})

		assert.Nil(t, resp)
		var verr *service.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, models.AppStatusIdle, st.Snapshot().Status)
		assert.Nil(t, st.Snapshot().RequestID)
		api.AssertNotCalled(t, "RequestBooking", mock.Anything, mock.Anything)
	}
}

func TestSubmissionTask_Success(t *testing.T) {
	api := new(mocks.MockBookingAPI)
	st := state.New()
	task := service.NewSubmissionTask(api, st)

	req := models.BookingRequest{NumSeats: 2}
	api.On("RequestBooking", mock.Anything, req).
		Run(func(args mock.Arguments) {
			// booking is observable while the call is in flight
			snap := st.Snapshot()
			assert.Equal(t, models.AppStatusBooking, snap.Status)
			assert.Nil(t, snap.RequestID)
		}).
		Return(&models.BookingResponse{RequestID: "R1", Status: models.BookingStatusPending}, nil)

	resp, err := task.Submit(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "R1", resp.RequestID)
	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusPending, snap.Status)
	assert.Equal(t, "R1", snap.CurrentRequestID())
	api.AssertExpectations(t)
}

func TestSubmissionTask_TransportFailure(t *testing.T) {
	api := new(mocks.MockBookingAPI)
	st := state.New()
	task := service.NewSubmissionTask(api, st)

	cause := errors.New("http 503: queue unavailable")
	api.On("RequestBooking", mock.Anything, mock.Anything).Return(nil, cause).Once()

	resp, err := task.Submit(context.Background(), models.BookingRequest{NumSeats: 3})

	assert.Nil(t, resp)
	var terr *service.TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, cause)
	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusFailed, snap.Status)
	assert.Nil(t, snap.RequestID)
	api.AssertNumberOfCalls(t, "RequestBooking", 1)
}

func TestSubmissionTask_RefusesWhileInFlight(t *testing.T) {
	api := new(mocks.MockBookingAPI)
	st := state.New()
	require.True(t, st.BeginBooking())
	task := service.NewSubmissionTask(api, st)

	_, err := task.Submit(context.Background(), models.BookingRequest{NumSeats: 1})

	assert.ErrorIs(t, err, service.ErrSubmissionInProgress)
	assert.Equal(t, models.AppStatusBooking, st.Snapshot().Status)
	api.AssertNotCalled(t, "RequestBooking", mock.Anything, mock.Anything)
}

func TestSubmissionTask_ClearsPreviousOutcome(t *testing.T) {
	api := new(mocks.MockBookingAPI)
	st := state.New()
	old := "R0"
	st.SetRequestID(&old)
	st.SetAppStatus(models.AppStatusFailed)
	task := service.NewSubmissionTask(api, st)

	api.On("RequestBooking", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))

	_, err := task.Submit(context.Background(), models.BookingRequest{NumSeats: 1})

	require.Error(t, err)
	assert.Nil(t, st.Snapshot().RequestID)
	assert.Equal(t, models.AppStatusFailed, st.Snapshot().Status)
}
