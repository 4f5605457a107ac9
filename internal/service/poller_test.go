package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/allocator"
	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
	"github.com/cx-tal-miterani/coach-booking-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInterval = 20 * time.Millisecond

func pendingState(t *testing.T, requestID string) *state.AppState {
	t.Helper()
	st := state.New()
	require.True(t, st.BeginBooking())
	st.SetRequestID(&requestID)
	st.SetAppStatus(models.AppStatusPending)
	return st
}

func newPoller(fake *testutil.FakeAllocator, st *state.AppState, opts service.PollOptions) *service.StatusPoller {
	if opts.Interval == 0 {
		opts.Interval = testInterval
	}
	client := allocator.NewClient(fake.URL(), &http.Client{Timeout: 5 * time.Second})
	return service.NewStatusPoller(client, st, opts)
}

func waitDone(t *testing.T, task *service.PollTask) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("poll task did not finish")
	}
}

func TestStatusPoller_PendingThenConfirmed(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1",
		testutil.Pending(), testutil.Pending(), testutil.Pending(),
		testutil.Confirmed("A1", "A2"),
	)
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.EqualValues(t, 4, task.Queries())
	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusConfirmed, snap.Status)
	assert.Equal(t, []string{"A1", "A2"}, snap.AllocatedSeats)
	assert.Equal(t, "R1", snap.CurrentRequestID())

	time.Sleep(3 * testInterval)
	assert.Len(t, fake.StatusCalls("R1"), 4)
}

func TestStatusPoller_ImmediateFailure(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Failed("capacity exceeded"))
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.EqualValues(t, 1, task.Queries())
	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusFailed, snap.Status)
	assert.Equal(t, "capacity exceeded", snap.Error)
}

func TestStatusPoller_CadenceAndNoOverlap(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1",
		testutil.Pending(), testutil.Pending(), testutil.Pending(), testutil.Pending(),
		testutil.Confirmed("B3"),
	)
	st := pendingState(t, "R1")
	interval := 50 * time.Millisecond

	task := newPoller(fake, st, service.PollOptions{Interval: interval}).Start(context.Background(), "R1")
	waitDone(t, task)

	calls := fake.StatusCalls("R1")
	require.Len(t, calls, 5)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), interval)
	}
	assert.Equal(t, 1, fake.MaxConcurrentStatus("R1"))
}

func TestStatusPoller_DefaultCadence(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the default interval")
	}
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Pending(), testutil.Pending(), testutil.Confirmed("A1"))
	st := pendingState(t, "R1")
	client := allocator.NewClient(fake.URL(), nil)

	task := service.NewStatusPoller(client, st, service.PollOptions{}).Start(context.Background(), "R1")
	select {
	case <-task.Done():
	case <-time.After(15 * time.Second):
		t.Fatal("poll task did not finish")
	}

	calls := fake.StatusCalls("R1")
	require.Len(t, calls, 3)
	for i := 1; i < len(calls); i++ {
		assert.GreaterOrEqual(t, calls[i].Sub(calls[i-1]), service.DefaultPollInterval)
	}
	assert.Equal(t, 1, fake.MaxConcurrentStatus("R1"))
}

func TestStatusPoller_TransientErrorsKeepPolling(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Unavailable(), testutil.Unavailable(), testutil.Confirmed("C1"))
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.EqualValues(t, 3, task.Queries())
	assert.Equal(t, models.AppStatusConfirmed, st.Snapshot().Status)
}

func TestStatusPoller_FailureCapResolvesFailed(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Unavailable())
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{MaxFailures: 3}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.EqualValues(t, 3, task.Queries())
	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusFailed, snap.Status)
	assert.Equal(t, "status unavailable after 3 attempts", snap.Error)
}

func TestStatusPoller_ErrorsResetTheFailureCount(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1",
		testutil.Unavailable(), testutil.Pending(),
		testutil.Unavailable(), testutil.Pending(),
		testutil.Confirmed("D1"),
	)
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{MaxFailures: 2}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.Equal(t, models.AppStatusConfirmed, st.Snapshot().Status)
}

func TestStatusPoller_ResetDuringQueryDiscardsResult(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Confirmed("A1"))
	fake.HoldStatus()
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")

	select {
	case <-fake.Arrived():
	case <-time.After(5 * time.Second):
		t.Fatal("status query never arrived")
	}
	st.Reset()
	fake.Release()
	waitDone(t, task)

	snap := st.Snapshot()
	assert.Equal(t, models.AppStatusIdle, snap.Status)
	assert.Nil(t, snap.RequestID)
	assert.Empty(t, snap.AllocatedSeats)
}

func TestStatusPoller_CancelAbortsInFlightQuery(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Confirmed("A1"))
	fake.HoldStatus()
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	<-fake.Arrived()

	stopped := make(chan struct{})
	go func() {
		task.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a query was held")
	}

	fake.Release()
	assert.Equal(t, models.AppStatusPending, st.Snapshot().Status)
	assert.EqualValues(t, 1, task.Queries())
}

func TestStatusPoller_NotPendingDoesNotQuery(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	st := state.New()

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.EqualValues(t, 0, task.Queries())
	assert.Empty(t, fake.StatusCalls("R1"))
}

func TestStatusPoller_OnRecordSeesEveryRecord(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Pending(), testutil.Failed("Seats taken"))
	st := pendingState(t, "R1")

	var seen []models.BookingStatus
	task := newPoller(fake, st, service.PollOptions{
		OnRecord: func(requestID string, record models.BookingStatusRecord) {
			assert.Equal(t, "R1", requestID)
			seen = append(seen, record.Status)
		},
	}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.Equal(t, []models.BookingStatus{models.BookingStatusPending, models.BookingStatusFailed}, seen)
}

func TestStatusPoller_TerminalStateIsFinal(t *testing.T) {
	fake := testutil.NewFakeAllocator(t)
	fake.ScriptStatus("R1", testutil.Confirmed("A1"))
	st := pendingState(t, "R1")

	task := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, task)

	assert.False(t, st.Resolve("R1", models.BookingStatusRecord{Status: models.BookingStatusFailed, Error: "late"}))
	again := newPoller(fake, st, service.PollOptions{}).Start(context.Background(), "R1")
	waitDone(t, again)

	assert.EqualValues(t, 0, again.Queries())
	assert.Equal(t, models.AppStatusConfirmed, st.Snapshot().Status)
	assert.Equal(t, []string{"A1"}, st.Snapshot().AllocatedSeats)
}
