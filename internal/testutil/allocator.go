package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/gorilla/mux"
)

// StatusReply is one scripted answer of GET /booking-status/{id}.
// A zero Code means 200.
type StatusReply struct {
	Code   int
	Record models.BookingStatusRecord
}

// FakeAllocator is a scripted stand-in for the remote allocation service
type FakeAllocator struct {
	Server *httptest.Server

	mu            sync.Mutex
	bookingCode   int
	bookingResp   models.BookingResponse
	bookingBodies []models.BookingRequest
	layoutCode    int
	layout        models.CoachLayout
	layoutCalls   int
	scripts       map[string][]StatusReply
	statusCalls   map[string][]time.Time
	inflight      map[string]int
	maxInflight   map[string]int
	hold          chan struct{}
	arrived       chan string
}

// NewFakeAllocator starts a fake allocation service closed on test cleanup
func NewFakeAllocator(t *testing.T) *FakeAllocator {
	t.Helper()
	f := &FakeAllocator{
		bookingCode: http.StatusOK,
		layoutCode:  http.StatusOK,
		layout:      models.CoachLayout{},
		scripts:     make(map[string][]StatusReply),
		statusCalls: make(map[string][]time.Time),
		inflight:    make(map[string]int),
		maxInflight: make(map[string]int),
		arrived:     make(chan string, 64),
	}

	r := mux.NewRouter()
	r.HandleFunc("/request-booking", f.handleRequestBooking).Methods(http.MethodPost)
	r.HandleFunc("/booking-status/{id}", f.handleBookingStatus).Methods(http.MethodGet)
	r.HandleFunc("/coach-layout", f.handleCoachLayout).Methods(http.MethodGet)

	f.Server = httptest.NewServer(r)
	t.Cleanup(func() {
		f.Release()
		f.Server.Close()
	})
	return f
}

// URL returns the base URL of the fake service
func (f *FakeAllocator) URL() string {
	return f.Server.URL
}

// AcceptBookings makes POST /request-booking answer 200 with requestID
func (f *FakeAllocator) AcceptBookings(requestID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingCode = http.StatusOK
	f.bookingResp = models.BookingResponse{RequestID: requestID, Status: models.BookingStatusPending}
}

// RejectBookings makes POST /request-booking answer code
func (f *FakeAllocator) RejectBookings(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookingCode = code
}

// ScriptStatus sets the answers for requestID. The last reply repeats.
func (f *FakeAllocator) ScriptStatus(requestID string, replies ...StatusReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[requestID] = replies
}

// SetLayout sets the body and status code of GET /coach-layout
func (f *FakeAllocator) SetLayout(code int, layout models.CoachLayout) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.layoutCode = code
	f.layout = layout
}

// HoldStatus blocks status answers until Release is called
func (f *FakeAllocator) HoldStatus() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hold == nil {
		f.hold = make(chan struct{})
	}
}

// Release unblocks held status answers
func (f *FakeAllocator) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hold != nil {
		close(f.hold)
		f.hold = nil
	}
}

// Arrived delivers the request ID of every status query as it is received
func (f *FakeAllocator) Arrived() <-chan string {
	return f.arrived
}

// BookingRequests returns the decoded bodies of every create-request call
func (f *FakeAllocator) BookingRequests() []models.BookingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BookingRequest(nil), f.bookingBodies...)
}

// StatusCalls returns the arrival times of status queries for requestID
func (f *FakeAllocator) StatusCalls(requestID string) []time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Time(nil), f.statusCalls[requestID]...)
}

// MaxConcurrentStatus returns the highest number of overlapping status
// queries seen for requestID
func (f *FakeAllocator) MaxConcurrentStatus(requestID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInflight[requestID]
}

// LayoutCalls returns the number of coach layout fetches
func (f *FakeAllocator) LayoutCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.layoutCalls
}

func (f *FakeAllocator) handleRequestBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	f.mu.Lock()
	f.bookingBodies = append(f.bookingBodies, req)
	code := f.bookingCode
	resp := f.bookingResp
	f.mu.Unlock()

	if code < 200 || code >= 300 {
		writeJSON(w, code, map[string]string{"error": "queue unavailable"})
		return
	}
	writeJSON(w, code, resp)
}

func (f *FakeAllocator) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	f.mu.Lock()
	f.statusCalls[id] = append(f.statusCalls[id], time.Now())
	call := len(f.statusCalls[id])
	f.inflight[id]++
	if f.inflight[id] > f.maxInflight[id] {
		f.maxInflight[id] = f.inflight[id]
	}
	hold := f.hold
	script := f.scripts[id]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inflight[id]--
		f.mu.Unlock()
	}()

	select {
	case f.arrived <- id:
	default:
	}

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	if len(script) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown request"})
		return
	}
	reply := script[len(script)-1]
	if call <= len(script) {
		reply = script[call-1]
	}
	code := reply.Code
	if code == 0 {
		code = http.StatusOK
	}
	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "status lookup failed"})
		return
	}
	writeJSON(w, code, reply.Record)
}

func (f *FakeAllocator) handleCoachLayout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.layoutCalls++
	code := f.layoutCode
	layout := f.layout
	f.mu.Unlock()

	if code != http.StatusOK {
		writeJSON(w, code, map[string]string{"error": "layout unavailable"})
		return
	}
	writeJSON(w, code, layout)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Pending, Confirmed and Failed build common status replies
func Pending() StatusReply {
	return StatusReply{Record: models.BookingStatusRecord{Status: models.BookingStatusPending}}
}

func Confirmed(seats ...string) StatusReply {
	return StatusReply{Record: models.BookingStatusRecord{Status: models.BookingStatusConfirmed, AllocatedSeats: seats}}
}

func Failed(message string) StatusReply {
	return StatusReply{Record: models.BookingStatusRecord{Status: models.BookingStatusFailed, Error: message}}
}

// Unavailable is a transient non-2xx status reply
func Unavailable() StatusReply {
	return StatusReply{Code: http.StatusServiceUnavailable}
}
