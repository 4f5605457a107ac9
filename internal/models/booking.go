package models

// AppStatus is the lifecycle status of the current booking as seen by the client
type AppStatus string

const (
	AppStatusIdle      AppStatus = "idle"
	AppStatusBooking   AppStatus = "booking"
	AppStatusPending   AppStatus = "pending"
	AppStatusConfirmed AppStatus = "confirmed"
	AppStatusFailed    AppStatus = "failed"
)

// IsTerminal reports whether no further polling happens without a reset
func (s AppStatus) IsTerminal() bool {
	return s == AppStatusConfirmed || s == AppStatusFailed
}

// InFlight reports whether a new submission must be refused
func (s AppStatus) InFlight() bool {
	return s == AppStatusBooking || s == AppStatusPending
}

// BookingStatus is the status reported by the allocation service
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusFailed    BookingStatus = "failed"
)

// IsTerminal reports whether the allocation service has decided the request
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusConfirmed || s == BookingStatusFailed
}

const (
	MinSeatsPerRequest = 1
	MaxSeatsPerRequest = 7
)

// BookingRequest is the body of POST /request-booking
type BookingRequest struct {
	NumSeats int `json:"numSeats"`
}

// BookingResponse is returned by the allocation service when it accepts a request
type BookingResponse struct {
	RequestID string        `json:"requestId"`
	Status    BookingStatus `json:"status"`
}

// BookingStatusRecord is one answer of GET /booking-status/{requestId}
type BookingStatusRecord struct {
	Status         BookingStatus `json:"status"`
	AllocatedSeats []string      `json:"allocatedSeats,omitempty"`
	Error          string        `json:"error,omitempty"`
}
