package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is one append-only row of a user's booking history.
// The client writes it once with status pending; AllocatedSeats and
// ErrorMessage are filled in by other writers and only read back here.
type HistoryRecord struct {
	ID             uuid.UUID      `json:"id"`
	UserID         string         `json:"userId"`
	RequestID      string         `json:"requestId"`
	NumSeats       int            `json:"numSeats"`
	SeatPreference PreferenceType `json:"seatPreference,omitempty"`
	Status         BookingStatus  `json:"status"`
	AllocatedSeats []string       `json:"allocatedSeats,omitempty"`
	ErrorMessage   *string        `json:"errorMessage,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
