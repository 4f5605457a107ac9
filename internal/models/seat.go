package models

import "time"

// SeatStatus represents the occupancy of a single coach seat
type SeatStatus string

const (
	SeatStatusAvailable  SeatStatus = "available"
	SeatStatusBooked     SeatStatus = "booked"
	SeatStatusLocked     SeatStatus = "locked"
	SeatStatusProcessing SeatStatus = "processing"
)

// SeatState is the value side of the coach layout mapping
type SeatState struct {
	Status SeatStatus `json:"status"`
}

// CoachLayout is the body of GET /coach-layout, keyed by seat ID
type CoachLayout map[string]SeatState

// SeatView is one seat of a rendered layout snapshot
type SeatView struct {
	SeatID string     `json:"seatId"`
	Status SeatStatus `json:"status"`
}

// LayoutSummary counts seats per display bucket
type LayoutSummary struct {
	Available int `json:"available"`
	Booked    int `json:"booked"`
	Locked    int `json:"locked"`
}

// LayoutSnapshot is the last known coach occupancy
type LayoutSnapshot struct {
	Seats     []SeatView    `json:"seats"`
	Summary   LayoutSummary `json:"summary"`
	FetchedAt time.Time     `json:"fetchedAt"`
	Error     string        `json:"error,omitempty"`
}
