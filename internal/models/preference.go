package models

import "time"

// PreferenceType is the kind of seat a user would like to be allocated
type PreferenceType string

const (
	PreferenceWindow PreferenceType = "window"
	PreferenceAisle  PreferenceType = "aisle"
	PreferenceMiddle PreferenceType = "middle"
	PreferenceAny    PreferenceType = "any"
)

// Valid reports whether p is one of the known preference types
func (p PreferenceType) Valid() bool {
	switch p {
	case PreferenceWindow, PreferenceAisle, PreferenceMiddle, PreferenceAny:
		return true
	}
	return false
}

// SeatPreference is owned by one authenticated user and upserted by identity
type SeatPreference struct {
	UserID         string         `json:"userId,omitempty"`
	PreferenceType PreferenceType `json:"preferenceType"`
	UpdatedAt      time.Time      `json:"updatedAt,omitempty"`
}
