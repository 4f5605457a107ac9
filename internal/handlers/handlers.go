package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/cx-tal-miterani/coach-booking-client/internal/auth"
	"github.com/cx-tal-miterani/coach-booking-client/internal/database"
	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service"
	"github.com/cx-tal-miterani/coach-booking-client/internal/websocket"
)

// LayoutSource returns the last known coach layout
type LayoutSource interface {
	Snapshot() models.LayoutSnapshot
}

// Handler contains HTTP handlers for the console API
type Handler struct {
	bookingService service.BookingService
	layout         LayoutSource
	hub            *websocket.Hub
}

// NewHandler creates a new Handler instance
func NewHandler(bookingService service.BookingService, layout LayoutSource, hub *websocket.Hub) *Handler {
	return &Handler{
		bookingService: bookingService,
		layout:         layout,
		hub:            hub,
	}
}

type preferenceBody struct {
	PreferenceType models.PreferenceType `json:"preferenceType"`
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// GetState handles GET /api/state
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.bookingService.State())
}

// CreateBooking handles POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := h.bookingService.Submit(r.Context(), auth.UserIDFrom(r.Context()), req)
	if err != nil {
		var verr *service.ValidationError
		var terr *service.TransportError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, service.ErrSubmissionInProgress):
			respondError(w, http.StatusConflict, err.Error())
		case errors.As(err, &terr):
			respondError(w, http.StatusBadGateway, terr.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	respondJSON(w, http.StatusAccepted, resp)
}

// ResetBooking handles POST /api/bookings/reset
func (h *Handler) ResetBooking(w http.ResponseWriter, r *http.Request) {
	snap, err := h.bookingService.Reset()
	if err != nil {
		if errors.Is(err, service.ErrResetWhileBooking) {
			respondError(w, http.StatusConflict, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GetCoachLayout handles GET /api/coach-layout
func (h *Handler) GetCoachLayout(w http.ResponseWriter, r *http.Request) {
	if h.layout == nil {
		respondError(w, http.StatusServiceUnavailable, "Coach layout is not available")
		return
	}
	respondJSON(w, http.StatusOK, h.layout.Snapshot())
}

// GetHistory handles GET /api/history
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.bookingService.History(r.Context(), auth.UserIDFrom(r.Context()))
	if err != nil {
		log.Printf("console: %v", err)
		respondError(w, http.StatusServiceUnavailable, "Failed to load booking history")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// GetPreferences handles GET /api/preferences
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	pref, err := h.bookingService.Preference(r.Context(), auth.UserIDFrom(r.Context()))
	if err != nil {
		// the fallback value is still usable
		log.Printf("console: %v", err)
	}
	respondJSON(w, http.StatusOK, preferenceBody{PreferenceType: pref})
}

// UpdatePreferences handles PUT /api/preferences
func (h *Handler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var body preferenceBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.bookingService.SavePreference(r.Context(), auth.UserIDFrom(r.Context()), body.PreferenceType)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			respondError(w, http.StatusBadRequest, verr.Message)
		case errors.Is(err, service.ErrUnauthenticated):
			respondError(w, http.StatusUnauthorized, "Sign in to save seat preferences")
		case errors.Is(err, database.ErrStoreDisabled):
			respondError(w, http.StatusServiceUnavailable, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// ServeWebSocket handles GET /api/ws. The current state and layout are sent first.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "Live updates are not available")
		return
	}
	initial := []*websocket.Message{websocket.StateMessage(h.bookingService.State())}
	if h.layout != nil {
		initial = append(initial, websocket.LayoutMessage(h.layout.Snapshot()))
	}
	h.hub.HandleWebSocket(w, r, initial...)
}
