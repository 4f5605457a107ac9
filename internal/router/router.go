package router

import (
	"net/http"

	"github.com/cx-tal-miterani/coach-booking-client/internal/auth"
	"github.com/cx-tal-miterani/coach-booking-client/internal/handlers"
	"github.com/gorilla/mux"
)

// SetupRouter creates and configures the console HTTP router
func SetupRouter(h *handlers.Handler, verifier *auth.Verifier) *mux.Router {
	r := mux.NewRouter()

	// CORS middleware
	r.Use(corsMiddleware)

	// API routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(verifier.Middleware)

	// Booking lifecycle
	api.HandleFunc("/state", h.GetState).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/bookings", h.CreateBooking).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/bookings/reset", h.ResetBooking).Methods(http.MethodPost, http.MethodOptions)

	// Coach layout, history and preferences
	api.HandleFunc("/coach-layout", h.GetCoachLayout).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/history", h.GetHistory).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/preferences", h.GetPreferences).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/preferences", h.UpdatePreferences).Methods(http.MethodPut, http.MethodOptions)

	// WebSocket for real-time updates
	api.HandleFunc("/ws", h.ServeWebSocket).Methods(http.MethodGet)

	// Health check
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
