package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/allocator"
	"github.com/cx-tal-miterani/coach-booking-client/internal/auth"
	"github.com/cx-tal-miterani/coach-booking-client/internal/config"
	"github.com/cx-tal-miterani/coach-booking-client/internal/database"
	"github.com/cx-tal-miterani/coach-booking-client/internal/events"
	"github.com/cx-tal-miterani/coach-booking-client/internal/handlers"
	"github.com/cx-tal-miterani/coach-booking-client/internal/layout"
	"github.com/cx-tal-miterani/coach-booking-client/internal/router"
	"github.com/cx-tal-miterani/coach-booking-client/internal/service"
	"github.com/cx-tal-miterani/coach-booking-client/internal/state"
	"github.com/cx-tal-miterani/coach-booking-client/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Allocation service client
	alloc := allocator.NewClient(cfg.AllocatorURL, nil).WithTimeout(cfg.HTTPTimeout)

	// Optional persistence
	opts := service.Options{
		State:        state.New(),
		BookingAPI:   alloc,
		StatusAPI:    alloc,
		HistoryLimit: cfg.HistoryLimit,
		Poll: service.PollOptions{
			Interval:    cfg.PollInterval,
			MaxFailures: cfg.PollMaxFailures,
		},
	}
	store, err := database.Open(ctx, cfg.DatabaseURL)
	switch {
	case errors.Is(err, database.ErrStoreDisabled):
		log.Println("Persistence disabled, history and preferences are unavailable")
	case err != nil:
		log.Fatalf("Failed to open database: %v", err)
	default:
		defer store.Close()
		opts.HistoryStore = store
		opts.PreferenceStore = store
		log.Println("Connected to database")
	}

	// Live updates
	hub := websocket.NewHub()
	go hub.Run(ctx)
	opts.Notifier = hub

	orchestrator := service.NewOrchestrator(opts)
	orchestrator.Start()

	stateUpdates, stopStateUpdates := orchestrator.AppState().Subscribe()
	defer stopStateUpdates()
	go hub.Follow(ctx, stateUpdates)

	// Lifecycle events
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := events.NewAMQPPublisher(cfg.RabbitMQURL, events.DefaultExchange)
		if err != nil {
			log.Printf("Lifecycle events disabled: %v", err)
		} else {
			publisher = p
			log.Printf("Publishing lifecycle events to exchange %s", events.DefaultExchange)
		}
	}
	defer publisher.Close()
	eventUpdates, stopEventUpdates := orchestrator.AppState().Subscribe()
	defer stopEventUpdates()
	go events.Forward(ctx, eventUpdates, publisher)

	// Coach layout
	watcherOpts := layout.WatcherOptions{
		Interval: cfg.LayoutInterval,
		OnUpdate: hub.BroadcastLayout,
	}
	if rdb := layout.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); rdb != nil {
		defer rdb.Close()
		watcherOpts.Cache = layout.NewRedisCache(rdb, layout.DefaultCacheTTL)
		log.Printf("Caching coach layout in Redis at %s", cfg.RedisAddr)
	}
	watcher := layout.NewWatcher(alloc, watcherOpts)
	go watcher.Run(ctx)

	// Initialize handlers
	h := handlers.NewHandler(orchestrator, watcher, hub)

	// Create router
	verifier := auth.NewVerifier(cfg.JWTSecret)
	if !verifier.Enabled() {
		log.Println("JWT_SECRET not set, every request is anonymous")
	}
	r := router.SetupRouter(h, verifier)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Booking console starting on port %s", cfg.Port)
		log.Printf("Using allocation service at %s", cfg.AllocatorURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	orchestrator.Close()
	cancel()

	log.Println("Server stopped")
}
