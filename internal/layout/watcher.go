package layout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/cx-tal-miterani/coach-booking-client/internal/models"
)

const DefaultInterval = 3 * time.Second

// Source fetches the current coach occupancy
type Source interface {
	GetCoachLayout(ctx context.Context) (models.CoachLayout, error)
}

// WatcherOptions parameterize a Watcher
type WatcherOptions struct {
	Interval time.Duration
	// Cache is optional
	Cache Cache
	// OnUpdate receives every new snapshot, including failed refreshes
	OnUpdate func(models.LayoutSnapshot)
}

// Watcher polls the coach layout on a fixed cadence, independent of any
// booking. A failed fetch keeps the previous seats and records the error.
type Watcher struct {
	source Source
	opts   WatcherOptions
	now    func() time.Time

	mu   sync.RWMutex
	last models.LayoutSnapshot
	ok   bool
}

// NewWatcher creates a Watcher
func NewWatcher(source Source, opts WatcherOptions) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Watcher{
		source: source,
		opts:   opts,
		now:    time.Now,
		last:   models.LayoutSnapshot{Seats: []models.SeatView{}},
	}
}

// Snapshot returns the last known layout
func (w *Watcher) Snapshot() models.LayoutSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	snap := w.last
	snap.Seats = append([]models.SeatView(nil), w.last.Seats...)
	return snap
}

// Run restores a cached snapshot, then refreshes until ctx is done
func (w *Watcher) Run(ctx context.Context) {
	w.restore(ctx)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	w.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Refresh(ctx)
		}
	}
}

// Refresh fetches the layout once
func (w *Watcher) Refresh(ctx context.Context) models.LayoutSnapshot {
	layout, err := w.source.GetCoachLayout(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return w.Snapshot()
		}
		log.Printf("layout: refresh failed: %v", err)
		w.mu.Lock()
		w.last.Error = "Failed to load coach layout"
		snap := w.last
		w.mu.Unlock()
		w.emit(snap)
		return snap
	}

	snap := BuildSnapshot(layout, w.now())
	w.mu.Lock()
	w.last = snap
	w.ok = true
	w.mu.Unlock()

	if w.opts.Cache != nil {
		if err := w.opts.Cache.Store(ctx, snap); err != nil {
			log.Printf("layout: %v", err)
		}
	}
	w.emit(snap)
	return snap
}

func (w *Watcher) restore(ctx context.Context) {
	if w.opts.Cache == nil {
		return
	}
	snap, err := w.opts.Cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			log.Printf("layout: %v", err)
		}
		return
	}
	w.mu.Lock()
	if !w.ok {
		w.last = *snap
	}
	w.mu.Unlock()
}

func (w *Watcher) emit(snap models.LayoutSnapshot) {
	if w.opts.OnUpdate != nil {
		w.opts.OnUpdate(snap)
	}
}
