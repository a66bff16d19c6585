// Package live coordinates the development mode: it watches the content
// root, debounces change bursts into single reloads, swaps the in-memory
// entry set atomically and re-warms the caches. Overlapping reload
// triggers are dropped, never queued.
package live

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/sitegen/internal/cache"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/images"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// Coordinator owns the live entry-set pointer and the reload state machine:
// idle -> reload-scheduled (debounced) -> reload-running -> idle.
type Coordinator struct {
	cfg    *config.Config
	loader *content.Loader
	engine render.Engine
	cache  *cache.Manager
	rec    metrics.Recorder

	site atomic.Pointer[content.Site]

	// reloading is the reload-in-progress lock. It is a lock, not a
	// queue: a trailing filesystem event mid-reload is lost by design.
	reloading atomic.Bool

	// The image path is independent and simpler: one pending flag plus a
	// debounce timer; only one regeneration run may be in flight.
	imagePending atomic.Bool
	imageRunning atomic.Bool

	debounce time.Duration

	mu       sync.Mutex
	timer    *time.Timer
	imgTimer *time.Timer
}

func NewCoordinator(cfg *config.Config, loader *content.Loader, engine render.Engine, cm *cache.Manager, rec metrics.Recorder) *Coordinator {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Coordinator{
		cfg:      cfg,
		loader:   loader,
		engine:   engine,
		cache:    cm,
		rec:      rec,
		debounce: cfg.Serve.Debounce,
	}
}

// Site returns the current snapshot. Requests observe either the fully-old
// or fully-new set, never a partial one.
func (c *Coordinator) Site() *content.Site { return c.site.Load() }

// Start performs the initial load and warm, then blocks on the watcher
// until ctx is done.
func (c *Coordinator) Start(ctx context.Context) error {
	site, err := c.loader.Load(content.ModeLive)
	if err != nil {
		return err
	}
	c.site.Store(site)
	c.warm(site)
	// The initial snapshot may reference images that were never optimized;
	// their variants must exist before the first page is served.
	c.imagePending.Store(true)
	c.regenerateImages()
	return c.watch(ctx)
}

// scheduleReload (re)arms the debounce timer; each event during a burst
// pushes the reload further out.
func (c *Coordinator) scheduleReload() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.reload)
}

// reload is the guarded run. A trigger landing while a reload is running is
// logged and dropped.
func (c *Coordinator) reload() {
	if !c.reloading.CompareAndSwap(false, true) {
		slog.Info("reload already running, dropping trigger")
		c.rec.ReloadCompleted("dropped")
		return
	}
	defer c.reloading.Store(false)

	id := uuid.NewString()
	start := time.Now()
	slog.Info("reload started", logfields.ReloadID(id))

	next, err := c.loader.Load(content.ModeLive)
	if err != nil {
		// The previous snapshot keeps serving; failures never leave a
		// partially visible set.
		slog.Error("reload failed, keeping previous entry set", logfields.ReloadID(id), logfields.Error(err))
		c.rec.ReloadCompleted("failed")
		return
	}

	c.site.Store(next)
	freed := c.cache.ClearAll()
	c.rec.CacheCleared(freed)
	c.warm(next)

	// A content edit can reference an existing image for the first time
	// without touching the image file itself, so no raster event arrives.
	c.imagePending.Store(true)
	c.regenerateImages()

	c.rec.ReloadCompleted("ok")
	slog.Info("reload complete",
		logfields.ReloadID(id),
		logfields.Count(len(next.Entries)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
}

// scheduleImages arms the image debounce and marks work pending.
func (c *Coordinator) scheduleImages() {
	c.imagePending.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.imgTimer != nil {
		c.imgTimer.Stop()
	}
	c.imgTimer = time.AfterFunc(c.debounce, c.regenerateImages)
}

// regenerateImages serializes variant regeneration: one run in flight
// system-wide, pending work picked up after the current run finishes.
func (c *Coordinator) regenerateImages() {
	if !c.imageRunning.CompareAndSwap(false, true) {
		return // the running pass will observe the pending flag
	}
	defer c.imageRunning.Store(false)

	for c.imagePending.CompareAndSwap(true, false) {
		site := c.site.Load()
		if site == nil {
			return
		}
		encodes := images.RunBatch(site.Images, c.cfg.OutputDir)
		c.rec.ImagesEncoded(encodes)
		removed, err := images.PruneOrphans(c.cfg.OutputDir, images.ValidHashes(site.Images))
		if err != nil {
			slog.Warn("orphan prune failed", logfields.Error(err))
		}
		slog.Info("image variants refreshed", logfields.Count(encodes), slog.Int("pruned", removed))
	}
}
