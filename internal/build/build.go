// Package build is the batch orchestrator: it consumes one loaded Site and
// emits the complete deployable output tree through strictly sequenced
// stages, each consuming the state its predecessors left behind.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/redirects"
	"git.home.luguber.info/inful/sitegen/internal/render"
)

// State carries mutable state across stages.
type State struct {
	Cfg    *config.Config
	Site   *content.Site
	Engine render.Engine
	OutDir string
	Rules  []redirects.Rule
	Rec    metrics.Recorder

	pages *PageRenderer

	// Fingerprints maps original asset web paths to fingerprinted ones.
	// Populated by the asset stage, consumed by the rewrite stage.
	Fingerprints map[string]string

	// writtenPages records emitted page file paths so redirect fallbacks
	// never overwrite a real page.
	writtenPages map[string]bool

	StageDurations map[string]time.Duration
	start          time.Time
}

// StageDef is one named build phase.
type StageDef struct {
	Name string
	Fn   func(context.Context, *State) error
}

func stages() []StageDef {
	return []StageDef{
		{"clean", stageClean},
		{"assets", stageAssets},
		{"images", stageImages},
		{"pages", stagePages},
		{"listings", stageListings},
		{"taxonomies", stageTaxonomies},
		{"documents", stageDocuments},
		{"redirects", stageRedirects},
		{"static", stageStatic},
		{"rewrite", stageRewrite},
		{"compress", stageCompress},
	}
}

// Run executes the full batch build. The first failing stage aborts: batch
// mode prefers a missing output tree over a half-written one.
func Run(ctx context.Context, cfg *config.Config, site *content.Site, engine render.Engine, rules []redirects.Rule, rec metrics.Recorder) error {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	bs := &State{
		Cfg:            cfg,
		Site:           site,
		Engine:         engine,
		OutDir:         cfg.OutputDir,
		Rules:          rules,
		Rec:            rec,
		pages:          &PageRenderer{Cfg: cfg, Site: site, Engine: engine},
		Fingerprints:   map[string]string{},
		writtenPages:   map[string]bool{},
		StageDurations: map[string]time.Duration{},
		start:          time.Now(),
	}

	if err := runStages(ctx, bs); err != nil {
		rec.BuildCompleted(false)
		return err
	}
	rec.BuildCompleted(true)
	slog.Info("build complete",
		logfields.Path(bs.OutDir),
		logfields.Count(len(site.Entries)),
		logfields.DurationMS(float64(time.Since(bs.start).Milliseconds())))
	return nil
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error.
func runStages(ctx context.Context, bs *State) error {
	for _, st := range stages() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("build canceled before stage %s: %w", st.Name, ctx.Err())
		default:
		}
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.StageDurations[st.Name] = dur
		slog.Debug("stage finished",
			logfields.Stage(st.Name),
			logfields.DurationMS(float64(dur.Milliseconds())),
			logfields.Error(err))
		if err != nil {
			return fmt.Errorf("stage %s: %w", st.Name, err)
		}
	}
	return nil
}
