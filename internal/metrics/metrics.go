// Package metrics provides the observability seam for the build pipeline.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks and costs
// nothing when disabled. The Prometheus implementation is activated by the
// serve path, which also exposes the registry over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder defines all metrics operations the pipeline emits.
type Recorder interface {
	BuildCompleted(success bool)
	ReloadCompleted(result string) // "ok", "failed", "dropped"
	PagesRendered(n int)
	ImagesEncoded(n int)
	CacheCleared(freed int)
}

// NoopRecorder is the default Recorder; every method inlines to nothing.
type NoopRecorder struct{}

func (NoopRecorder) BuildCompleted(bool)    {}
func (NoopRecorder) ReloadCompleted(string) {}
func (NoopRecorder) PagesRendered(int)      {}
func (NoopRecorder) ImagesEncoded(int)      {}
func (NoopRecorder) CacheCleared(int)       {}

// PrometheusRecorder implements Recorder on a prometheus registry.
type PrometheusRecorder struct {
	builds  *prometheus.CounterVec
	reloads *prometheus.CounterVec
	pages   prometheus.Counter
	images  prometheus.Counter
	cache   prometheus.Counter
}

// NewPrometheusRecorder registers the pipeline collectors on reg.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitegen_builds_total",
			Help: "Completed batch builds by outcome.",
		}, []string{"outcome"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitegen_reloads_total",
			Help: "Live reload attempts by result.",
		}, []string{"result"}),
		pages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitegen_pages_rendered_total",
			Help: "Pages rendered across builds and re-warms.",
		}),
		images: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitegen_image_variants_encoded_total",
			Help: "Raster image variants encoded.",
		}),
		cache: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitegen_cache_entries_freed_total",
			Help: "Cache entries freed by full clears.",
		}),
	}
	reg.MustRegister(r.builds, r.reloads, r.pages, r.images, r.cache)
	return r
}

func (r *PrometheusRecorder) BuildCompleted(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	r.builds.WithLabelValues(outcome).Inc()
}

func (r *PrometheusRecorder) ReloadCompleted(result string) {
	r.reloads.WithLabelValues(result).Inc()
}

func (r *PrometheusRecorder) PagesRendered(n int) { r.pages.Add(float64(n)) }
func (r *PrometheusRecorder) ImagesEncoded(n int) { r.images.Add(float64(n)) }
func (r *PrometheusRecorder) CacheCleared(n int)  { r.cache.Add(float64(n)) }
