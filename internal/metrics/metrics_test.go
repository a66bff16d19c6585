package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.BuildCompleted(true)
	r.ReloadCompleted("ok")
	r.PagesRendered(3)
	r.ImagesEncoded(2)
	r.CacheCleared(1)
}

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewPrometheusRecorder(reg)

	r.BuildCompleted(true)
	r.BuildCompleted(false)
	r.ReloadCompleted("ok")
	r.ReloadCompleted("dropped")
	r.PagesRendered(5)
	r.ImagesEncoded(4)
	r.CacheCleared(7)

	require.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("success")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.reloads.WithLabelValues("dropped")))
	require.Equal(t, 5.0, testutil.ToFloat64(r.pages))
	require.Equal(t, 4.0, testutil.ToFloat64(r.images))
	require.Equal(t, 7.0, testutil.ToFloat64(r.cache))
}

func TestPrometheusRecorderDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheusRecorder(reg)
	require.Panics(t, func() { NewPrometheusRecorder(reg) })
}
