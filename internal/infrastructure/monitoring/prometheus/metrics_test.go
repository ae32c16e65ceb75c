package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molexplorer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molexplorer/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidConfig))
}

func TestNewMetricsCollector_RuntimeCollectors(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "rt", EnableGoMetrics: true}, nil)
	require.NoError(t, err)
	assert.Contains(t, scrape(t, c), "go_goroutines")
}

func TestRegisterCounter_Dedupes(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("hits_total", "hits", "kind")
	b := c.RegisterCounter("hits_total", "hits", "kind")

	a.WithLabelValues("x").Inc()
	b.WithLabelValues("x").Add(2)

	assert.Contains(t, scrape(t, c), `test_unit_hits_total{kind="x"} 3`)
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("shared", "a counter")
	g := c.RegisterGauge("shared", "a gauge")

	_, isNoop := g.(noopGaugeVec)
	assert.True(t, isNoop)
	g.WithLabelValues().Set(5)
}

func TestRegister_ConflictingCollectorIsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Namespace: "test", Subsystem: "unit", Name: "taken"}))

	h := c.RegisterHistogram("taken", "clash", nil)
	_, isNoop := h.(noopHistogramVec)
	assert.True(t, isNoop)
}

func TestUnregister(t *testing.T) {
	c := newTestCollector(t)
	col := prometheus.NewGauge(prometheus.GaugeOpts{Name: "temp_gauge"})
	c.MustRegister(col)
	assert.True(t, c.Unregister(col))
	assert.False(t, c.Unregister(col))
}

func TestAppMetrics_Exposition(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.ObservePubChemRequest("cids", "ok", 120*time.Millisecond)
	m.ObservePubChemRequest("structure_3d", "timeout", 20*time.Second)
	m.ObserveResolution("", time.Second)
	m.ObserveResolution("NotFound", time.Second)
	m.ObserveStructureFallback()
	m.ObserveSuggestions(3)
	m.ObserveCache("get", "hit")
	m.RecordHTTPRequest(http.MethodGet, "/api/v1/compounds/{query}", 200, 5*time.Millisecond)
	m.HTTPActiveRequests.WithLabelValues(http.MethodGet).Inc()

	out := scrape(t, c)
	assert.Contains(t, out, `test_unit_pubchem_requests_total{endpoint="cids",outcome="ok"} 1`)
	assert.Contains(t, out, `test_unit_pubchem_requests_total{endpoint="structure_3d",outcome="timeout"} 1`)
	assert.Contains(t, out, `test_unit_pubchem_request_duration_seconds_count{endpoint="cids"} 1`)
	assert.Contains(t, out, `test_unit_resolutions_total{kind="",outcome="success"} 1`)
	assert.Contains(t, out, `test_unit_resolutions_total{kind="NotFound",outcome="failure"} 1`)
	assert.Contains(t, out, `test_unit_structure_fallbacks_total 1`)
	assert.Contains(t, out, `test_unit_suggestions_returned_sum 3`)
	assert.Contains(t, out, `test_unit_cache_operations_total{op="get",result="hit"} 1`)
	assert.Contains(t, out, `test_unit_http_requests_total{method="GET",path="/api/v1/compounds/{query}",status="200"} 1`)
	assert.Contains(t, out, `test_unit_http_active_requests{method="GET"} 1`)
}

func TestNoopAppMetrics(t *testing.T) {
	m := NewNoopAppMetrics()
	assert.NotPanics(t, func() {
		m.ObservePubChemRequest("cids", "ok", time.Millisecond)
		m.ObserveResolution("Timeout", time.Millisecond)
		m.ObserveStructureFallback()
		m.ObserveSuggestions(0)
		m.ObserveCache("set", "error")
		m.RecordHTTPRequest("GET", "/", 500, time.Millisecond)
		m.HTTPActiveRequests.WithLabelValues("GET").Dec()
	})
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("op_seconds", "op", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	assert.Greater(t, timer.ObserveDuration(), time.Duration(0))
	assert.Contains(t, scrape(t, c), "test_unit_op_seconds_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}
