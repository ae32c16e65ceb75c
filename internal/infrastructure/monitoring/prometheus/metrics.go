package prometheus

import (
	"strconv"
	"time"
)

// Outcome labels for resolutions.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AppMetrics holds every metric the explorer exports.
type AppMetrics struct {
	// PubChem
	PubChemRequestsTotal   CounterVec
	PubChemRequestDuration HistogramVec

	// Resolution
	ResolutionsTotal        CounterVec
	ResolutionDuration      HistogramVec
	StructureFallbacksTotal CounterVec
	SuggestionsReturned     HistogramVec

	// Cache
	CacheOperationsTotal CounterVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec
}

var (
	DefaultHTTPDurationBuckets     = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultUpstreamDurationBuckets = []float64{.05, .1, .25, .5, 1, 2, 5, 10, 15, 20, 30}
	SuggestionCountBuckets         = []float64{0, 1, 2, 3, 4, 5, 10}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.PubChemRequestsTotal = collector.RegisterCounter("pubchem_requests_total", "PubChem requests by endpoint and outcome", "endpoint", "outcome")
	m.PubChemRequestDuration = collector.RegisterHistogram("pubchem_request_duration_seconds", "PubChem request latency", DefaultUpstreamDurationBuckets, "endpoint")

	m.ResolutionsTotal = collector.RegisterCounter("resolutions_total", "Compound resolutions by outcome and failure kind", "outcome", "kind")
	m.ResolutionDuration = collector.RegisterHistogram("resolution_duration_seconds", "End-to-end resolution latency", DefaultUpstreamDurationBuckets)
	m.StructureFallbacksTotal = collector.RegisterCounter("structure_fallbacks_total", "3D structure requests that fell back to 2D")
	m.SuggestionsReturned = collector.RegisterHistogram("suggestions_returned", "Suggestions returned per query", SuggestionCountBuckets)

	m.CacheOperationsTotal = collector.RegisterCounter("cache_operations_total", "Cache operations by type and result", "op", "result")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	return m
}

// NewNoopAppMetrics returns metrics that record nothing.
func NewNoopAppMetrics() *AppMetrics {
	return &AppMetrics{
		PubChemRequestsTotal:    noopCounterVec{},
		PubChemRequestDuration:  noopHistogramVec{},
		ResolutionsTotal:        noopCounterVec{},
		ResolutionDuration:      noopHistogramVec{},
		StructureFallbacksTotal: noopCounterVec{},
		SuggestionsReturned:     noopHistogramVec{},
		CacheOperationsTotal:    noopCounterVec{},
		HTTPRequestsTotal:       noopCounterVec{},
		HTTPRequestDuration:     noopHistogramVec{},
		HTTPActiveRequests:      noopGaugeVec{},
	}
}

// ObservePubChemRequest records one upstream call.
func (m *AppMetrics) ObservePubChemRequest(endpoint, outcome string, d time.Duration) {
	m.PubChemRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	m.PubChemRequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveResolution records a finished resolution. kind is empty on success.
func (m *AppMetrics) ObserveResolution(kind string, d time.Duration) {
	outcome := OutcomeSuccess
	if kind != "" {
		outcome = OutcomeFailure
	}
	m.ResolutionsTotal.WithLabelValues(outcome, kind).Inc()
	m.ResolutionDuration.WithLabelValues().Observe(d.Seconds())
}

func (m *AppMetrics) ObserveStructureFallback() {
	m.StructureFallbacksTotal.WithLabelValues().Inc()
}

func (m *AppMetrics) ObserveSuggestions(n int) {
	m.SuggestionsReturned.WithLabelValues().Observe(float64(n))
}

// ObserveCache records a cache operation; result is hit, miss, set or error.
func (m *AppMetrics) ObserveCache(op, result string) {
	m.CacheOperationsTotal.WithLabelValues(op, result).Inc()
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}
