package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveAnalysis("news", "Likely Fake", "heuristic", 120*time.Millisecond)
	m.ObserveAnalysis("news", "Likely Fake", "heuristic", 80*time.Millisecond)
	m.BackendFailed("gemini", "quota_exceeded")
	m.FetchFailed("timeout")
	m.AuditRecordDropped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnalysesTotal.WithLabelValues("news", "Likely Fake", "heuristic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BackendFailures.WithLabelValues("gemini", "quota_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditDropped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.AnalysisDuration))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalysis("news", "Uncertain", "heuristic", time.Second)
		m.BackendFailed("x", "y")
		m.FetchFailed("z")
		m.AuditRecordDropped()
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveAnalysis("privacy", "High Risk", "heuristic", time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `truevail_analyses_total{mode="privacy",source="heuristic",status="High Risk"} 1`)
	assert.Contains(t, string(body), "truevail_analysis_duration_seconds_bucket")
}
