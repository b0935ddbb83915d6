package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsExposition(t *testing.T) {
	m := New()
	m.SessionStarted()
	m.SessionStarted()
	m.SessionCompleted(90 * time.Second)
	m.SessionFailed()
	m.PhaseObserved("round1", 12*time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "break_sessions_started_total 2")
	assert.Contains(t, body, "break_sessions_completed_total 1")
	assert.Contains(t, body, "break_sessions_failed_total 1")
	assert.Contains(t, body, `break_phase_duration_seconds_count{phase="round1"} 1`)
}

func TestNilMetricsAreInert(t *testing.T) {
	var m *Metrics
	m.SessionStarted()
	m.SessionCompleted(time.Second)
	m.SessionFailed()
	m.PhaseObserved("axis", time.Second)
	assert.NotNil(t, m.Handler())
}
