package telemetry_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlas-desktop/portfolio-sim/internal/telemetry"
)

func TestRecordSimulation(t *testing.T) {
	m := telemetry.NewMetrics()

	m.RecordSimulation("parametric_normal", 100, 0.01, nil)
	m.RecordSimulation("parametric_normal", 50, 0.02, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("parametric_normal", telemetry.OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("parametric_normal", telemetry.OutcomeError)))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.PathsTotal))
}

func TestRecordRejectedAndFallbacks(t *testing.T) {
	m := telemetry.NewMetrics()

	m.RecordRejected("validation")
	m.RecordRejected("validation")
	m.RecordHistoryFallbacks(3)
	m.RecordHistoryFallbacks(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RejectedRequests.WithLabelValues("validation")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.HistoryFallbacks))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *telemetry.Metrics

	assert.NotPanics(t, func() {
		m.RecordSimulation("garch", 1, 1, nil)
		m.RecordRejected("too_large")
		m.RecordHistoryFallbacks(1)
	})
	assert.Nil(t, m.Registry())
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := telemetry.NewMetrics()
	m.RecordSimulation("garch", 10, 0.5, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "mcsim_simulations_total"))
	assert.True(t, strings.Contains(body, "mcsim_paths_total 10"))
}
