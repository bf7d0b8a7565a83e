package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewImportMetrics(reg)

	m.ObserveFile(OutcomeImported)
	m.ObserveFile(OutcomeImported)
	m.ObserveFile(OutcomeFailed)
	m.ObserveParse("blinkit", 40*time.Millisecond, 2, []string{"Dairy & Eggs", "Dairy & Eggs", "Charges & Fees"})
	m.SyncCompleted(time.Unix(1700000000, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Files.WithLabelValues(OutcomeImported)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Files.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Invoices.WithLabelValues("blinkit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Items.WithLabelValues("Dairy & Eggs")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Items.WithLabelValues("Charges & Fees")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSync))
	assert.Equal(t, 1, testutil.CollectAndCount(m.ParseDuration))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *ImportMetrics
	assert.NotPanics(t, func() {
		m.ObserveFile(OutcomeSkipped)
		m.ObserveParse("zepto", time.Second, 1, []string{"Others"})
		m.SyncCompleted(time.Now())
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewImportMetrics(reg)
	m.ObserveFile(OutcomeSkipped)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `invoices_files_total{outcome="skipped"} 1`))
}
