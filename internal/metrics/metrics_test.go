// internal/metrics/metrics_test.go
package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("RecordsOutcomes", func(t *testing.T) {
		m := New(prometheus.NewRegistry())

		m.RecordOperation("convert", nil, 10*time.Millisecond)
		m.RecordOperation("convert", errors.New("boom"), time.Millisecond)
		m.RecordProviderCall("live", nil, time.Millisecond)

		assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("convert", "success")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("convert", "error")))
		assert.Equal(t, 1.0, testutil.ToFloat64(m.providerCalls.WithLabelValues("live", "success")))
	})

	t.Run("NilIsNoop", func(t *testing.T) {
		var m *Metrics
		assert.NotPanics(t, func() {
			m.RecordOperation("top_up", nil, time.Second)
			m.RecordNotification("websocket", nil)
			m.AddWSConnections(1)
		})
	})

	t.Run("Handler", func(t *testing.T) {
		m := New(prometheus.NewRegistry())
		m.RecordRegistryRefresh(nil)

		rr := httptest.NewRecorder()
		m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "fxwallet_currency_registry_refreshes_total")
	})
}
