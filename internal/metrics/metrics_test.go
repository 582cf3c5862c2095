package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewInstancesAreIsolated(t *testing.T) {
	logger := zap.NewNop()

	// Two instances must register without colliding; each owns its registry.
	first := New(logger)
	second := New(logger)

	first.RecordUpsale()
	first.RecordAnomaly("negative_effective")
	second.RecordCacheLookup("hit")
	second.RecordCheckin(3)
}

func TestMetricsHandlerServesOwnRegistry(t *testing.T) {
	logger := zap.NewNop()
	m := New(logger)
	m.RecordPaymentCapture("sponsorship", "ok")

	handler := NewHandler(m, logger)

	rec := httptest.NewRecorder()
	handler.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "payments_captured_total")
}
