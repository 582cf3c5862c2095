package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gala-ops/internal/metrics"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// newTestServer builds a router with no backing services; only routes that
// fail validation before reaching a service are exercised here
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	handler := metrics.NewHandler(metrics.New(logger), logger)
	server := NewServer(nil, nil, nil, handler, logger)

	return server.Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRegisterGuestValidation(t *testing.T) {
	router := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"missing name", `{"category":"vip"}`},
		{"unknown category", `{"name":"A","category":"platinum"}`},
		{"negative sponsorship", `{"name":"A","category":"vip","sponsorship":"-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/api/guests", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestCapturePaymentValidation(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/guests/g1/payments", `{"amount":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/guests/g1/payments", `{"amount":"-500"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServicePaymentValidation(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/service-payments", `{"amount":"100"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskIDValidation(t *testing.T) {
	router := newTestServer(t)

	rec := doRequest(t, router, http.MethodPatch, "/api/tasks/abc", `{"done":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/tasks/0", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
