package main

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orrery/backend/internal/telemetry"
)

// brokenWriter имитирует клиента, закрывшего соединение
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func newTestTelemetry(logger *log.Logger) *telemetry.TelemetryManager {
	tm := telemetry.NewTelemetryManager(logger, 10, time.Hour)
	tm.SetEnabled(true)
	tm.LogEvent("catalog_reload")
	return tm
}

func TestTelemetryHandler_ServesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	h := telemetryHandler(newTestTelemetry(logger), logger)

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/telemetry", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.String())
	assert.NotContains(t, buf.String(), "Ошибка отправки телеметрии")
}

func TestTelemetryHandler_LogsWriteError(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	h := telemetryHandler(newTestTelemetry(logger), logger)

	h(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/telemetry", nil))

	assert.Contains(t, buf.String(), "[Server] Ошибка отправки телеметрии: connection reset")
}
