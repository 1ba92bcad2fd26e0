package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheila/internal/analytics"
	"sheila/internal/domain"
	"sheila/internal/exec"
	"sheila/internal/history"
	"sheila/internal/registry"
	"sheila/internal/server"
	"sheila/internal/store"
)

func newTestApp(t *testing.T, strategy exec.Strategy) (*server.App, *registry.Service, *history.Log) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mem := store.NewMemory()
	devices := registry.NewService(mem, logger)
	commands := history.NewLog(mem, logger)
	app := server.NewApp(":0", devices, commands, strategy, logger)
	return app, devices, commands
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestGetDevicesSeedsSamples(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodGet, "/api/devices", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var devices []domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	require.Len(t, devices, 3)

	kinds := map[domain.DeviceKind]int{}
	for _, d := range devices {
		kinds[d.Kind]++
	}
	assert.Equal(t, 1, kinds[domain.DeviceKindBulb])
	assert.Equal(t, 2, kinds[domain.DeviceKindFan])
}

func TestCreateDevice(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/devices", map[string]string{
		"name": "Desk Fan",
		"type": "fan",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var device domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &device))
	assert.NotEmpty(t, device.ID)
	assert.Equal(t, "Unknown", device.Room)
	assert.False(t, device.IsOn)
	require.NotNil(t, device.Speed)
	assert.Equal(t, 1, *device.Speed)
}

func TestCreateDeviceMissingFields(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/devices", map[string]string{"name": "Desk Fan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, app.Router(), http.MethodPost, "/api/devices", map[string]string{"type": "fan"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUnknownDevice(t *testing.T) {
	app, devices, _ := newTestApp(t, exec.Fixed{OK: true})

	before, err := devices.List(context.Background())
	require.NoError(t, err)

	rec := doJSON(t, app.Router(), http.MethodDelete, "/api/devices/DEV-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	after, err := devices.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before, after, "registry unchanged on a miss")
}

func TestUpdateStateUnknownDevice(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	on := true
	rec := doJSON(t, app.Router(), http.MethodPut, "/api/devices/DEV-missing/state", domain.StatePatch{IsOn: &on})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateStateClampsSpeed(t *testing.T) {
	app, devices, _ := newTestApp(t, exec.Fixed{OK: true})

	fan, err := devices.Create(context.Background(), "Desk Fan", domain.DeviceKindFan, "", "")
	require.NoError(t, err)

	speed := 9
	rec := doJSON(t, app.Router(), http.MethodPut, fmt.Sprintf("/api/devices/%s/state", fan.ID), domain.StatePatch{Speed: &speed})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	require.NotNil(t, updated.Speed)
	assert.Equal(t, 3, *updated.Speed)
}

func TestPing(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodGet, "/api/ping", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"alive":true}`, rec.Body.String())
}

func TestCommandEmptyCmd(t *testing.T) {
	app, _, commands := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/command", map[string]string{"cmd": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, commands.All(), "empty command must not be logged")

	rec = doJSON(t, app.Router(), http.MethodPost, "/api/command", map[string]string{"cmd": "   "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, commands.All())
}

func TestCommandLogsEntry(t *testing.T) {
	app, _, commands := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/command", map[string]string{"cmd": "turn on fan 1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status domain.CommandStatus `json:"status"`
		Result string               `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.StatusSuccess, resp.Status)
	assert.Contains(t, resp.Result, "turn on fan 1")

	entries := commands.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "turn on fan 1", entries[0].Cmd)
	assert.Equal(t, domain.StatusSuccess, entries[0].Status)
	assert.Equal(t, domain.DefaultUser, entries[0].User)
	assert.GreaterOrEqual(t, entries[0].ResponseTimeMs, 0)
}

func TestCommandFailureStillLogged(t *testing.T) {
	app, _, commands := newTestApp(t, exec.Fixed{OK: false})

	rec := doJSON(t, app.Router(), http.MethodPost, "/api/command", map[string]string{"cmd": "blow up"})
	require.Equal(t, http.StatusOK, rec.Code)

	entries := commands.All()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusFailed, entries[0].Status)
}

func TestStatusFields(t *testing.T) {
	app, _, _ := newTestApp(t, exec.Fixed{OK: true})

	rec := doJSON(t, app.Router(), http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	for _, field := range []string{"uptime", "signal", "battery", "temperature", "humidity", "noise", "accuracy"} {
		assert.Contains(t, status, field)
	}
}

func TestAnalyticsConsistency(t *testing.T) {
	app, _, commands := newTestApp(t, exec.Fixed{OK: true})

	for i := 0; i < 3; i++ {
		doJSON(t, app.Router(), http.MethodPost, "/api/command", map[string]string{"cmd": "lights on"})
	}

	rec := doJSON(t, app.Router(), http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report analytics.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 3, report.TotalCommands)
	assert.Equal(t, 3, report.SuccessfulCommands)
	assert.Len(t, report.LastFiveCommands, 3)
	require.Len(t, report.CommandFrequency, 1)
	assert.Equal(t, 3, report.CommandFrequency[0].Count)
	assert.Equal(t, len(commands.All()), report.TotalCommands)
}
