package server

import (
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"sheila/internal/analytics"
	"sheila/internal/domain"
)

func (a *App) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := a.devices.List(r.Context())
	if err != nil {
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.respondJSON(w, http.StatusOK, devices)
}

type createDeviceRequest struct {
	Name  string            `json:"name"`
	Kind  domain.DeviceKind `json:"type"`
	Room  string            `json:"room"`
	Color string            `json:"color"`
}

func (a *App) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := a.devices.Create(r.Context(), req.Name, req.Kind, req.Room, req.Color)
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			a.respondError(w, http.StatusBadRequest, "Missing required fields")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.respondJSON(w, http.StatusCreated, device)
}

func (a *App) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := a.devices.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.respondError(w, http.StatusNotFound, "Device not found")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, map[string]string{"message": "Device removed successfully"})
}

func (a *App) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch domain.StatePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := a.devices.UpdateState(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.respondError(w, http.StatusNotFound, "Device not found")
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	a.respondJSON(w, http.StatusOK, device)
}

func (a *App) handlePing(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

type commandRequest struct {
	Cmd string `json:"cmd"`
}

type commandResponse struct {
	Status domain.CommandStatus `json:"status"`
	Result string               `json:"result"`
}

func (a *App) handleCommand(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// A missing or malformed body is treated the same as an empty command.
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		req.Cmd = ""
	}

	cmd := strings.TrimSpace(req.Cmd)
	if cmd == "" {
		// Nothing is appended to the history for an empty command.
		a.respondJSON(w, http.StatusBadRequest, map[string]string{
			"status": "error",
			"result": "No command provided.",
		})
		return
	}

	result, ok := a.strategy.Execute(r.Context(), cmd)
	status := domain.StatusSuccess
	if !ok {
		status = domain.StatusFailed
	}

	entry := domain.NewCommandEntry(cmd, status, time.Since(start), result)
	if err := a.commands.Append(r.Context(), entry); err != nil {
		a.logger.Error("appending command entry", "error", err)
	}

	a.respondJSON(w, http.StatusOK, commandResponse{Status: status, Result: result})
}

func (a *App) handleStatus(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]any{
		"uptime":      int(time.Since(a.started).Seconds()),
		"signal":      -70 + rand.Intn(21),
		"battery":     70 + rand.Intn(31),
		"temperature": 22 + float64(rand.Intn(61))/10,
		"humidity":    40 + rand.Intn(21),
		"noise":       30 + rand.Intn(21),
		"accuracy":    85 + rand.Intn(15),
	})
}

func (a *App) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, analytics.Compute(a.commands.All()))
}

func (a *App) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("encoding response", "error", err)
	}
}

func (a *App) respondError(w http.ResponseWriter, status int, message string) {
	a.respondJSON(w, status, map[string]string{"error": message})
}
