// Package server exposes the device, command and analytics API consumed by
// the dashboard.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"sheila/internal/domain"
	"sheila/internal/exec"
	"sheila/internal/infra"
)

type DeviceService interface {
	List(ctx context.Context) ([]domain.Device, error)
	Create(ctx context.Context, name string, kind domain.DeviceKind, room, color string) (domain.Device, error)
	Delete(ctx context.Context, id string) error
	UpdateState(ctx context.Context, id string, patch domain.StatePatch) (domain.Device, error)
}

type CommandLog interface {
	Append(ctx context.Context, entry domain.CommandEntry) error
	All() []domain.CommandEntry
}

type App struct {
	addr       string
	router     *mux.Router
	httpServer *http.Server

	devices  DeviceService
	commands CommandLog
	strategy exec.Strategy
	logger   *slog.Logger
	started  time.Time
}

func NewApp(addr string, devices DeviceService, commands CommandLog, strategy exec.Strategy, logger *slog.Logger) *App {
	a := &App{
		addr:     addr,
		devices:  devices,
		commands: commands,
		strategy: strategy,
		logger:   logger,
		started:  time.Now(),
	}

	limiter := infra.NewRateLimiter(60, time.Minute)

	r := mux.NewRouter()
	r.Use(a.requestLogger)
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/devices", a.handleListDevices).Methods(http.MethodGet)
	api.HandleFunc("/devices", limiter.Middleware(a.handleCreateDevice)).Methods(http.MethodPost)
	api.HandleFunc("/devices/{id}", limiter.Middleware(a.handleDeleteDevice)).Methods(http.MethodDelete)
	api.HandleFunc("/devices/{id}/state", limiter.Middleware(a.handleUpdateState)).Methods(http.MethodPut)
	api.HandleFunc("/ping", a.handlePing).Methods(http.MethodGet)
	api.HandleFunc("/command", limiter.Middleware(a.handleCommand)).Methods(http.MethodPost)
	api.HandleFunc("/status", a.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/analytics", a.handleAnalytics).Methods(http.MethodGet)

	a.router = r
	return a
}

// Router exposes the handler for tests.
func (a *App) Router() http.Handler {
	return a.router
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	a.httpServer = &http.Server{
		Addr:         a.addr,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP API listening", "addr", a.addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.httpServer.Shutdown(shutdownCtx)
}

func (a *App) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		a.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
