package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sheila/config"
	"sheila/internal/dialogue"
	"sheila/internal/exec"
	"sheila/internal/history"
	"sheila/internal/infra/listen"
	"sheila/internal/infra/speech"
	"sheila/internal/infra/weather"
	"sheila/internal/registry"
	"sheila/internal/server"
	"sheila/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("loading config", "error", err)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.DevicesFile, cfg.Storage.CommandsFile, cfg.Storage.DSN)
	if err != nil {
		logger.Error("opening storage backend", "error", err)
		os.Exit(1)
	}

	devices := registry.NewService(st, logger)
	commands := history.NewLog(st, logger)

	app := server.NewApp(cfg.Server.Addr, devices, commands, exec.Simulated{}, logger)
	go func() {
		if err := app.Run(ctx); err != nil {
			logger.Error("HTTP API error", "error", err)
			cancel()
		}
	}()

	listener := createListener(cfg.Listen, logger)
	speaker := speech.NewConsoleSpeaker()
	weatherClient := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.City)

	listenTimeout, err := time.ParseDuration(cfg.Dialogue.ListenTimeout)
	if err != nil {
		logger.Warn("invalid listen timeout, using default", "error", err, "value", cfg.Dialogue.ListenTimeout)
		listenTimeout = 30 * time.Second
	}

	engine := dialogue.NewEngine(
		listener,
		speaker,
		devices,
		commands,
		weatherClient,
		logger,
		dialogue.Options{
			WakeWords:     cfg.Dialogue.WakeWords,
			UserName:      cfg.Dialogue.UserName,
			ListenTimeout: listenTimeout,
			ListenRetries: cfg.Dialogue.ListenRetries,
		},
	)

	logger.Info("starting sheila",
		"listen_source", cfg.Listen.Source,
		"storage", cfg.Storage.Backend,
		"addr", cfg.Server.Addr,
	)

	if err := engine.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("dialogue engine error", "error", err)
		os.Exit(1)
	}
}

func createListener(cfg config.ListenConfig, logger *slog.Logger) dialogue.Listener {
	switch cfg.Source {
	case "console":
		return listen.NewConsole()
	case "http":
		return listen.NewHTTPSource(cfg.HTTPAddr, logger)
	case "file":
		return listen.NewFileSource(cfg.FileDir)
	case "microphone":
		return listen.NewMicrophoneSource(cfg.SampleRate, speech.NoopRecognizer{}, logger)
	default:
		logger.Warn("unknown listen source, using console", "source", cfg.Source)
		return listen.NewConsole()
	}
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
