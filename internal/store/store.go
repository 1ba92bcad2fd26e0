// Package store provides the pluggable persistence backends behind the
// device registry and the command history log. A backend persists whole
// snapshots: every mutation rewrites the full document, so the durable copy
// never reflects a partial mutation.
package store

import (
	"fmt"

	"sheila/internal/domain"
)

type DeviceStore interface {
	LoadDevices() (map[string]domain.Device, error)
	SaveDevices(devices map[string]domain.Device) error
}

type CommandStore interface {
	LoadCommands() ([]domain.CommandEntry, error)
	SaveCommands(entries []domain.CommandEntry) error
}

// Store combines both persistence contracts; every backend implements it.
type Store interface {
	DeviceStore
	CommandStore
}

// Open selects a backend by name.
// Supported: "memory" | "file" | "postgres" | "mysql".
func Open(backend, devicesPath, commandsPath, dsn string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFile(devicesPath, commandsPath), nil
	case "postgres", "mysql":
		return OpenDB(backend, dsn)
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}
