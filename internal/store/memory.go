package store

import "sheila/internal/domain"

// Memory is the in-memory-only backend: loads start empty and saves are
// discarded. Useful for tests and for running without durable state.
type Memory struct{}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) LoadDevices() (map[string]domain.Device, error) {
	return map[string]domain.Device{}, nil
}

func (m *Memory) SaveDevices(_ map[string]domain.Device) error {
	return nil
}

func (m *Memory) LoadCommands() ([]domain.CommandEntry, error) {
	return nil, nil
}

func (m *Memory) SaveCommands(_ []domain.CommandEntry) error {
	return nil
}
