package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"sheila/internal/domain"
)

// File persists snapshots as whole-file JSON documents: a devices map keyed
// by id and an ordered commands array. Writes go to a temp file first and
// are renamed into place, so readers never observe a torn snapshot.
type File struct {
	devicesPath  string
	commandsPath string
}

func NewFile(devicesPath, commandsPath string) *File {
	return &File{
		devicesPath:  devicesPath,
		commandsPath: commandsPath,
	}
}

func (f *File) LoadDevices() (map[string]domain.Device, error) {
	devices := map[string]domain.Device{}
	if err := readJSON(f.devicesPath, &devices); err != nil {
		return nil, fmt.Errorf("loading devices: %w", err)
	}
	return devices, nil
}

func (f *File) SaveDevices(devices map[string]domain.Device) error {
	if err := writeJSON(f.devicesPath, devices); err != nil {
		return fmt.Errorf("saving devices: %w", err)
	}
	return nil
}

func (f *File) LoadCommands() ([]domain.CommandEntry, error) {
	var entries []domain.CommandEntry
	if err := readJSON(f.commandsPath, &entries); err != nil {
		return nil, fmt.Errorf("loading commands: %w", err)
	}
	return entries, nil
}

func (f *File) SaveCommands(entries []domain.CommandEntry) error {
	if err := writeJSON(f.commandsPath, entries); err != nil {
		return fmt.Errorf("saving commands: %w", err)
	}
	return nil
}

// readJSON leaves dst untouched when the file does not exist yet.
func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, src any) error {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
