// Package history keeps the append-only record of attempted commands.
package history

import (
	"context"
	"log/slog"
	"sync"

	"sheila/internal/domain"
)

// Log is the process-wide command history. Appends are write-through: the
// full log is flushed to the store before Append returns. Entries are never
// mutated or removed.
type Log struct {
	store  store
	logger *slog.Logger

	mu      sync.Mutex
	entries []domain.CommandEntry
}

type store interface {
	LoadCommands() ([]domain.CommandEntry, error)
	SaveCommands(entries []domain.CommandEntry) error
}

// NewLog loads the persisted history. A load failure starts the log empty;
// the snapshot is rewritten on the next append.
func NewLog(s store, logger *slog.Logger) *Log {
	entries, err := s.LoadCommands()
	if err != nil {
		logger.Error("loading command history, starting empty", "error", err)
		entries = nil
	}

	return &Log{
		store:   s,
		logger:  logger,
		entries: entries,
	}
}

func (l *Log) Append(ctx context.Context, entry domain.CommandEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	if err := l.store.SaveCommands(l.entries); err != nil {
		l.logger.Error("persisting command history", "error", err)
	}
	return nil
}

// All returns a snapshot of the log at call time, in insertion order.
func (l *Log) All() []domain.CommandEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]domain.CommandEntry, len(l.entries))
	copy(result, l.entries)
	return result
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
