package dialogue

import (
	"time"

	"sheila/internal/domain"
)

// Session is the transient state of one conversation. It is owned by the
// engine loop that created it and never shared between conversations.
type Session struct {
	State domain.MenuState

	// SelectedDevice is the device id under discussion; set when entering
	// device-related states, cleared when the session ends.
	SelectedDevice string

	menu      []menuEntry
	turnStart time.Time
}

type menuEntry struct {
	key      string
	deviceID string
	label    string
}

func NewSession() *Session {
	return &Session{State: domain.StateIdle}
}

func (s *Session) beginTurn(now time.Time) {
	s.turnStart = now
}

func (s *Session) menuEntry(key string) (menuEntry, bool) {
	for _, e := range s.menu {
		if e.key == key {
			return e, true
		}
	}
	return menuEntry{}, false
}

func (s *Session) terminate() {
	s.State = domain.StateTerminated
	s.SelectedDevice = ""
	s.menu = nil
}
