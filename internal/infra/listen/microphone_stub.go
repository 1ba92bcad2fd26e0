//go:build !portaudio
// +build !portaudio

package listen

import (
	"context"
	"fmt"
	"log/slog"

	"sheila/internal/infra/speech"
)

// MicrophoneSource stub when portaudio is not available
type MicrophoneSource struct {
	logger *slog.Logger
}

func NewMicrophoneSource(sampleRate int, recognizer speech.Recognizer, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{logger: logger}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	return fmt.Errorf("microphone source not available: rebuild with -tags portaudio")
}

func (m *MicrophoneSource) Stop() error {
	return nil
}

func (m *MicrophoneSource) Listen(_ context.Context) (string, error) {
	return "", fmt.Errorf("microphone source not available")
}
