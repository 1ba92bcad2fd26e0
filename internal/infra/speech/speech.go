// Package speech holds the seams to the external speech collaborators.
// Text-to-speech playback and speech-to-text recognition are black boxes
// here; the dialogue engine only produces and consumes plain text.
package speech

import (
	"context"
	"fmt"
	"io"
	"os"
)

type Speaker interface {
	Say(ctx context.Context, text string) error
}

type Recognizer interface {
	Recognize(ctx context.Context, wav []byte) (string, error)
}

// ConsoleSpeaker prints spoken lines; the default stand-in for a TTS engine.
type ConsoleSpeaker struct {
	Out io.Writer
}

func NewConsoleSpeaker() *ConsoleSpeaker {
	return &ConsoleSpeaker{Out: os.Stdout}
}

func (c *ConsoleSpeaker) Say(_ context.Context, text string) error {
	_, err := fmt.Fprintf(c.Out, "Sheila: %s\n", text)
	return err
}

type NoopSpeaker struct{}

func (NoopSpeaker) Say(_ context.Context, _ string) error { return nil }

// NoopRecognizer is used when no speech-to-text backend is configured. It
// returns an error if called with actual audio data.
type NoopRecognizer struct{}

func (NoopRecognizer) Recognize(_ context.Context, _ []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: use a text input source or wire a recognizer")
}
