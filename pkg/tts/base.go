// Package tts turns assistant replies into speech.
package tts

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when speech synthesis is not configured.
var ErrUnavailable = errors.New("tts: speech synthesis not configured")

// Synthesizer converts text into encoded audio (mp3 for ElevenLabs).
type Synthesizer interface {
	// Synthesize returns the audio bytes for text.
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
