// Package provider defines the uniform contracts the orchestrator drives.
// Each adapter normalizes its provider's API shape to a byte-payload-or-
// reasoned-error contract; the orchestrator never sees provider SDK types.
package provider

import (
	"context"
	"io"
)

// Synthesizer converts text to a complete audio payload. voiceOrID is the
// requested voice: a provider voice id for cloned voices, a plain voice name
// for standard ones. Adapters that have no notion of voices may ignore it.
type Synthesizer interface {
	Name() string
	// Available reports whether the adapter can be attempted at all
	// (credential configured, binary installed). A non-nil error is
	// recorded as a diagnostic and the stage is skipped without a call.
	Available() error
	Synthesize(ctx context.Context, text, voiceOrID, format string) ([]byte, error)
}

// Translator translates text between languages.
type Translator interface {
	Available() error
	Translate(ctx context.Context, text, source, target string) (string, error)
}

// Voice is a provider-side voice listing entry.
type Voice struct {
	ID   string
	Name string
}

// VoiceManager is the voice-cloning provider's registration surface.
type VoiceManager interface {
	Available() error
	// AddVoice registers a new cloned voice from an audio sample and
	// returns the provider-issued voice id.
	AddVoice(ctx context.Context, name, filename string, sample io.Reader) (string, error)
	ListVoices(ctx context.Context) ([]Voice, error)
	DeleteVoice(ctx context.Context, voiceID string) error
}
