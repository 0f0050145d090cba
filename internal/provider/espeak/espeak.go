// Package espeak is the offline fallback synthesizer. It shells out to
// espeak-ng, which needs no credential or network, so it covers the residual
// cases when every remote provider has failed.
package espeak

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asiaspanel/voicegate/internal/errorsx"
)

type Config struct {
	Binary   string
	Language string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Binary == "" {
		c.Binary = "espeak-ng"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	return c
}

type Synthesizer struct {
	cfg Config
}

func New(cfg Config) *Synthesizer {
	return &Synthesizer{cfg: cfg.withDefaults()}
}

func (s *Synthesizer) Name() string { return "espeak" }

// Available checks that the binary is on PATH.
func (s *Synthesizer) Available() error {
	if _, err := exec.LookPath(s.cfg.Binary); err != nil {
		return errorsx.Wrap(fmt.Errorf("%s not installed: %w", s.cfg.Binary, err), errorsx.ReasonTransport)
	}
	return nil
}

// Synthesize writes a wav file to a temp path and reads it back. The voice
// selector is ignored; the configured default language drives the voice.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceOrID, format string) ([]byte, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	outPath := filepath.Join(os.TempDir(), "espeak_"+strings.ReplaceAll(uuid.NewString(), "-", "")+".wav")
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, s.cfg.Binary, s.args(outPath, text)...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("%s failed: %w: %s", s.cfg.Binary, err, strings.TrimSpace(string(output))), errorsx.ReasonTransport)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonMalformedResponse)
	}
	if len(data) == 0 {
		return nil, errorsx.New("espeak produced no audio", errorsx.ReasonMalformedResponse)
	}
	return data, nil
}

// args builds the command line. The terminator keeps text starting with a
// dash from being read as an option.
func (s *Synthesizer) args(outPath, text string) []string {
	return []string{"-v", s.cfg.Language, "-w", outPath, "--", text}
}
