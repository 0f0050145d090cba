// Package assets owns the local storage namespace: generated audio, uploaded
// voice samples, the placeholder artifacts of last resort, and the content
// types they are served with.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind distinguishes real audio from the degraded placeholder artifact.
type Kind string

const (
	KindAudio       Kind = "audio"
	KindPlaceholder Kind = "placeholder"
)

// Asset is a stored file reference. Files are owned by the Store and
// referenced by name everywhere else.
type Asset struct {
	Name string
	Path string
	Kind Kind
}

// Store persists files under a single directory with globally unique
// generated names, so concurrent requests never collide.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// SaveAudio writes synthesized audio under a fresh tts_<hex>.<ext> name.
func (s *Store) SaveAudio(data []byte, format string) (Asset, error) {
	name := fmt.Sprintf("tts_%s.%s", uuid.NewString(), normalizeExt(format))
	name = strings.ReplaceAll(name, "-", "")
	if err := s.write(name, data); err != nil {
		return Asset{}, err
	}
	return Asset{Name: name, Path: filepath.Join(s.dir, name), Kind: KindAudio}, nil
}

// SaveSample stores an uploaded voice sample under the given id.
func (s *Store) SaveSample(id string, data []byte, format string) (Asset, error) {
	name := fmt.Sprintf("%s.%s", id, normalizeExt(format))
	if err := s.write(name, data); err != nil {
		return Asset{}, err
	}
	return Asset{Name: name, Path: filepath.Join(s.dir, name), Kind: KindAudio}, nil
}

// SavePlaceholder writes the human-readable text artifact produced when all
// synthesis stages have failed.
func (s *Store) SavePlaceholder(voice, format, text string, diagnostics []string) (Asset, error) {
	name := fmt.Sprintf("tts_%s.txt", strings.ReplaceAll(uuid.NewString(), "-", ""))
	var b strings.Builder
	fmt.Fprintf(&b, "TTS fallback placeholder for voice=%s, format=%s\n\n", voice, format)
	for _, d := range diagnostics {
		fmt.Fprintf(&b, "- %s\n", d)
	}
	fmt.Fprintf(&b, "\n%s", text)
	if err := s.write(name, []byte(b.String())); err != nil {
		return Asset{}, err
	}
	return Asset{Name: name, Path: filepath.Join(s.dir, name), Kind: KindPlaceholder}, nil
}

// Read returns the full contents of a stored file.
func (s *Store) Read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, filepath.Base(name)))
}

// Exists reports whether a stored file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	return err == nil
}

// Delete removes a stored file.
func (s *Store) Delete(name string) error {
	return os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}

func (s *Store) write(name string, data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ContentType infers the serving content type from the file extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".webm":
		return "audio/webm"
	case ".txt":
		return "text/plain; charset=utf-8"
	default:
		return "audio/mpeg"
	}
}

// AllowedSampleFormat reports whether an uploaded sample extension is
// accepted.
func AllowedSampleFormat(format string) bool {
	switch normalizeExt(format) {
	case "wav", "mp3", "ogg", "webm":
		return true
	default:
		return false
	}
}

func normalizeExt(format string) string {
	format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
	switch format {
	case "wav", "mp3", "ogg", "webm":
		return format
	default:
		return "mp3"
	}
}
