// Package registry is the JSON-document voice registry: a single config
// document holding the panel's voices, free-form settings, and the cloned
// voice mapping from local ids to provider-issued ids. Low write volume
// makes a whole-document store sufficient; the interface (get-all, lookup,
// upsert, delete, replace) keeps it swappable for an embedded store later.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Entry maps a local voice id to the provider-issued voice id.
type Entry struct {
	ElevenLabsID string    `json:"elevenlabs_id"`
	Name         string    `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
}

// Document is the whole persisted configuration document. It is read and
// replaced wholesale; there are no partial-patch semantics.
type Document struct {
	Voices       []string         `json:"voices"`
	Settings     map[string]any   `json:"settings"`
	ClonedVoices map[string]Entry `json:"cloned_voices"`
}

func defaultDocument() Document {
	return Document{
		Voices:       []string{"default", "female_1", "male_1"},
		Settings:     map[string]any{},
		ClonedVoices: map[string]Entry{},
	}
}

// Registry serializes mutations behind a single writer lock and replaces the
// document atomically on write. A missing file reads as the default
// document: first access is lazy initialization, not an error.
type Registry struct {
	path string
	mu   sync.Mutex
}

func New(path string) *Registry {
	return &Registry{path: path}
}

// Load returns the current document.
func (r *Registry) Load() (Document, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return defaultDocument(), nil
		}
		return Document{}, fmt.Errorf("read registry: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("decode registry: %w", err)
	}
	if doc.Settings == nil {
		doc.Settings = map[string]any{}
	}
	if doc.ClonedVoices == nil {
		doc.ClonedVoices = map[string]Entry{}
	}
	return doc, nil
}

// Lookup finds a cloned-voice entry by its local id.
func (r *Registry) Lookup(localID string) (Entry, bool, error) {
	doc, err := r.Load()
	if err != nil {
		return Entry{}, false, err
	}
	entry, ok := doc.ClonedVoices[localID]
	return entry, ok, nil
}

// Upsert adds or replaces a cloned-voice entry.
func (r *Registry) Upsert(localID string, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Load()
	if err != nil {
		return err
	}
	doc.ClonedVoices[localID] = entry
	return r.write(doc)
}

// Delete removes a cloned-voice entry. Deleting an absent id is not an
// error.
func (r *Registry) Delete(localID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.Load()
	if err != nil {
		return err
	}
	delete(doc.ClonedVoices, localID)
	return r.write(doc)
}

// Replace swaps the whole document, last writer wins.
func (r *Registry) Replace(doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.write(doc)
}

func (r *Registry) write(doc Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry: %w", err)
	}

	// Replace-on-write keeps lock-free readers away from torn documents.
	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*")
	if err != nil {
		return fmt.Errorf("create temp registry: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp registry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp registry: %w", err)
	}
	if err := os.Rename(tmp.Name(), r.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}
