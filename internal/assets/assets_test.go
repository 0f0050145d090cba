package assets

import (
	"strings"
	"testing"
)

func TestSaveAudioUniqueNames(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	a, err := store.SaveAudio([]byte("one"), "wav")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := store.SaveAudio([]byte("two"), "wav")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if a.Name == b.Name {
		t.Fatalf("expected unique names, got %q twice", a.Name)
	}
	if !strings.HasPrefix(a.Name, "tts_") || !strings.HasSuffix(a.Name, ".wav") {
		t.Fatalf("unexpected name shape %q", a.Name)
	}

	data, err := store.Read(a.Name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "one" {
		t.Fatalf("round trip mismatch: %q", data)
	}
}

func TestSavePlaceholderRecordsDiagnostics(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	asset, err := store.SavePlaceholder("default", "wav", "hello", []string{"openai: timeout"})
	if err != nil {
		t.Fatalf("save placeholder: %v", err)
	}
	if asset.Kind != KindPlaceholder {
		t.Fatalf("expected placeholder kind, got %s", asset.Kind)
	}

	data, err := store.Read(asset.Name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{"voice=default", "format=wav", "openai: timeout", "hello"} {
		if !strings.Contains(text, want) {
			t.Fatalf("placeholder missing %q:\n%s", want, text)
		}
	}
}

func TestReadRejectsTraversal(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Read("../../etc/passwd"); err == nil {
		t.Fatalf("expected traversal read to miss")
	}
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a.wav":  "audio/wav",
		"a.ogg":  "audio/ogg",
		"a.webm": "audio/webm",
		"a.mp3":  "audio/mpeg",
		"a.bin":  "audio/mpeg",
	}
	for name, want := range cases {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}
