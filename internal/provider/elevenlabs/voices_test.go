package elevenlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{APIKey: "key", BaseURL: srv.URL})
}

func TestAddVoice(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices/add" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("name"); got != "asia" {
			t.Errorf("unexpected name %q", got)
		}
		w.Write([]byte(`{"voice_id":"prov-123"}`))
	}))

	id, err := c.AddVoice(context.Background(), "asia", "sample.wav", strings.NewReader("RIFFdata"))
	if err != nil {
		t.Fatalf("add voice: %v", err)
	}
	if id != "prov-123" {
		t.Fatalf("unexpected voice id %q", id)
	}
}

func TestListVoices(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"voices":[{"voice_id":"v1","name":"one"},{"voice_id":"v2","name":"two"}]}`))
	}))

	voices, err := c.ListVoices(context.Background())
	if err != nil {
		t.Fatalf("list voices: %v", err)
	}
	if len(voices) != 2 || voices[0].ID != "v1" || voices[1].Name != "two" {
		t.Fatalf("unexpected voices %+v", voices)
	}
}

func TestQuotaClassifiedAsRateLimit(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`quota_exceeded`))
	}))

	_, err := c.AddVoice(context.Background(), "asia", "sample.wav", strings.NewReader("RIFF"))
	if !errorsx.HasReason(err, errorsx.ReasonRateLimit) {
		t.Fatalf("expected rate_limit reason, got %v", err)
	}
	if !resilience.IsRateLimit(err) {
		t.Fatalf("expected RateLimitError type, got %v", err)
	}
}

func TestNon2xxClassifiedAsTransport(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`audio file is too short`))
	}))

	_, err := c.AddVoice(context.Background(), "asia", "sample.wav", strings.NewReader("RIFF"))
	if !errorsx.HasReason(err, errorsx.ReasonTransport) {
		t.Fatalf("expected transport reason, got %v", err)
	}
	if !strings.Contains(err.Error(), "too short") {
		t.Fatalf("expected provider detail preserved, got %v", err)
	}
}

func TestMissingCredential(t *testing.T) {
	c := New(Config{})
	_, err := c.ListVoices(context.Background())
	if !errorsx.HasReason(err, errorsx.ReasonCredentialMissing) {
		t.Fatalf("expected credential_missing, got %v", err)
	}
}
