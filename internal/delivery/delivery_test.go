package delivery

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/errorsx"
)

type fakeRemote struct {
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
	existsErr   error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{objects: map[string][]byte{}}
}

func (f *fakeRemote) Upload(_ context.Context, name string, data []byte) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[name] = data
	return nil
}

func (f *fakeRemote) Download(_ context.Context, name string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

func (f *fakeRemote) Exists(_ context.Context, name string) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	_, ok := f.objects[name]
	return ok, nil
}

func (f *fakeRemote) URL(name string) string { return "nats://bucket/" + name }

func testResolver(t *testing.T, remote RemoteStore) (*Resolver, *assets.Store) {
	t.Helper()
	store, err := assets.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	log := slog.New(slog.DiscardHandler)
	return NewResolver(remote, store, "", time.Second, log), store
}

func TestResolveUploadsAndProxies(t *testing.T) {
	remote := newFakeRemote()
	resolver, store := testResolver(t, remote)

	asset, err := store.SaveAudio([]byte("bytes"), "mp3")
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	ref := resolver.Resolve(context.Background(), asset)
	if ref.Storage != "blob" {
		t.Fatalf("expected blob storage, got %+v", ref)
	}
	if ref.URL != "/api/audio/"+asset.Name {
		t.Fatalf("expected proxied url, got %q", ref.URL)
	}
	if ref.BlobURL != "nats://bucket/"+asset.Name {
		t.Fatalf("expected raw remote url as metadata, got %q", ref.BlobURL)
	}
	if _, ok := remote.objects[asset.Name]; !ok {
		t.Fatalf("asset not uploaded")
	}
}

func TestResolveFallsBackToLocalOnUploadError(t *testing.T) {
	remote := newFakeRemote()
	remote.uploadErr = errors.New("connection refused")
	resolver, store := testResolver(t, remote)

	asset, _ := store.SaveAudio([]byte("bytes"), "mp3")
	ref := resolver.Resolve(context.Background(), asset)

	if ref.Storage != "local" {
		t.Fatalf("expected local fallback, got %+v", ref)
	}
	if ref.URL != "/storage/"+asset.Name {
		t.Fatalf("expected local url, got %q", ref.URL)
	}
	if ref.Detail == "" {
		t.Fatalf("expected failure annotation")
	}
}

func TestResolveWithoutRemoteHasNoAnnotation(t *testing.T) {
	resolver, store := testResolver(t, nil)

	asset, _ := store.SaveAudio([]byte("bytes"), "mp3")
	ref := resolver.Resolve(context.Background(), asset)

	if ref.Storage != "local" || ref.Detail != "" {
		t.Fatalf("expected clean local reference, got %+v", ref)
	}
}

func TestPlaceholderAlwaysLocal(t *testing.T) {
	remote := newFakeRemote()
	resolver, store := testResolver(t, remote)

	asset, _ := store.SavePlaceholder("default", "wav", "text", nil)
	ref := resolver.Resolve(context.Background(), asset)

	if ref.Storage != "local" {
		t.Fatalf("placeholder should not be uploaded, got %+v", ref)
	}
	if len(remote.objects) != 0 {
		t.Fatalf("placeholder leaked to remote store")
	}
}

func TestFetchRoundTrip(t *testing.T) {
	remote := newFakeRemote()
	resolver, store := testResolver(t, remote)

	asset, _ := store.SaveAudio([]byte("identical bytes"), "wav")
	resolver.Resolve(context.Background(), asset)

	got, err := resolver.Fetch(context.Background(), asset.Name)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != "identical bytes" {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestFetchFallsBackToLocalOnRemoteError(t *testing.T) {
	remote := newFakeRemote()
	remote.existsErr = errors.New("backend down")
	resolver, store := testResolver(t, remote)

	asset, _ := store.SaveAudio([]byte("local copy"), "wav")

	got, err := resolver.Fetch(context.Background(), asset.Name)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(got) != "local copy" {
		t.Fatalf("expected local fallback bytes, got %q", got)
	}
}

func TestFetchNotFound(t *testing.T) {
	resolver, _ := testResolver(t, newFakeRemote())

	_, err := resolver.Fetch(context.Background(), "missing.mp3")
	if !errorsx.HasReason(err, errorsx.ReasonNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}
