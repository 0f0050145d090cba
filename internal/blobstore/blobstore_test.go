package blobstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/asiaspanel/voicegate/internal/blobstore"
	"github.com/asiaspanel/voicegate/internal/errorsx"
)

func startTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := natstest.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natstest.RunServer(&opts)

	conn, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	return srv, conn
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	srv, conn := startTestServer(t)
	defer srv.Shutdown()
	defer conn.Close()

	store, err := blobstore.New(conn, "tts-audio")
	require.NoError(t, err)

	ctx := context.Background()
	payload := []byte("fake mp3 bytes")

	require.NoError(t, store.Upload(ctx, "tts_abc.mp3", payload))

	got, err := store.Download(ctx, "tts_abc.mp3")
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestEnsureBucketIdempotent(t *testing.T) {
	srv, conn := startTestServer(t)
	defer srv.Shutdown()
	defer conn.Close()

	_, err := blobstore.New(conn, "tts-audio")
	require.NoError(t, err)

	// Second ensure must bind, not fail.
	_, err = blobstore.New(conn, "tts-audio")
	require.NoError(t, err)
}

func TestExistsAndNotFound(t *testing.T) {
	srv, conn := startTestServer(t)
	defer srv.Shutdown()
	defer conn.Close()

	store, err := blobstore.New(conn, "tts-audio")
	require.NoError(t, err)

	ctx := context.Background()

	ok, err := store.Exists(ctx, "missing.mp3")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = store.Download(ctx, "missing.mp3")
	require.True(t, errorsx.HasReason(err, errorsx.ReasonNotFound))

	require.NoError(t, store.Upload(ctx, "present.mp3", []byte("x")))
	ok, err = store.Exists(ctx, "present.mp3")
	require.NoError(t, err)
	require.True(t, ok)
}
