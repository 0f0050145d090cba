// Package blobstore is the optional remote blob backend for generated
// audio, backed by a JetStream object store. When it is unreachable the
// delivery resolver falls back to local storage, so every operation here
// reports failures instead of retrying.
package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/asiaspanel/voicegate/internal/errorsx"
)

// Store wraps one object-store bucket.
type Store struct {
	bucket string
	store  nats.ObjectStore
}

// Connect dials the NATS URL and ensures the bucket exists. Creating a
// bucket that already exists binds to it instead of failing, so the call is
// idempotent.
func Connect(url, bucket string) (*Store, *nats.Conn, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, nil, fmt.Errorf("connect blob backend: %w", err)
	}
	store, err := New(conn, bucket)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, conn, nil
}

// New ensures the bucket on an existing connection.
func New(conn *nats.Conn, bucket string) (*Store, error) {
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	store, err := EnsureBucket(js, bucket)
	if err != nil {
		return nil, err
	}
	return &Store{bucket: bucket, store: store}, nil
}

// EnsureBucket creates the bucket, binding to it when it already exists.
func EnsureBucket(js nats.JetStreamContext, bucket string) (nats.ObjectStore, error) {
	store, err := js.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucket,
		Description: fmt.Sprintf("Generated audio for the %s bucket.", bucket),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if err == nil {
		return store, nil
	}
	if errors.Is(err, jetstream.ErrBucketExists) {
		store, err = js.ObjectStore(bucket)
		if err != nil {
			return nil, fmt.Errorf("bind to existing bucket %q: %w", bucket, err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("create bucket %q: %w", bucket, err)
}

// Upload stores an object under the given name.
func (s *Store) Upload(_ context.Context, name string, data []byte) error {
	_, err := s.store.Put(&nats.ObjectMeta{Name: name}, bytes.NewReader(data))
	if err != nil {
		return errorsx.Wrap(fmt.Errorf("put %q in bucket %q: %w", name, s.bucket, err), errorsx.ReasonTransport)
	}
	return nil
}

// Download retrieves an object's full contents.
func (s *Store) Download(_ context.Context, name string) ([]byte, error) {
	obj, err := s.store.Get(name)
	if err != nil {
		if errors.Is(err, nats.ErrObjectNotFound) {
			return nil, errorsx.Wrap(err, errorsx.ReasonNotFound)
		}
		return nil, errorsx.Wrap(fmt.Errorf("get %q from bucket %q: %w", name, s.bucket, err), errorsx.ReasonTransport)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()
	if readErr != nil {
		return nil, errorsx.Wrap(fmt.Errorf("read %q: %w", name, readErr), errorsx.ReasonTransport)
	}
	if closeErr != nil {
		return data, errorsx.Wrap(fmt.Errorf("close %q: %w", name, closeErr), errorsx.ReasonTransport)
	}
	return data, nil
}

// Exists checks object presence without fetching the payload.
func (s *Store) Exists(_ context.Context, name string) (bool, error) {
	_, err := s.store.GetInfo(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, nats.ErrObjectNotFound) {
		return false, nil
	}
	return false, errorsx.Wrap(fmt.Errorf("stat %q in bucket %q: %w", name, s.bucket, err), errorsx.ReasonTransport)
}

// URL is the raw remote reference, returned as auxiliary metadata only;
// clients are always handed the locally proxied URL.
func (s *Store) URL(name string) string {
	return fmt.Sprintf("nats://%s/%s", s.bucket, name)
}
