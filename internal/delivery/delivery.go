// Package delivery decides how a stored asset reaches the client: relayed
// through the remote blob backend behind a locally proxied URL, or served
// straight from local storage when no backend is configured or the backend
// fails.
package delivery

import (
	"context"
	"log/slog"
	"time"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/errorsx"
)

// RemoteStore is the blob backend surface the resolver needs.
type RemoteStore interface {
	Upload(ctx context.Context, name string, data []byte) error
	Download(ctx context.Context, name string) ([]byte, error)
	Exists(ctx context.Context, name string) (bool, error)
	URL(name string) string
}

// Reference is the client-facing result of resolving an asset.
type Reference struct {
	URL     string
	BlobURL string
	Storage string
	Detail  string
}

type Resolver struct {
	remote  RemoteStore // nil when no backend is configured
	local   *assets.Store
	baseURL string
	timeout time.Duration
	log     *slog.Logger
}

func NewResolver(remote RemoteStore, local *assets.Store, baseURL string, timeout time.Duration, log *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{remote: remote, local: local, baseURL: baseURL, timeout: timeout, log: log}
}

// Resolve uploads the asset to the remote backend and returns a proxied URL,
// falling back to the local static URL on any remote failure. Placeholder
// artifacts are always served locally. The raw remote URL is auxiliary
// metadata only; clients fetch through this service so delivery stays under
// its CORS and auth control.
func (r *Resolver) Resolve(ctx context.Context, asset assets.Asset) Reference {
	if r.remote == nil || asset.Kind == assets.KindPlaceholder {
		return Reference{URL: r.localURL(asset.Name), Storage: "local"}
	}

	data, err := r.local.Read(asset.Name)
	if err != nil {
		r.log.Warn("read asset for upload failed", "asset", asset.Name, "error", err)
		return Reference{URL: r.localURL(asset.Name), Storage: "local", Detail: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.remote.Upload(ctx, asset.Name, data); err != nil {
		r.log.Warn("blob upload failed, serving locally", "asset", asset.Name, "error", err)
		return Reference{URL: r.localURL(asset.Name), Storage: "local", Detail: err.Error()}
	}

	return Reference{
		URL:     r.proxyURL(asset.Name),
		BlobURL: r.remote.URL(asset.Name),
		Storage: "blob",
	}
}

// Fetch is the mirrored read path: try the remote backend first, fall back
// to local storage on any remote miss or error. The failure reason is
// deliberately not distinguished from true not-found; local is always
// attempted.
func (r *Resolver) Fetch(ctx context.Context, name string) ([]byte, error) {
	if r.remote != nil {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		ok, err := r.remote.Exists(ctx, name)
		if err == nil && ok {
			data, err := r.remote.Download(ctx, name)
			if err == nil {
				return data, nil
			}
			r.log.Warn("blob download failed, trying local", "asset", name, "error", err)
		} else if err != nil {
			r.log.Warn("blob stat failed, trying local", "asset", name, "error", err)
		}
	}

	data, err := r.local.Read(name)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonNotFound)
	}
	return data, nil
}

func (r *Resolver) localURL(name string) string {
	return r.baseURL + "/storage/" + name
}

func (r *Resolver) proxyURL(name string) string {
	return r.baseURL + "/api/audio/" + name
}
