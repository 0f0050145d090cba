// Package clone implements the voice-clone lifecycle: sample upload, clone
// registration against the provider, deletion, and the reconciled listing.
package clone

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/provider"
	"github.com/asiaspanel/voicegate/internal/registry"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

var sampleFormats = []string{"wav", "mp3", "ogg", "webm"}

// Sample describes one uploaded voice sample.
type Sample struct {
	ID        string
	Name      string
	StoredAs  string
	SizeBytes int
}

// Voice is one entry of the reconciled cloned-voice listing.
type Voice struct {
	LocalID      string
	ElevenLabsID string
	Name         string
	CreatedAt    time.Time
}

type Service struct {
	manager provider.VoiceManager
	reg     *registry.Registry
	store   *assets.Store
	log     *slog.Logger
}

func NewService(manager provider.VoiceManager, reg *registry.Registry, store *assets.Store, log *slog.Logger) *Service {
	return &Service{manager: manager, reg: reg, store: store, log: log}
}

// UploadSample stores an uploaded audio sample under a fresh time-derived
// id and returns its descriptor.
func (s *Service) UploadSample(displayName, filename string, data []byte) (Sample, error) {
	if len(data) == 0 {
		return Sample{}, errorsx.New("sample file is required", errorsx.ReasonInvalidInput)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !assets.AllowedSampleFormat(format) {
		return Sample{}, errorsx.New(fmt.Sprintf("unsupported sample format %q", format), errorsx.ReasonInvalidInput)
	}
	if displayName == "" {
		displayName = strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}

	id := fmt.Sprintf("sample_%d_%s", time.Now().Unix(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	asset, err := s.store.SaveSample(id, data, format)
	if err != nil {
		return Sample{}, err
	}

	s.log.Info("voice sample uploaded", "sample", id, "bytes", len(data))
	return Sample{ID: id, Name: displayName, StoredAs: asset.Name, SizeBytes: len(data)}, nil
}

// Clone consumes a previously uploaded sample, registers it with the
// provider, and records the local-to-provider mapping.
func (s *Service) Clone(ctx context.Context, sampleID, name string) (Voice, error) {
	storedName, data, err := s.findSample(sampleID)
	if err != nil {
		return Voice{}, err
	}
	if name == "" {
		name = sampleID
	}

	providerID, err := s.manager.AddVoice(ctx, name, storedName, bytes.NewReader(data))
	if err != nil {
		return Voice{}, err
	}

	entry := registry.Entry{ElevenLabsID: providerID, Name: name, CreatedAt: time.Now().UTC()}
	if err := s.reg.Upsert(sampleID, entry); err != nil {
		return Voice{}, err
	}

	s.log.Info("voice cloned", "sample", sampleID, "provider_id", providerID)
	return Voice{LocalID: sampleID, ElevenLabsID: providerID, Name: name, CreatedAt: entry.CreatedAt}, nil
}

// Delete removes the registry entry, best-effort-deletes the provider-side
// voice, and removes the sample file. The local registry is the source of
// truth; provider-side failures are logged, not propagated.
func (s *Service) Delete(ctx context.Context, localID string) error {
	entry, ok, err := s.reg.Lookup(localID)
	if err != nil {
		return err
	}
	if !ok {
		return errorsx.New(fmt.Sprintf("voice %q not found", localID), errorsx.ReasonNotFound)
	}

	if err := s.reg.Delete(localID); err != nil {
		return err
	}

	if err := s.manager.DeleteVoice(ctx, entry.ElevenLabsID); err != nil {
		s.log.Warn("provider-side voice delete failed", "voice", localID, "provider_id", entry.ElevenLabsID, "error", err)
	}

	if storedName, _, err := s.findSample(localID); err == nil {
		if err := s.store.Delete(storedName); err != nil {
			s.log.Warn("sample file delete failed", "sample", storedName, "error", err)
		}
	}
	return nil
}

// List reconciles the provider's voice listing (authoritative) with the
// local registry, synthesizing entries for provider-side voices that have
// no local record. When the listing call fails, the local registry is
// returned as-is.
func (s *Service) List(ctx context.Context) ([]Voice, error) {
	doc, err := s.reg.Load()
	if err != nil {
		return nil, err
	}

	providerVoices, err := s.manager.ListVoices(ctx)
	if err != nil {
		s.log.Warn("provider voice listing failed, using local registry", "reason", errorsx.Reason(err), "error", err)
		return localVoices(doc), nil
	}

	byProviderID := make(map[string]Voice, len(doc.ClonedVoices))
	for localID, entry := range doc.ClonedVoices {
		byProviderID[entry.ElevenLabsID] = Voice{
			LocalID:      localID,
			ElevenLabsID: entry.ElevenLabsID,
			Name:         entry.Name,
			CreatedAt:    entry.CreatedAt,
		}
	}

	out := make([]Voice, 0, len(providerVoices))
	for _, pv := range providerVoices {
		if local, ok := byProviderID[pv.ID]; ok {
			out = append(out, local)
			continue
		}
		out = append(out, Voice{LocalID: pv.ID, ElevenLabsID: pv.ID, Name: pv.Name})
	}
	return out, nil
}

func localVoices(doc registry.Document) []Voice {
	out := make([]Voice, 0, len(doc.ClonedVoices))
	for localID, entry := range doc.ClonedVoices {
		out = append(out, Voice{
			LocalID:      localID,
			ElevenLabsID: entry.ElevenLabsID,
			Name:         entry.Name,
			CreatedAt:    entry.CreatedAt,
		})
	}
	return out
}

func (s *Service) findSample(sampleID string) (string, []byte, error) {
	for _, format := range sampleFormats {
		name := sampleID + "." + format
		if s.store.Exists(name) {
			data, err := s.store.Read(name)
			if err != nil {
				return "", nil, err
			}
			return name, data, nil
		}
	}
	return "", nil, errorsx.New(fmt.Sprintf("sample %q not found", sampleID), errorsx.ReasonNotFound)
}

// ErrorMessage maps a clone failure to the distinct user-facing messages
// the panel shows.
func ErrorMessage(err error) string {
	switch {
	case resilience.IsRateLimit(err):
		return "voice clone quota exceeded"
	case strings.Contains(strings.ToLower(err.Error()), "too short"):
		return "audio sample too short to clone"
	case strings.Contains(strings.ToLower(err.Error()), "unsupported"):
		return "unsupported audio format"
	case errorsx.HasReason(err, errorsx.ReasonCredentialMissing):
		return "voice cloning is not configured"
	default:
		return "voice clone failed: " + err.Error()
	}
}
