// Package orchestrator drives the provider fallback chain for one synthesis
// request: cloned voice first when the registry says so, then the primary
// TTS provider, then the offline synthesizer, then a placeholder artifact.
// Failures never cross this boundary; they become fallback triggers and
// diagnostic annotations on the eventual success.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asiaspanel/voicegate/internal/assets"
	"github.com/asiaspanel/voicegate/internal/config"
	"github.com/asiaspanel/voicegate/internal/delivery"
	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/provider"
	"github.com/asiaspanel/voicegate/internal/registry"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

// Request is one accepted synthesis request. Immutable once validated.
type Request struct {
	Text   string
	Voice  string
	Format string
}

// Attempt is one provider try, kept for the diagnostic trail.
type Attempt struct {
	Provider  string
	Succeeded bool
	Detail    string
	Reason    errorsx.ReasonCode
}

// Result is the terminal outcome: exactly one stored asset (audio or
// placeholder) plus the trail of everything tried along the way.
type Result struct {
	Asset       assets.Asset
	Reference   delivery.Reference
	Mock        bool
	Trail       []Attempt
	ErrorDetail string
	OpenAIError string
}

type panelSettings struct {
	DefaultVoice string `mapstructure:"default_voice"`
}

type Orchestrator struct {
	registry *registry.Registry
	store    *assets.Store
	resolver *delivery.Resolver

	cloned  provider.Synthesizer
	primary provider.Synthesizer
	offline provider.Synthesizer

	clonedBreaker  *resilience.Breaker
	primaryBreaker *resilience.Breaker

	log *slog.Logger
}

func New(reg *registry.Registry, store *assets.Store, resolver *delivery.Resolver,
	cloned, primary, offline provider.Synthesizer,
	clonedBreaker, primaryBreaker *resilience.Breaker, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		registry:       reg,
		store:          store,
		resolver:       resolver,
		cloned:         cloned,
		primary:        primary,
		offline:        offline,
		clonedBreaker:  clonedBreaker,
		primaryBreaker: primaryBreaker,
		log:            log,
	}
}

// Synthesize walks the fallback chain. The returned error is non-nil only
// for invalid input or an internal fault while persisting; every provider
// failure is absorbed into the trail.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return Result{}, errorsx.New("text is required", errorsx.ReasonInvalidInput)
	}
	if req.Voice == "" {
		req.Voice = "default"
	}
	if req.Format == "" {
		req.Format = "wav"
	}

	doc, err := o.registry.Load()
	if err != nil {
		// A broken registry document must not take synthesis down;
		// the request simply runs unclassified.
		o.log.Warn("voice registry unreadable, treating request as standard", "error", err)
		doc = registry.Document{}
	}

	var trail []Attempt

	// Stage 1: cloned-voice classification and attempt.
	if entry, ok := doc.ClonedVoices[req.Voice]; ok {
		if data, attempt := o.try(ctx, o.cloned, o.clonedBreaker, req, entry.ElevenLabsID); attempt.Succeeded {
			trail = append(trail, attempt)
			return o.finish(ctx, req, data, "mp3", trail)
		} else {
			trail = append(trail, attempt)
		}
	}

	// Stage 2: primary provider, voice selector passed through raw.
	voice := req.Voice
	if voice == "default" {
		var settings panelSettings
		if err := config.DecodeSettings(doc.Settings, &settings); err == nil && settings.DefaultVoice != "" {
			voice = settings.DefaultVoice
		}
	}
	data, attempt := o.try(ctx, o.primary, o.primaryBreaker, req, voice)
	trail = append(trail, attempt)
	if attempt.Succeeded {
		return o.finish(ctx, req, data, req.Format, trail)
	}
	openaiDetail := attempt.Detail

	// Stage 3: offline fallback, no credential and no breaker.
	data, attempt = o.try(ctx, o.offline, nil, req, req.Voice)
	trail = append(trail, attempt)
	if attempt.Succeeded {
		res, err := o.finish(ctx, req, data, "wav", trail)
		res.OpenAIError = openaiDetail
		return res, err
	}
	offlineDetail := attempt.Detail

	// Stage 4: placeholder of last resort. Still a 200 to the caller.
	asset, err := o.store.SavePlaceholder(req.Voice, req.Format, req.Text, trailDetails(trail))
	if err != nil {
		// Disk faults while writing the placeholder are the one
		// genuinely internal failure left.
		return Result{}, fmt.Errorf("write placeholder: %w", err)
	}
	o.log.Error("all synthesis stages failed, returning placeholder",
		"asset", asset.Name, "voice", req.Voice, "attempts", len(trail))

	return Result{
		Asset:       asset,
		Reference:   o.resolver.Resolve(ctx, asset),
		Mock:        true,
		Trail:       trail,
		ErrorDetail: offlineDetail,
		OpenAIError: openaiDetail,
	}, nil
}

// try runs one provider stage. A provider that reports itself unavailable is
// skipped without a call and recorded as a diagnostic.
func (o *Orchestrator) try(ctx context.Context, synth provider.Synthesizer, breaker *resilience.Breaker, req Request, voiceOrID string) ([]byte, Attempt) {
	if err := synth.Available(); err != nil {
		o.log.Info("provider unavailable, skipping", "provider", synth.Name(), "reason", errorsx.Reason(err))
		return nil, Attempt{Provider: synth.Name(), Detail: err.Error(), Reason: errorsx.Reason(err)}
	}

	call := func() ([]byte, error) {
		return synth.Synthesize(ctx, req.Text, voiceOrID, req.Format)
	}

	var data []byte
	var err error
	if breaker != nil {
		data, err = breaker.Execute(call)
	} else {
		data, err = call()
	}
	if err != nil {
		o.log.Warn("provider attempt failed", "provider", synth.Name(), "reason", errorsx.Reason(err), "error", err)
		return nil, Attempt{Provider: synth.Name(), Detail: err.Error(), Reason: errorsx.Reason(err)}
	}
	return data, Attempt{Provider: synth.Name(), Succeeded: true}
}

// finish persists the winning payload and resolves its delivery reference.
func (o *Orchestrator) finish(ctx context.Context, req Request, data []byte, format string, trail []Attempt) (Result, error) {
	asset, err := o.store.SaveAudio(data, format)
	if err != nil {
		return Result{}, fmt.Errorf("persist audio: %w", err)
	}
	o.log.Info("synthesis complete",
		"asset", asset.Name, "provider", trail[len(trail)-1].Provider, "bytes", len(data))

	return Result{
		Asset:     asset,
		Reference: o.resolver.Resolve(ctx, asset),
		Trail:     trail,
	}, nil
}

func trailDetails(trail []Attempt) []string {
	out := make([]string, 0, len(trail))
	for _, a := range trail {
		out = append(out, fmt.Sprintf("%s (%s): %s", a.Provider, a.Reason, a.Detail))
	}
	return out
}
