package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/provider"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

// AddVoice uploads an audio sample to the voice-add endpoint and returns the
// provider-issued voice id.
func (c *Client) AddVoice(ctx context.Context, name, filename string, sample io.Reader) (string, error) {
	if err := c.Available(); err != nil {
		return "", err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("name", name); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	if _, err := io.Copy(part, sample); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	if err := mw.Close(); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTransport)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/voices/add", &body)
	if err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.applyHeaders(req)

	var out struct {
		VoiceID string `json:"voice_id"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	if out.VoiceID == "" {
		return "", errorsx.New("voice add response missing voice_id", errorsx.ReasonMalformedResponse)
	}
	return out.VoiceID, nil
}

// ListVoices returns the provider-side voice listing.
func (c *Client) ListVoices(ctx context.Context) ([]provider.Voice, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/voices", nil)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	c.applyHeaders(req)

	var out struct {
		Voices []struct {
			VoiceID string `json:"voice_id"`
			Name    string `json:"name"`
		} `json:"voices"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}

	voices := make([]provider.Voice, 0, len(out.Voices))
	for _, v := range out.Voices {
		voices = append(voices, provider.Voice{ID: v.VoiceID, Name: v.Name})
	}
	return voices, nil
}

// DeleteVoice removes the provider-side voice. Callers treat failures as
// best-effort; the local registry stays the source of truth.
func (c *Client) DeleteVoice(ctx context.Context, voiceID string) error {
	if err := c.Available(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.BaseURL+"/voices/"+voiceID, nil)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	c.applyHeaders(req)
	return c.do(req, nil)
}

func (c *Client) applyHeaders(req *http.Request) {
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		body, _ := io.ReadAll(resp.Body)
		return errorsx.Wrap(resilience.RateLimitError{Provider: "elevenlabs", Message: strings.TrimSpace(string(body))}, errorsx.ReasonRateLimit)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return errorsx.New(fmt.Sprintf("elevenlabs %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), errorsx.ReasonTransport)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonMalformedResponse)
	}
	return nil
}
