// Package openai adapts the OpenAI API to the gateway's provider contracts:
// chat-completion translation and speech synthesis.
package openai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

type Config struct {
	APIKey   string
	Model    string
	TTSModel string
	TTSVoice string
	Timeout  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = "gpt-4"
	}
	if c.TTSModel == "" {
		c.TTSModel = "gpt-4o-mini-tts"
	}
	if c.TTSVoice == "" {
		c.TTSVoice = "alloy"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

// Client wraps the go-openai SDK for both translation and TTS.
type Client struct {
	cfg    Config
	client *goopenai.Client
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	c := &Client{cfg: cfg}
	if cfg.APIKey != "" {
		sdkCfg := goopenai.DefaultConfig(cfg.APIKey)
		sdkCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
		c.client = goopenai.NewClientWithConfig(sdkCfg)
	}
	return c
}

func (c *Client) Name() string { return "openai" }

func (c *Client) Available() error {
	if c.client == nil {
		return errorsx.New("openai api key not configured", errorsx.ReasonCredentialMissing)
	}
	return nil
}

// Synthesize renders text to audio via the speech endpoint and reads the
// payload fully. The voice selector is passed through as-is; unknown names
// fall back to the configured default voice.
func (c *Client) Synthesize(ctx context.Context, text, voiceOrID, format string) ([]byte, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}

	voice := voiceOrID
	if voice == "" || voice == "default" {
		voice = c.cfg.TTSVoice
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          goopenai.SpeechModel(c.cfg.TTSModel),
		Input:          text,
		Voice:          goopenai.SpeechVoice(voice),
		ResponseFormat: responseFormat(format),
	})
	if err != nil {
		return nil, classify(err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	if len(data) == 0 {
		return nil, errorsx.New("empty audio payload from openai", errorsx.ReasonMalformedResponse)
	}
	return data, nil
}

func responseFormat(format string) goopenai.SpeechResponseFormat {
	switch strings.ToLower(format) {
	case "wav":
		return goopenai.SpeechResponseFormatWav
	case "ogg":
		return goopenai.SpeechResponseFormatOpus
	default:
		return goopenai.SpeechResponseFormatMp3
	}
}

func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return errorsx.Wrap(resilience.RateLimitError{Provider: "openai", Message: apiErr.Message}, errorsx.ReasonRateLimit)
		}
		return errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	return errorsx.Wrap(err, errorsx.ReasonTransport)
}
