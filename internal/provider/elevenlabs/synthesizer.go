// Package elevenlabs adapts the ElevenLabs API: stream-input synthesis for
// cloned voices and the REST voice-management endpoints used by the clone
// lifecycle.
package elevenlabs

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/asiaspanel/voicegate/internal/errorsx"
	"github.com/asiaspanel/voicegate/internal/resilience"
)

const (
	wsBase   = "wss://api.elevenlabs.io/v1/text-to-speech"
	restBase = "https://api.elevenlabs.io/v1"
)

// VoiceSettings are the fixed voice-quality parameters sent with every
// synthesis call. They are deployment configuration, not request inputs.
type VoiceSettings struct {
	Stability    float64 `json:"stability" mapstructure:"stability"`
	Similarity   float64 `json:"similarity_boost" mapstructure:"similarity"`
	Style        float64 `json:"style" mapstructure:"style"`
	SpeakerBoost bool    `json:"use_speaker_boost" mapstructure:"speaker_boost"`
}

type Config struct {
	APIKey        string
	ModelID       string
	Timeout       time.Duration
	VoiceSettings VoiceSettings
	BaseURL       string // REST base override for tests
	WSBase        string // websocket base override for tests
}

func (c Config) withDefaults() Config {
	if c.ModelID == "" {
		c.ModelID = "eleven_multilingual_v2"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.BaseURL == "" {
		c.BaseURL = restBase
	}
	if c.WSBase == "" {
		c.WSBase = wsBase
	}
	return c
}

type Client struct {
	cfg  Config
	http *http.Client
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string { return "elevenlabs" }

func (c *Client) Available() error {
	if c.cfg.APIKey == "" {
		return errorsx.New("elevenlabs api key not configured", errorsx.ReasonCredentialMissing)
	}
	return nil
}

// Synthesize drives the stream-input websocket for the given provider voice
// id and accumulates the audio chunks into one payload. The format argument
// is ignored: stream-input always yields mp3 here.
func (c *Client) Synthesize(ctx context.Context, text, voiceID, format string) ([]byte, error) {
	if err := c.Available(); err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: c.cfg.Timeout,
	}
	conn, resp, err := dialer.DialContext(ctx, c.streamURL(voiceID), http.Header{
		"xi-api-key": []string{c.cfg.APIKey},
	})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
			return nil, errorsx.Wrap(resilience.RateLimitError{Provider: "elevenlabs", Message: resp.Status}, errorsx.ReasonRateLimit)
		}
		return nil, errorsx.Wrap(err, errorsx.ReasonTransport)
	}
	defer conn.Close()

	deadline := time.Now().Add(c.cfg.Timeout)
	_ = conn.SetReadDeadline(deadline)
	_ = conn.SetWriteDeadline(deadline)

	if !strings.HasSuffix(text, " ") {
		text += " "
	}
	msgs := []map[string]any{
		{"text": " ", "voice_settings": c.cfg.VoiceSettings},
		{"text": text, "try_trigger_generation": true},
		{"text": ""}, // end of input
	}
	for _, msg := range msgs {
		if err := conn.WriteJSON(msg); err != nil {
			return nil, errorsx.Wrap(err, errorsx.ReasonTransport)
		}
	}

	var audio []byte
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(audio) > 0 {
				break
			}
			return nil, errorsx.Wrap(err, errorsx.ReasonTransport)
		}

		var msg struct {
			Audio   string `json:"audio"`
			IsFinal bool   `json:"isFinal"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, errorsx.Wrap(err, errorsx.ReasonMalformedResponse)
		}
		if msg.Error != "" {
			return nil, errorsx.New(msg.Error, errorsx.ReasonTransport)
		}
		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return nil, errorsx.Wrap(err, errorsx.ReasonMalformedResponse)
			}
			audio = append(audio, chunk...)
		}
		if msg.IsFinal {
			break
		}
	}

	if len(audio) == 0 {
		return nil, errorsx.New("no audio in stream-input response", errorsx.ReasonMalformedResponse)
	}
	return audio, nil
}

func (c *Client) streamURL(voiceID string) string {
	q := url.Values{}
	q.Set("model_id", c.cfg.ModelID)
	q.Set("output_format", "mp3_44100_128")
	return c.cfg.WSBase + "/" + url.PathEscape(voiceID) + "/stream-input?" + q.Encode()
}
