package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full gateway configuration, loadable from a YAML file and
// overridable through VOICEGATE_* environment variables.
type Config struct {
	ListenAddr     string   `mapstructure:"listen_addr"`
	PublicBaseURL  string   `mapstructure:"public_base_url"`
	StorageDir     string   `mapstructure:"storage_dir"`
	StaticDir      string   `mapstructure:"static_dir"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	LogLevel       string   `mapstructure:"log_level"`

	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Espeak     EspeakConfig     `mapstructure:"espeak"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Breaker    BreakerConfig    `mapstructure:"breaker"`
}

type OpenAIConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	TTSModel  string        `mapstructure:"tts_model"`
	TTSVoice  string        `mapstructure:"tts_voice"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ElevenLabsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	ModelID string        `mapstructure:"model_id"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Fixed voice-quality parameters applied to every cloned-voice
	// synthesis call. These are deployment configuration, not request
	// inputs.
	Stability    float64 `mapstructure:"stability"`
	Similarity   float64 `mapstructure:"similarity"`
	Style        float64 `mapstructure:"style"`
	SpeakerBoost bool    `mapstructure:"speaker_boost"`
}

type EspeakConfig struct {
	Binary   string        `mapstructure:"binary"`
	Language string        `mapstructure:"language"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BlobConfig struct {
	NATSURL string        `mapstructure:"nats_url"`
	Bucket  string        `mapstructure:"bucket"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BreakerConfig struct {
	Threshold int           `mapstructure:"threshold"`
	Cooldown  time.Duration `mapstructure:"cooldown"`
}

// Load reads configuration from an optional file path plus the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about. Keys
	// without a default, credentials above all, must be bound explicitly
	// or env-only deployments lose them.
	for _, key := range []string{
		"public_base_url",
		"static_dir",
		"allowed_origins",
		"openai.api_key",
		"elevenlabs.api_key",
		"blob.nats_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", ":8002")
	v.SetDefault("storage_dir", "storage")
	v.SetDefault("log_level", "info")

	v.SetDefault("openai.model", "gpt-4")
	v.SetDefault("openai.tts_model", "gpt-4o-mini-tts")
	v.SetDefault("openai.tts_voice", "alloy")
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.timeout", 30*time.Second)
	v.SetDefault("elevenlabs.stability", 0.5)
	v.SetDefault("elevenlabs.similarity", 0.8)
	v.SetDefault("elevenlabs.style", 0.0)
	v.SetDefault("elevenlabs.speaker_boost", true)

	v.SetDefault("espeak.binary", "espeak-ng")
	v.SetDefault("espeak.language", "en")
	v.SetDefault("espeak.timeout", 20*time.Second)

	v.SetDefault("blob.bucket", "tts-audio")
	v.SetDefault("blob.timeout", 10*time.Second)

	v.SetDefault("breaker.threshold", 3)
	v.SetDefault("breaker.cooldown", 30*time.Second)
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ListenAddr) == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if strings.TrimSpace(c.StorageDir) == "" {
		return fmt.Errorf("storage_dir is required")
	}
	return nil
}
