package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL   string `env:"DATABASE_URL,required"`
	MQTTBrokerURL string `env:"MQTT_BROKER_URL,required"`
	MQTTTopics    string `env:"MQTT_TOPICS" envDefault:"lt/#"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"lt-engine"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	// Translation provider (OpenAI-compatible chat completions)
	TranslateAPIURL    string        `env:"TRANSLATE_API_URL" envDefault:"https://api.openai.com/v1/chat/completions"`
	TranslateAPIKey    string        `env:"TRANSLATE_API_KEY"`
	TranslateModel     string        `env:"TRANSLATE_MODEL" envDefault:"gpt-4o-mini"`
	TranslateMaxTokens int           `env:"TRANSLATE_MAX_TOKENS" envDefault:"512"`
	TranslateTimeout   time.Duration `env:"TRANSLATE_TIMEOUT" envDefault:"8s"`

	// Speech synthesis (ElevenLabs)
	TTSAPIKey    string        `env:"TTS_API_KEY"`
	TTSModel     string        `env:"TTS_MODEL" envDefault:"eleven_multilingual_v2"`
	TTSTimeout   time.Duration `env:"TTS_TIMEOUT" envDefault:"10s"`
	VoiceMapPath string        `env:"VOICE_MAP_PATH" envDefault:"./voices.json"`

	// Telephony control plane (live-call audio playback)
	CallControlAPIURL  string        `env:"CALL_CONTROL_API_URL" envDefault:"https://api.telnyx.com/v2"`
	CallControlAPIKey  string        `env:"CALL_CONTROL_API_KEY"`
	InjectTimeout      time.Duration `env:"INJECT_TIMEOUT" envDefault:"10s"`
	InjectionReapAfter time.Duration `env:"INJECTION_REAP_AFTER" envDefault:"2m"`

	// Synthesized-audio object storage
	S3Bucket           string `env:"S3_BUCKET"`
	S3Region           string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint         string `env:"S3_ENDPOINT"`
	S3AccessKey        string `env:"S3_ACCESS_KEY"`
	S3SecretKey        string `env:"S3_SECRET_KEY"`
	S3Prefix           string `env:"S3_PREFIX" envDefault:"injected"`
	AudioPublicBaseURL string `env:"AUDIO_PUBLIC_BASE_URL"`

	// Segment worker pool
	Workers   int `env:"WORKERS" envDefault:"8"`
	QueueSize int `env:"QUEUE_SIZE" envDefault:"256"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// VoiceToVoiceEnabled reports whether the synthesis + injection half of the
// pipeline can run at all. Segments asking for voice-to-voice degrade to
// text-only when any of these credentials is missing.
func (c *Config) VoiceToVoiceEnabled() bool {
	return c.TTSAPIKey != "" && c.CallControlAPIKey != "" && c.S3Bucket != ""
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile       string
	HTTPAddr      string
	LogLevel      string
	DatabaseURL   string
	MQTTBrokerURL string
	VoiceMapPath  string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.DatabaseURL != "" {
		cfg.DatabaseURL = overrides.DatabaseURL
	}
	if overrides.MQTTBrokerURL != "" {
		cfg.MQTTBrokerURL = overrides.MQTTBrokerURL
	}
	if overrides.VoiceMapPath != "" {
		cfg.VoiceMapPath = overrides.VoiceMapPath
	}

	return cfg, nil
}
