package config

import (
	"os"
	"testing"
	"time"
)

func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	prev := make(map[string]*string, len(envs))
	for k, v := range envs {
		if old, ok := os.LookupEnv(k); ok {
			o := old
			prev[k] = &o
		} else {
			prev[k] = nil
		}
		os.Setenv(k, v)
	}
	return func() {
		for k, old := range prev {
			if old == nil {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, *old)
			}
		}
	}
}

func TestLoad(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"DATABASE_URL":    "postgres://localhost/test",
		"MQTT_BROKER_URL": "tcp://localhost:1883",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.MQTTTopics != "lt/#" {
			t.Errorf("MQTTTopics = %q, want lt/#", cfg.MQTTTopics)
		}
		if cfg.MQTTClientID != "lt-engine" {
			t.Errorf("MQTTClientID = %q, want lt-engine", cfg.MQTTClientID)
		}
		if cfg.TranslateModel != "gpt-4o-mini" {
			t.Errorf("TranslateModel = %q, want gpt-4o-mini", cfg.TranslateModel)
		}
		if cfg.TranslateTimeout != 8*time.Second {
			t.Errorf("TranslateTimeout = %v, want 8s", cfg.TranslateTimeout)
		}
		if cfg.InjectionReapAfter != 2*time.Minute {
			t.Errorf("InjectionReapAfter = %v, want 2m", cfg.InjectionReapAfter)
		}
		if cfg.Workers != 8 {
			t.Errorf("Workers = %d, want 8", cfg.Workers)
		}
	})

	t.Run("voice_to_voice_disabled_without_credentials", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.VoiceToVoiceEnabled() {
			t.Error("VoiceToVoiceEnabled = true, want false without TTS/call-control/S3 config")
		}
	})

	t.Run("voice_to_voice_enabled_with_credentials", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{
			"TTS_API_KEY":          "k1",
			"CALL_CONTROL_API_KEY": "k2",
			"S3_BUCKET":            "audio",
		})
		defer cleanup()

		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if !cfg.VoiceToVoiceEnabled() {
			t.Error("VoiceToVoiceEnabled = false, want true")
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:       "nonexistent.env",
			HTTPAddr:      ":9090",
			LogLevel:      "debug",
			DatabaseURL:   "postgres://override/db",
			MQTTBrokerURL: "tcp://override:1883",
			VoiceMapPath:  "/etc/lt/voices.json",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.DatabaseURL != "postgres://override/db" {
			t.Errorf("DatabaseURL = %q, want override", cfg.DatabaseURL)
		}
		if cfg.MQTTBrokerURL != "tcp://override:1883" {
			t.Errorf("MQTTBrokerURL = %q, want override", cfg.MQTTBrokerURL)
		}
		if cfg.VoiceMapPath != "/etc/lt/voices.json" {
			t.Errorf("VoiceMapPath = %q, want override", cfg.VoiceMapPath)
		}
	})

	t.Run("missing_required", func(t *testing.T) {
		cleanup := setEnvs(t, map[string]string{"DATABASE_URL": ""})
		os.Unsetenv("DATABASE_URL")
		defer cleanup()

		if _, err := Load(Overrides{EnvFile: "nonexistent.env"}); err == nil {
			t.Error("Load succeeded without DATABASE_URL, want error")
		}
	})
}
