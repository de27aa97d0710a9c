package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates the service's configuration.
type Config struct {
	Server   ServerConfig
	Ollama   OllamaConfig
	Speech   SpeechConfig
	Audio    AudioConfig
	Database DatabaseConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	audioCfg, err := loadAudioConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		Ollama: OllamaConfig{
			BaseURL: getEnvOrDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
			Model:   getEnvOrDefault("OLLAMA_MODEL", "llama3.2:3b"),
		},
		Speech: SpeechConfig{
			WhisperBinDir:   getEnvOrDefault("WHISPER_BIN_DIR", "bin"),
			WhisperModelDir: getEnvOrDefault("WHISPER_MODEL_DIR", "models"),
			WhisperModel:    getEnvOrDefault("WHISPER_MODEL", "base"),
			PiperBinDir:     getEnvOrDefault("PIPER_BIN_DIR", "bin"),
			PiperModelDir:   getEnvOrDefault("PIPER_MODEL_DIR", "models"),
			PiperVoice:      getEnvOrDefault("PIPER_VOICE", "en_US-amy-medium"),
		},
		Audio: audioCfg,
		Database: DatabaseConfig{
			URL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8000" or "127.0.0.1:8000" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// OllamaConfig describes the inference backend.
type OllamaConfig struct {
	BaseURL string
	Model   string
}

// SpeechConfig locates the local speech engine binaries and models.
type SpeechConfig struct {
	WhisperBinDir   string
	WhisperModelDir string
	WhisperModel    string
	PiperBinDir     string
	PiperModelDir   string
	PiperVoice      string
}

// AudioConfig controls the generated-audio directory and its cleanup.
type AudioConfig struct {
	Dir           string
	Retention     time.Duration
	SweepInterval time.Duration
}

// DatabaseConfig holds the optional relational store connection string. When
// URL is empty the service falls back to the in-memory message store.
type DatabaseConfig struct {
	URL string
}

func loadAudioConfig() (AudioConfig, error) {
	retention, err := parseOptionalDurationEnv("AUDIO_RETENTION")
	if err != nil {
		return AudioConfig{}, err
	}
	if retention == 0 {
		retention = time.Hour
	}

	interval, err := parseOptionalDurationEnv("AUDIO_SWEEP_INTERVAL")
	if err != nil {
		return AudioConfig{}, err
	}
	if interval == 0 {
		interval = time.Hour
	}

	return AudioConfig{
		Dir:           getEnvOrDefault("AUDIO_DIR", "audio_files"),
		Retention:     retention,
		SweepInterval: interval,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalDurationEnv(key string) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}

	// Accept either a Go duration string or a number of seconds.
	if d, err := time.ParseDuration(raw); err == nil {
		return d, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("invalid %s value %q", key, raw)
}
