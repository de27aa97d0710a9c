package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("AUDIO_RETENTION", "")
	t.Setenv("AUDIO_SWEEP_INTERVAL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8000" {
		t.Fatalf("expected default addr :8000, got %s", cfg.Server.Addr)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Fatalf("unexpected ollama url %s", cfg.Ollama.BaseURL)
	}
	if cfg.Audio.Retention != time.Hour || cfg.Audio.SweepInterval != time.Hour {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
}

func TestLoadPortForms(t *testing.T) {
	t.Setenv("PORT", "9000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Fatalf("expected :9000, got %s", cfg.Server.Addr)
	}

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Fatalf("expected host:port passthrough, got %s", cfg.Server.Addr)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "90 00")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestAudioRetentionForms(t *testing.T) {
	t.Setenv("AUDIO_RETENTION", "30m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Audio.Retention != 30*time.Minute {
		t.Fatalf("expected 30m, got %v", cfg.Audio.Retention)
	}

	t.Setenv("AUDIO_RETENTION", "120")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Audio.Retention != 120*time.Second {
		t.Fatalf("expected 120s, got %v", cfg.Audio.Retention)
	}

	t.Setenv("AUDIO_RETENTION", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid AUDIO_RETENTION")
	}
}
