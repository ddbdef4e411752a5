package config

import (
	"testing"
)

func TestNewWithDefaults(t *testing.T) {
	settings, err := New("anthropic")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if settings.LLM.Provider != "anthropic" {
		t.Errorf("provider: %s", settings.LLM.Provider)
	}
	if settings.LLM.MaxTokens != 4096 {
		t.Errorf("max tokens: %d", settings.LLM.MaxTokens)
	}
	if settings.LLM.Temperature != nil {
		t.Errorf("temperature should default to nil, got %v", *settings.LLM.Temperature)
	}
	if settings.Storage.Backend != "fs" {
		t.Errorf("storage backend: %s", settings.Storage.Backend)
	}
	if settings.Server.Addr != ":8080" {
		t.Errorf("addr: %s", settings.Server.Addr)
	}
	if settings.Browser.ServiceURL == "" {
		t.Error("browser service URL missing")
	}
}

func TestNewNormalizesAliases(t *testing.T) {
	settings, err := New("claude")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.Provider != "anthropic" {
		t.Errorf("alias not normalized: %s", settings.LLM.Provider)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	if _, err := New("cohere"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "2048")
	t.Setenv("LLM_TEMPERATURE", "0.2")
	t.Setenv("STORAGE_BACKEND", "minio")
	t.Setenv("MINIO_BUCKET", "shots")
	t.Setenv("SERVER_ADDR", ":9000")

	settings, err := New("openai")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.LLM.MaxTokens != 2048 {
		t.Errorf("max tokens: %d", settings.LLM.MaxTokens)
	}
	if settings.LLM.Temperature == nil || *settings.LLM.Temperature != 0.2 {
		t.Errorf("temperature: %v", settings.LLM.Temperature)
	}
	if settings.Storage.Backend != "minio" || settings.Storage.MinioBucket != "shots" {
		t.Errorf("storage: %+v", settings.Storage)
	}
	if settings.Server.Addr != ":9000" {
		t.Errorf("addr: %s", settings.Server.Addr)
	}
}

func TestInvalidValues(t *testing.T) {
	t.Setenv("LLM_MAX_TOKENS", "lots")
	if _, err := New("openai"); err == nil {
		t.Error("expected error for invalid LLM_MAX_TOKENS")
	}
}

func TestInvalidBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "ftp")
	if _, err := New("openai"); err == nil {
		t.Error("expected error for invalid STORAGE_BACKEND")
	}
}

func TestAPIKeyFor(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	key, err := APIKeyFor("gpt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != "sk-test" {
		t.Errorf("key: %s", key)
	}

	t.Setenv("DEEPSEEK_API_KEY", "")
	if _, err := APIKeyFor("deepseek"); err == nil {
		t.Error("expected error for missing key")
	}
}
