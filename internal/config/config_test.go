package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{
		"BOOKLENS_ADDR", "BOOKLENS_PROVIDER", "BOOKLENS_MODEL", "BOOKLENS_TEMPERATURE",
		"BOOKLENS_STORE", "BOOKLENS_RATE_LIMIT", "BOOKLENS_RATE_BURST", "OPENAI_MODEL",
		"OLLAMA_URL", "OLLAMA_HOST",
	} {
		t.Setenv(k, "")
	}

	c := Load()
	if c.Addr != ":8080" {
		t.Errorf("Expected default addr, got %q", c.Addr)
	}
	if c.Provider != "openai" || c.ResolvedModel() != "gpt-4o" {
		t.Errorf("Expected openai/gpt-4o, got %s/%s", c.Provider, c.ResolvedModel())
	}
	if c.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", c.Temperature)
	}
	if c.Store != "memory" {
		t.Errorf("Expected memory store, got %q", c.Store)
	}
	if c.RateLimit != 2 || c.RateBurst != 5 {
		t.Errorf("Unexpected rate limit %v/%d", c.RateLimit, c.RateBurst)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOOKLENS_PROVIDER", "Ollama")
	t.Setenv("BOOKLENS_MODEL", "")
	t.Setenv("OLLAMA_MODEL", "")
	t.Setenv("OLLAMA_URL", "")
	t.Setenv("OLLAMA_HOST", "http://gpu:11434")
	t.Setenv("BOOKLENS_TEMPERATURE", "not-a-number")
	t.Setenv("BOOKLENS_STORE", "SQLite")

	c := Load()
	if c.Provider != "ollama" || c.ResolvedModel() != "llava" {
		t.Errorf("Expected ollama/llava, got %s/%s", c.Provider, c.ResolvedModel())
	}
	if c.OllamaURL != "http://gpu:11434" {
		t.Errorf("Expected OLLAMA_HOST fallback, got %q", c.OllamaURL)
	}
	if c.Temperature != 0.2 {
		t.Errorf("Invalid temperature should fall back, got %v", c.Temperature)
	}
	if c.Store != "sqlite" {
		t.Errorf("Expected sqlite, got %q", c.Store)
	}
}

func TestDefaultModelUnknownProvider(t *testing.T) {
	if got := DefaultModel("mystery"); got != "" {
		t.Errorf("Expected empty model, got %q", got)
	}
}
