// Package config reads runtime settings from the environment. The root
// command loads .env through godotenv before Load is called.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config holds every environment-derived setting.
type Config struct {
	Addr string

	Provider    string
	Model       string
	Temperature float64

	OpenAIKey     string
	OpenAIBaseURL string
	GeminiKey     string
	OllamaURL     string

	ProxyURL string

	OpenLibraryURL   string
	CatalogRateLimit float64
	GoogleBooksKey   string
	GoogleBooksURL   string

	Store    string
	StoreDSN string

	RateLimit float64
	RateBurst int
}

// Load reads the configuration from the process environment
func Load() Config {
	return Config{
		Addr: getEnv("BOOKLENS_ADDR", ":8080"),

		Provider:    strings.ToLower(getEnv("BOOKLENS_PROVIDER", "openai")),
		Model:       os.Getenv("BOOKLENS_MODEL"),
		Temperature: getFloat("BOOKLENS_TEMPERATURE", 0.2),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		GeminiKey:     os.Getenv("GEMINI_API_KEY"),
		OllamaURL:     firstEnv("OLLAMA_URL", "OLLAMA_HOST"),

		ProxyURL: os.Getenv("BOOKLENS_PROXY_URL"),

		OpenLibraryURL:   os.Getenv("BOOKLENS_OPENLIBRARY_URL"),
		CatalogRateLimit: getFloat("BOOKLENS_CATALOG_RPS", 2),
		GoogleBooksKey:   os.Getenv("GOOGLE_BOOKS_API_KEY"),
		GoogleBooksURL:   os.Getenv("BOOKLENS_GOOGLEBOOKS_URL"),

		Store:    strings.ToLower(getEnv("BOOKLENS_STORE", "memory")),
		StoreDSN: os.Getenv("BOOKLENS_STORE_DSN"),

		RateLimit: getFloat("BOOKLENS_RATE_LIMIT", 2),
		RateBurst: getInt("BOOKLENS_RATE_BURST", 5),
	}
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "openai":
		return getEnv("OPENAI_MODEL", "gpt-4o")
	case "gemini":
		return getEnv("GEMINI_MODEL", "gemini-1.5-flash")
	case "ollama":
		return getEnv("OLLAMA_MODEL", "llava")
	default:
		return ""
	}
}

// ResolvedModel is the configured model or the provider default.
func (c Config) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func getFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("Ignoring invalid number in environment", "key", key, "value", v)
		return fallback
	}
	return f
}

func getInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("Ignoring invalid integer in environment", "key", key, "value", v)
		return fallback
	}
	return n
}
