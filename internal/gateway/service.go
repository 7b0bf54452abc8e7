// Package gateway talks to language-model providers on behalf of the
// pipeline. Proxy exposes it over HTTP, Client calls such a proxy and Local
// calls a provider in-process.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/config"
	"github.com/lehigh-university-libraries/booklens/internal/gemini"
	"github.com/lehigh-university-libraries/booklens/internal/ollama"
	"github.com/lehigh-university-libraries/booklens/internal/openai"
	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

// Request is the body accepted by the proxy.
type Request struct {
	ImageDataURL string   `json:"imageDataUrl,omitempty"`
	TitleQuery   string   `json:"titleQuery,omitempty"`
	Model        string   `json:"model,omitempty"`
	Temperature  *float64 `json:"temperature,omitempty"`
}

// ConfigError reports a server-side setting that is missing.
type ConfigError struct {
	Env string
}

func (e *ConfigError) Error() string {
	return "Server misconfigured: " + e.Env + " is missing"
}

// Service builds prompts and runs them against one provider.
type Service struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewService creates a Service with default model and temperature
func NewService(p providers.Provider, model string, temperature float64) *Service {
	return &Service{provider: p, model: model, temperature: temperature}
}

// NewProvider constructs the provider named by c.Provider
func NewProvider(c config.Config) (providers.Provider, error) {
	switch c.Provider {
	case "openai", "":
		p := openai.New(c.OpenAIKey)
		if c.OpenAIBaseURL != "" {
			p.BaseURL = c.OpenAIBaseURL
		}
		return p, nil
	case "gemini":
		return gemini.New(c.GeminiKey), nil
	case "ollama":
		return ollama.New(c.OllamaURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", c.Provider)
	}
}

// FromConfig builds a Service for the configured provider and model
func FromConfig(c config.Config) (*Service, error) {
	p, err := NewProvider(c)
	if err != nil {
		return nil, err
	}
	return NewService(p, c.ResolvedModel(), c.Temperature), nil
}

// Check reports a missing provider credential as a ConfigError.
func (s *Service) Check() error {
	if c, ok := s.provider.(providers.Checker); ok {
		if err := c.Check(); err != nil {
			return asConfigError(err)
		}
	}
	return nil
}

// Complete sends req to the provider and returns the raw model output.
// Upstream failures come back as *providers.StatusError, missing
// credentials as *ConfigError.
func (s *Service) Complete(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.ImageDataURL) == "" && strings.TrimSpace(req.TitleQuery) == "" {
		return "", errors.New("imageDataUrl or titleQuery is required")
	}

	cfg := providers.Config{
		Model:        s.model,
		Temperature:  s.temperature,
		System:       SystemPrompt,
		Prompt:       buildPrompt(req),
		ImageDataURL: req.ImageDataURL,
		JSON:         true,
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}

	content, err := s.provider.ExtractText(ctx, cfg)
	if err != nil {
		return "", asConfigError(err)
	}
	slog.Debug("Model responded", "model", cfg.Model, "image", req.ImageDataURL != "", "length", len(content))
	return content, nil
}

func asConfigError(err error) error {
	var credErr *providers.CredentialError
	if errors.As(err, &credErr) {
		return &ConfigError{Env: credErr.Env}
	}
	return err
}
