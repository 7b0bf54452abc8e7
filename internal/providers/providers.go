package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Config represents the configuration for an LLM provider
type Config struct {
	Model        string
	Temperature  float64
	System       string
	Prompt       string
	ImageDataURL string // optional data: URL for vision requests
	JSON         bool   // request a JSON object response
}

// Provider defines the interface for an LLM provider
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}

// Checker is implemented by providers that need configuration, such as an
// API key, before they can serve requests
type Checker interface {
	Check() error
}

// StatusError reports a non-success response from the upstream API.
// Body is kept verbatim so callers can forward it.
type StatusError struct {
	StatusCode  int
	Body        string
	ContentType string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned status %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// ErrMissingCredential is returned when a provider's API key is not configured
var ErrMissingCredential = errors.New("provider credential missing")

// CredentialError names the environment variable that is missing
type CredentialError struct {
	Env string
}

func (e *CredentialError) Error() string {
	return e.Env + " is missing"
}

func (e *CredentialError) Unwrap() error {
	return ErrMissingCredential
}

// DecodeDataURL splits a base64 data URL into its MIME type and bytes
func DecodeDataURL(dataURL string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return mimeType, data, nil
}
