package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/lehigh-university-libraries/booklens/internal/providers"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini is a provider for Google Gemini
type Gemini struct {
	apiKey string
	opts   []option.ClientOption
}

// New returns a new Gemini provider. Extra client options are appended after
// the API key, which lets tests point the client at a local endpoint.
func New(apiKey string, opts ...option.ClientOption) *Gemini {
	return &Gemini{apiKey: apiKey, opts: opts}
}

// Check reports a missing API key
func (g *Gemini) Check() error {
	if g.apiKey == "" {
		return &providers.CredentialError{Env: "GEMINI_API_KEY"}
	}
	return nil
}

// ExtractText extracts text from the given prompt using Gemini
func (g *Gemini) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if err := g.Check(); err != nil {
		return "", err
	}

	parts := []genai.Part{genai.Text(config.Prompt)}
	if config.ImageDataURL != "" {
		mimeType, data, err := providers.DecodeDataURL(config.ImageDataURL)
		if err != nil {
			return "", fmt.Errorf("failed to read image: %w", err)
		}
		parts = append(parts, genai.ImageData(strings.TrimPrefix(mimeType, "image/"), data))
	}

	opts := append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.Model)
	model.SetTemperature(float32(config.Temperature))
	if config.System != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(config.System))
	}
	if config.JSON {
		model.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &providers.StatusError{
				StatusCode:  apiErr.Code,
				Body:        apiErr.Body,
				ContentType: "application/json",
			}
		}
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if txt, ok := p.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("unexpected response format from Gemini")
	}

	return sb.String(), nil
}
