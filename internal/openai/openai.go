package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

const defaultBaseURL = "https://api.openai.com/v1/chat/completions"

// OpenAI is a provider for OpenAI chat completions
type OpenAI struct {
	apiKey     string
	BaseURL    string
	httpClient *http.Client
}

// New returns a new OpenAI provider
func New(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:     apiKey,
		BaseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Check reports a missing API key
func (o *OpenAI) Check() error {
	if o.apiKey == "" {
		return &providers.CredentialError{Env: "OPENAI_API_KEY"}
	}
	return nil
}

// ExtractText sends the prompt (and image, if any) to OpenAI and returns the
// assistant message content
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if err := o.Check(); err != nil {
		return "", err
	}

	parts := []contentPart{{Type: "text", Text: config.Prompt}}
	if config.ImageDataURL != "" {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: config.ImageDataURL}})
	}

	messages := make([]message, 0, 2)
	if config.System != "" {
		messages = append(messages, message{Role: "system", Content: config.System})
	}
	messages = append(messages, message{Role: "user", Content: parts})

	body := map[string]interface{}{
		"model":       config.Model,
		"messages":    messages,
		"temperature": config.Temperature,
	}
	if config.JSON {
		body["response_format"] = map[string]string{"type": "json_object"}
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL, bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return "", &providers.StatusError{
			StatusCode:  resp.StatusCode,
			Body:        string(body),
			ContentType: resp.Header.Get("Content-Type"),
		}
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", nil
	}

	return response.Choices[0].Message.Content, nil
}
