package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

func TestExtractTextSendsVisionRequest(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Expected bearer token, got %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"judul\":\"Laskar Pelangi\"}"}}]}`))
	}))
	defer server.Close()

	o := New("sk-test")
	o.BaseURL = server.URL

	out, err := o.ExtractText(context.Background(), providers.Config{
		Model:        "gpt-4o",
		Temperature:  0.2,
		System:       "system prompt",
		Prompt:       "user prompt",
		ImageDataURL: "data:image/jpeg;base64,AAAA",
		JSON:         true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != `{"judul":"Laskar Pelangi"}` {
		t.Errorf("Unexpected content %q", out)
	}

	if captured["model"] != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %v", captured["model"])
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Errorf("Expected json_object response format, got %v", captured["response_format"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("Expected system and user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	parts, _ := user["content"].([]any)
	if len(parts) != 2 {
		t.Fatalf("Expected text and image parts, got %d", len(parts))
	}
	image, _ := parts[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("Expected image_url part, got %v", image["type"])
	}
}

func TestExtractTextUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer server.Close()

	o := New("sk-test")
	o.BaseURL = server.URL

	_, err := o.ExtractText(context.Background(), providers.Config{Model: "gpt-4o", Prompt: "x"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", statusErr.StatusCode)
	}
	if statusErr.Body != `{"error":{"message":"rate limited"}}` {
		t.Errorf("Expected verbatim body, got %q", statusErr.Body)
	}
}

func TestExtractTextMissingKey(t *testing.T) {
	_, err := New("").ExtractText(context.Background(), providers.Config{Prompt: "x"})
	if !errors.Is(err, providers.ErrMissingCredential) {
		t.Errorf("Expected missing credential error, got %v", err)
	}
}
