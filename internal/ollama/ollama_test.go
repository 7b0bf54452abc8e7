package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

func TestExtractText(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"{\"judul\":\"Bumi Manusia\"}"}`))
	}))
	defer server.Close()

	out, err := New(server.URL+"/").ExtractText(context.Background(), providers.Config{
		Model:        "llava",
		System:       "sys",
		Prompt:       "p",
		ImageDataURL: "data:image/jpeg;base64,aGVsbG8=",
		JSON:         true,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out != `{"judul":"Bumi Manusia"}` {
		t.Errorf("Unexpected response %q", out)
	}
	if captured["format"] != "json" {
		t.Errorf("Expected json format, got %v", captured["format"])
	}
	if captured["system"] != "sys" {
		t.Errorf("Expected system prompt, got %v", captured["system"])
	}
	images, _ := captured["images"].([]any)
	if len(images) != 1 || images[0] != "aGVsbG8=" {
		t.Errorf("Expected one base64 image, got %v", captured["images"])
	}
}

func TestExtractTextStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(server.URL).ExtractText(context.Background(), providers.Config{Model: "missing"})
	var statusErr *providers.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 StatusError, got %v", err)
	}
}

func TestExtractTextRejectsBadImage(t *testing.T) {
	_, err := New("http://127.0.0.1:0").ExtractText(context.Background(), providers.Config{ImageDataURL: "not-a-data-url"})
	if err == nil {
		t.Error("Expected error for malformed image")
	}
}
