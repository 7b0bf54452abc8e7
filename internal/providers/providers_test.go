package providers

import (
	"errors"
	"testing"
)

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		mimeType string
		data     string
		wantErr  bool
	}{
		{name: "jpeg", input: "data:image/jpeg;base64,aGVsbG8=", mimeType: "image/jpeg", data: "hello"},
		{name: "missing mime", input: "data:;base64,aGVsbG8=", mimeType: "application/octet-stream", data: "hello"},
		{name: "not a data url", input: "https://example.com/a.jpg", wantErr: true},
		{name: "not base64", input: "data:text/plain,hello", wantErr: true},
		{name: "bad payload", input: "data:image/png;base64,!!!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mimeType, data, err := DecodeDataURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if mimeType != tt.mimeType || string(data) != tt.data {
				t.Errorf("Expected %s %q, got %s %q", tt.mimeType, tt.data, mimeType, data)
			}
		})
	}
}

func TestCredentialErrorUnwraps(t *testing.T) {
	var err error = &CredentialError{Env: "OPENAI_API_KEY"}
	if !errors.Is(err, ErrMissingCredential) {
		t.Errorf("Expected CredentialError to match ErrMissingCredential")
	}
	if err.Error() != "OPENAI_API_KEY is missing" {
		t.Errorf("Unexpected message %q", err.Error())
	}
}
