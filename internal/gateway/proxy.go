package gateway

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/providers"
)

const maxRequestBody = 20 << 20

// Proxy is the HTTP front of the gateway. It holds the provider credential
// so that clients never see it.
type Proxy struct {
	svc *Service
}

// NewProxy creates a Proxy
func NewProxy(svc *Service) *Proxy {
	return &Proxy{svc: svc}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORS(w)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	if err := p.svc.Check(); err != nil {
		slog.Error("Gateway proxy misconfigured", "err", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var req Request
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			// unparsable bodies are treated as empty
			req = Request{}
		}
	}
	if strings.TrimSpace(req.ImageDataURL) == "" && strings.TrimSpace(req.TitleQuery) == "" {
		writeJSONError(w, http.StatusBadRequest, "imageDataUrl or titleQuery is required")
		return
	}

	content, err := p.svc.Complete(r.Context(), req)
	if err != nil {
		var statusErr *providers.StatusError
		var configErr *ConfigError
		switch {
		case errors.As(err, &statusErr):
			if statusErr.ContentType != "" {
				w.Header().Set("Content-Type", statusErr.ContentType)
			}
			w.WriteHeader(statusErr.StatusCode)
			_, _ = w.Write([]byte(statusErr.Body))
		case errors.As(err, &configErr):
			writeJSONError(w, http.StatusInternalServerError, configErr.Error())
		default:
			slog.Error("Gateway proxy failed", "err", err)
			writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ParseObject(content))
}

// CORS sets the proxy's cross-origin headers before next runs, so responses
// written by outer middleware carry them too.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		next.ServeHTTP(w, r)
	})
}

func setCORS(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}
