package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/booklens/internal/gateway"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
)

// HandleResolve runs the enrichment pipeline. With ?save=true the result is
// also added to the caller's history.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var q pipeline.Query
	if !h.decode(w, r, &q) {
		return
	}

	user := userFrom(r)
	rec, err := h.resolver.ResolveFor(r.Context(), h.sessions.Get(user), q)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	if r.URL.Query().Get("save") == "true" {
		entry, err := h.library.SaveHistory(r.Context(), user, rec)
		if err != nil {
			h.writeError(w, "Failed to save history: "+err.Error(), http.StatusInternalServerError)
			return
		}
		slog.Info("Saved lookup", "user", user, "id", entry.ID, "title", rec.Title)
		h.writeJSON(w, http.StatusOK, entry)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// HandleSession returns the caller's session state.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.sessions.Get(userFrom(r)).Snapshot())
}

func (h *Handler) writeResolveError(w http.ResponseWriter, err error) {
	var (
		validationErr *pipeline.ValidationError
		gatewayErr    *pipeline.GatewayError
		configErr     *gateway.ConfigError
	)
	switch {
	case errors.As(err, &validationErr):
		h.writeError(w, validationErr.Message, http.StatusBadRequest)
	case errors.As(err, &gatewayErr):
		slog.Warn("Gateway failed", "status", gatewayErr.StatusCode)
		if gatewayErr.ContentType != "" {
			w.Header().Set("Content-Type", gatewayErr.ContentType)
		}
		w.WriteHeader(gatewayErr.StatusCode)
		_, _ = w.Write([]byte(gatewayErr.Body))
	case errors.As(err, &configErr):
		h.writeError(w, configErr.Error(), http.StatusInternalServerError)
	default:
		slog.Error("Resolve failed", "err", err)
		h.writeError(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
