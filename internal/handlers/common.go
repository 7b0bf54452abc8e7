package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/booklens/internal/library"
	"github.com/lehigh-university-libraries/booklens/internal/pipeline"
	"github.com/lehigh-university-libraries/booklens/internal/session"
)

// UserHeader carries the caller's identity. Login happens elsewhere; the
// server trusts whatever the fronting layer puts here.
const UserHeader = "X-BookLens-User"

const maxBodyBytes = 20 << 20

type Handler struct {
	proxy    http.Handler
	resolver *pipeline.Resolver
	library  *library.Library
	sessions *session.Registry
}

func New(proxy http.Handler, resolver *pipeline.Resolver, lib *library.Library, sessions *session.Registry) *Handler {
	return &Handler{
		proxy:    proxy,
		resolver: resolver,
		library:  lib,
		sessions: sessions,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "status", code)
	}
	h.writeJSON(w, code, map[string]string{"error": message})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func userFrom(r *http.Request) string {
	if u := strings.TrimSpace(r.Header.Get(UserHeader)); u != "" {
		return u
	}
	return session.AnonymousUser
}

func limitFrom(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
