package handlers

import (
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/booklens/internal/gateway"
)

// Routes returns the full API wrapped in request-id, access-log and recovery
// middleware. limiter guards the routes that reach the language model.
func (h *Handler) Routes(limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/api/openai", gateway.CORS(limiter.Middleware(h.proxy)))
	mux.Handle("POST /api/resolve", limiter.Middleware(http.HandlerFunc(h.HandleResolve)))
	mux.HandleFunc("GET /api/session", h.HandleSession)

	mux.HandleFunc("GET /api/history", h.HandleHistory)
	mux.HandleFunc("POST /api/history", h.HandleSaveHistory)
	mux.HandleFunc("DELETE /api/history/{id}", h.HandleDeleteHistory)

	mux.HandleFunc("GET /api/lists", h.HandleLists)
	mux.HandleFunc("POST /api/lists", h.HandleCreateList)
	mux.HandleFunc("PATCH /api/lists/{id}", h.HandleRenameList)
	mux.HandleFunc("DELETE /api/lists/{id}", h.HandleDeleteList)
	mux.HandleFunc("GET /api/lists/{id}/items", h.HandleListItems)
	mux.HandleFunc("POST /api/lists/{id}/items", h.HandleAddListItem)
	mux.HandleFunc("DELETE /api/lists/{id}/items/{itemID}", h.HandleRemoveListItem)

	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	return RequestID(AccessLog(Recovery(mux)))
}
