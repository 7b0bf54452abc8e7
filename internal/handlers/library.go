package handlers

import (
	"errors"
	"net/http"

	"github.com/lehigh-university-libraries/booklens/internal/library"
	"github.com/lehigh-university-libraries/booklens/internal/models"
	"github.com/lehigh-university-libraries/booklens/internal/normalize"
)

type listRequest struct {
	Name string `json:"name"`
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.library.History(r.Context(), userFrom(r), limitFrom(r))
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) HandleSaveHistory(w http.ResponseWriter, r *http.Request) {
	var rec models.BookRecord
	if !h.decode(w, r, &rec) {
		return
	}
	entry, err := h.library.SaveHistory(r.Context(), userFrom(r), normalize.Finalize(rec))
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, entry)
}

func (h *Handler) HandleDeleteHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteHistory(r.Context(), userFrom(r), r.PathValue("id")); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleLists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.library.Lists(r.Context(), userFrom(r), limitFrom(r))
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, lists)
}

func (h *Handler) HandleCreateList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}
	list, err := h.library.CreateList(r.Context(), userFrom(r), req.Name)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, list)
}

func (h *Handler) HandleRenameList(w http.ResponseWriter, r *http.Request) {
	var req listRequest
	if !h.decode(w, r, &req) {
		return
	}
	list, err := h.library.RenameList(r.Context(), userFrom(r), r.PathValue("id"), req.Name)
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleDeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.library.DeleteList(r.Context(), userFrom(r), r.PathValue("id")); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.library.ListItems(r.Context(), userFrom(r), r.PathValue("id"), limitFrom(r))
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, items)
}

func (h *Handler) HandleAddListItem(w http.ResponseWriter, r *http.Request) {
	var rec models.BookRecord
	if !h.decode(w, r, &rec) {
		return
	}
	item, err := h.library.AddToList(r.Context(), userFrom(r), r.PathValue("id"), normalize.Finalize(rec))
	if err != nil {
		h.writeLibraryError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, item)
}

func (h *Handler) HandleRemoveListItem(w http.ResponseWriter, r *http.Request) {
	if err := h.library.RemoveFromList(r.Context(), userFrom(r), r.PathValue("id"), r.PathValue("itemID")); err != nil {
		h.writeLibraryError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeLibraryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		h.writeError(w, "Not Found", http.StatusNotFound)
	case errors.Is(err, library.ErrEmptyName):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, "Storage error: "+err.Error(), http.StatusInternalServerError)
	}
}
