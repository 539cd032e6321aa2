package documents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/noteloom/workspace/internal/patch"
)

type Handler struct {
	Service *Service
	Saver   *Saver
}

func NewHandler(service *Service, saver *Saver) *Handler {
	return &Handler{Service: service, Saver: saver}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/favorites", h.handleListFavorites)
	r.Get("/archived", h.handleListArchived)
	r.Get("/{documentID}", h.handleGet)
	r.Patch("/{documentID}", h.handleUpdate)
	r.Delete("/{documentID}", h.handleDelete)
	r.Post("/{documentID}/favorite", h.handleToggleFavorite)
	r.Post("/{documentID}/reparent", h.handleReparent)
	r.Post("/{documentID}/archive", h.handleArchive)
	r.Post("/{documentID}/restore", h.handleRestore)
	r.Put("/{documentID}/content", h.handleSaveContent)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	doc, err := h.Service.Create(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrWorkspaceID), errors.Is(err, ErrCrossWorkspace):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrParentNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	workspaceID := strings.TrimSpace(r.URL.Query().Get("workspace_id"))
	if workspaceID == "" {
		h.writeError(w, http.StatusBadRequest, "workspace_id query parameter is required")
		return
	}
	var parentID *string
	if p := strings.TrimSpace(r.URL.Query().Get("parent_id")); p != "" {
		parentID = &p
	}
	docs, err := h.Service.List(r.Context(), workspaceID, parentID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	h.listByWorkspace(w, r, h.Service.ListFavorites)
}

func (h *Handler) handleListArchived(w http.ResponseWriter, r *http.Request) {
	h.listByWorkspace(w, r, h.Service.ListArchived)
}

func (h *Handler) listByWorkspace(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, workspaceID string) ([]Document, error)) {
	workspaceID := strings.TrimSpace(r.URL.Query().Get("workspace_id"))
	if workspaceID == "" {
		h.writeError(w, http.StatusBadRequest, "workspace_id query parameter is required")
		return
	}
	docs, err := list(r.Context(), workspaceID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) subtreeAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, id string) error) {
	if err := action(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.Get(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var p Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	doc, err := h.Service.Update(r.Context(), chi.URLParam(r, "documentID"), p)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Delete(r.Context(), chi.URLParam(r, "documentID")); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Service.ToggleFavorite(r.Context(), chi.URLParam(r, "documentID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

type reparentRequest struct {
	ParentID patch.Field[string] `json:"parent_id"`
}

func (h *Handler) handleReparent(w http.ResponseWriter, r *http.Request) {
	var req reparentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	doc, err := h.Service.Reparent(r.Context(), chi.URLParam(r, "documentID"), req.ParentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrCycle), errors.Is(err, ErrCrossWorkspace):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrParentNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		default:
			h.writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	h.subtreeAction(w, r, h.Service.Archive)
}

func (h *Handler) handleRestore(w http.ResponseWriter, r *http.Request) {
	h.subtreeAction(w, r, h.Service.Restore)
}

type saveContentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleSaveContent(w http.ResponseWriter, r *http.Request) {
	var req saveContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	id := chi.URLParam(r, "documentID")
	if _, err := h.Service.Get(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.Saver.Save(id, req.Content)
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "buffered"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
