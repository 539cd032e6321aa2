package calendarview

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/noteloom/workspace/internal/calendar"
)

type Handler struct {
	Service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleView)
	r.Get("/export.ics", h.handleExportICS)
	return r
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request) {
	workspaceID, req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	vm, err := h.Service.BuildView(r.Context(), workspaceID, req)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, vm)
}

func (h *Handler) handleExportICS(w http.ResponseWriter, r *http.Request) {
	workspaceID, req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Items(r.Context(), workspaceID, req.View, req.Anchor)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	_, _ = w.Write([]byte(ExportICS(items, h.Service.Now())))
}

func (h *Handler) parseRequest(w http.ResponseWriter, r *http.Request) (string, ViewRequest, bool) {
	q := r.URL.Query()

	workspaceID := strings.TrimSpace(q.Get("workspace_id"))
	if workspaceID == "" {
		h.writeError(w, http.StatusBadRequest, "workspace_id query parameter is required")
		return "", ViewRequest{}, false
	}

	view, err := calendar.ParseView(q.Get("view"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", ViewRequest{}, false
	}

	anchor := h.Service.Now().In(h.Service.Engine.Location)
	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.Service.Engine.Location)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "date must be formatted as YYYY-MM-DD")
			return "", ViewRequest{}, false
		}
		anchor = parsed
	}

	types, err := parseTypeFilter(q.Get("types"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return "", ViewRequest{}, false
	}

	return workspaceID, ViewRequest{
		View:      view,
		Anchor:    anchor,
		Types:     types,
		FocusMode: q.Get("focus") == "true" || q.Get("focus") == "1",
	}, true
}

// parseTypeFilter turns a comma separated type list into a TypeFilter. An
// empty list keeps every type visible.
func parseTypeFilter(raw string) (calendar.TypeFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.AllTypes(), nil
	}
	var f calendar.TypeFilter
	for _, part := range strings.Split(raw, ",") {
		switch calendar.EventType(strings.TrimSpace(part)) {
		case calendar.TypeReminder:
			f.Reminders = true
		case calendar.TypeTimeBlock:
			f.TimeBlocks = true
		case calendar.TypeMeeting:
			f.Meetings = true
		case calendar.TypeDeadline:
			f.Deadlines = true
		case calendar.TypeTask:
			f.Tasks = true
		default:
			return calendar.TypeFilter{}, fmt.Errorf("unknown event type: %q", strings.TrimSpace(part))
		}
	}
	return f, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
