package httpapi

import (
	"net/http"
	"strings"

	"societyhub-data/internal/service"

	"go.uber.org/zap"
)

// VisitorsHandler 访客登记 Handler
type VisitorsHandler struct {
	visitors service.VisitorService
	logger   *zap.Logger
}

func NewVisitorsHandler(visitors service.VisitorService, logger *zap.Logger) *VisitorsHandler {
	return &VisitorsHandler{visitors: visitors, logger: logger}
}

func (h *VisitorsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/visitors" && r.Method == http.MethodGet:
		h.List(w, r)
	case r.URL.Path == "/api/v1/visitors" && r.Method == http.MethodPost:
		h.Register(w, r)
	case strings.HasSuffix(r.URL.Path, "/review") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/visitors/"), "/review")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Review(w, r, id)
	case strings.HasSuffix(r.URL.Path, "/exit") && r.Method == http.MethodPost:
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/visitors/"), "/exit")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Exit(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *VisitorsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	visitors, err := h.visitors.ListVisitors(r.Context(), q.Get("societyId"), q.Get("flatId"))
	if err != nil {
		h.logger.Error("ListVisitors failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(visitors))
}

func (h *VisitorsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	societyID, _ := payload["societyId"].(string)
	flatID, _ := payload["flatId"].(string)
	name, _ := payload["name"].(string)
	phone, _ := payload["phone"].(string)
	purpose, _ := payload["purpose"].(string)

	visitor, err := h.visitors.RegisterVisitor(r.Context(), service.RegisterVisitorRequest{
		SocietyID: societyID,
		FlatID:    flatID,
		Name:      name,
		Phone:     phone,
		Purpose:   purpose,
	})
	if err != nil {
		h.logger.Error("RegisterVisitor failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(visitor))
}

func (h *VisitorsHandler) Review(w http.ResponseWriter, r *http.Request, id string) {
	var payload map[string]any
	_ = readBodyJSON(r, 1<<20, &payload)
	approve, _ := payload["approve"].(bool)

	if err := h.visitors.ReviewVisitor(r.Context(), id, approve); err != nil {
		h.logger.Error("ReviewVisitor failed", zap.String("visitor_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"reviewed": true, "approved": approve}))
}

func (h *VisitorsHandler) Exit(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.visitors.MarkExit(r.Context(), id); err != nil {
		h.logger.Error("MarkExit failed", zap.String("visitor_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"exited": true}))
}
