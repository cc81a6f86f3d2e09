package httpapi

import (
	"net/http"
	"strings"

	"societyhub-data/internal/service"

	"go.uber.org/zap"
)

// ComplaintsHandler 投诉工单 Handler
type ComplaintsHandler struct {
	complaints service.ComplaintService
	logger     *zap.Logger
}

func NewComplaintsHandler(complaints service.ComplaintService, logger *zap.Logger) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, logger: logger}
}

func (h *ComplaintsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/complaints" && r.Method == http.MethodGet:
		h.List(w, r)
	case r.URL.Path == "/api/v1/complaints" && r.Method == http.MethodPost:
		h.File(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/complaints/") && r.Method == http.MethodPost:
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/complaints/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.Update(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *ComplaintsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	complaints, err := h.complaints.ListComplaints(r.Context(), q.Get("societyId"), q.Get("status"))
	if err != nil {
		h.logger.Error("ListComplaints failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(complaints))
}

func (h *ComplaintsHandler) File(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	societyID, _ := payload["societyId"].(string)
	flatID, _ := payload["flatId"].(string)
	userID, _ := payload["userId"].(string)
	category, _ := payload["category"].(string)
	title, _ := payload["title"].(string)
	description, _ := payload["description"].(string)
	priority, _ := payload["priority"].(string)

	complaint, err := h.complaints.FileComplaint(r.Context(), service.FileComplaintRequest{
		SocietyID:   societyID,
		FlatID:      flatID,
		UserID:      userID,
		Category:    category,
		Title:       title,
		Description: description,
		Priority:    priority,
	})
	if err != nil {
		h.logger.Error("FileComplaint failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(complaint))
}

func (h *ComplaintsHandler) Update(w http.ResponseWriter, r *http.Request, id string) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	status, _ := payload["status"].(string)
	assignedTo, _ := payload["assignedTo"].(string)

	if err := h.complaints.UpdateComplaint(r.Context(), service.UpdateComplaintRequest{
		ComplaintID: id,
		Status:      status,
		AssignedTo:  assignedTo,
	}); err != nil {
		h.logger.Error("UpdateComplaint failed", zap.String("complaint_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"updated": true}))
}
