package httpapi

import (
	"net/http"
	"strings"

	"societyhub-data/internal/repository"

	"go.uber.org/zap"
)

// FlatsHandler 房屋台账 Handler（只读；占用状态的变更走 residents 路由）
type FlatsHandler struct {
	flats  *repository.FlatsRepository
	logger *zap.Logger
}

func NewFlatsHandler(flats *repository.FlatsRepository, logger *zap.Logger) *FlatsHandler {
	return &FlatsHandler{flats: flats, logger: logger}
}

func (h *FlatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path == "/api/v1/flats" {
		h.List(w, r)
		return
	}
	if id := strings.TrimPrefix(r.URL.Path, "/api/v1/flats/"); id != "" && !strings.Contains(id, "/") {
		h.GetByID(w, r, id)
		return
	}
	w.WriteHeader(http.StatusNotFound)
}

// List 按小区列出房屋；ownerId 参数时改按业主过滤
func (h *FlatsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	societyID := q.Get("societyId")
	ownerID := q.Get("ownerId")

	switch {
	case ownerID != "":
		flats, err := h.flats.ListByOwner(r.Context(), ownerID)
		if err != nil {
			h.logger.Error("ListByOwner failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Ok(flats))
	case societyID != "":
		flats, err := h.flats.ListBySociety(r.Context(), societyID)
		if err != nil {
			h.logger.Error("ListBySociety failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Ok(flats))
	default:
		writeJSON(w, http.StatusOK, Fail("missing societyId"))
	}
}

func (h *FlatsHandler) GetByID(w http.ResponseWriter, r *http.Request, id string) {
	flat, err := h.flats.Get(r.Context(), id)
	if err != nil {
		h.logger.Warn("Flat lookup failed", zap.String("flat_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("flat not found"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(flat))
}
