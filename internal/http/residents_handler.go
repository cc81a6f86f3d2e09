package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"societyhub-data/internal/occupancy"
	"societyhub-data/internal/service"

	"go.uber.org/zap"
)

// ResidentsHandler 住户管理 Handler
type ResidentsHandler struct {
	residents service.ResidentService
	logger    *zap.Logger
}

// NewResidentsHandler 创建住户管理 Handler
func NewResidentsHandler(residents service.ResidentService, logger *zap.Logger) *ResidentsHandler {
	return &ResidentsHandler{
		residents: residents,
		logger:    logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *ResidentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/residents":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.List(w, r)
	case "/api/v1/residents/assign":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Assign(w, r)
	case "/api/v1/residents/release":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Release(w, r)
	case "/api/v1/residents/link":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Link(w, r)
	case "/api/v1/residents/deactivate":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Deactivate(w, r)
	case "/api/v1/residents/export":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Export(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// List 住户列表
func (h *ResidentsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	resp, err := h.residents.ListResidents(r.Context(), service.ListResidentsRequest{
		SocietyID: q.Get("societyId"),
		Role:      q.Get("role"),
		FlatID:    q.Get("flatId"),
	})
	if err != nil {
		h.logger.Error("ListResidents failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Assign 安置住户到房屋
func (h *ResidentsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	profileID, _ := payload["profileId"].(string)
	flatID, _ := payload["flatId"].(string)
	societyID, _ := payload["societyId"].(string)
	flatNumber, _ := payload["flatNumber"].(string)
	capacity, _ := payload["capacity"].(string)
	floor, _ := payload["floor"].(float64)

	resp, err := h.residents.AssignResident(r.Context(), service.AssignResidentRequest{
		ProfileID:  profileID,
		FlatID:     flatID,
		SocietyID:  societyID,
		FlatNumber: flatNumber,
		Floor:      int(floor),
		Capacity:   capacity,
	})
	if err != nil {
		h.logger.Error("AssignResident failed",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(occupancyErrorMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Release 解除住户与房屋的关系
func (h *ResidentsHandler) Release(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	profileID, _ := payload["profileId"].(string)
	flatID, _ := payload["flatId"].(string)

	if err := h.residents.ReleaseResident(r.Context(), service.ReleaseResidentRequest{
		ProfileID: profileID,
		FlatID:    flatID,
	}); err != nil {
		h.logger.Error("ReleaseResident failed",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(occupancyErrorMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"released": true}))
}

// Link 给用户授予房屋访问权（已有档案就地更新，否则先建身份）
func (h *ResidentsHandler) Link(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	email, _ := payload["email"].(string)
	name, _ := payload["name"].(string)
	phone, _ := payload["phone"].(string)
	flatID, _ := payload["flatId"].(string)
	societyID, _ := payload["societyId"].(string)
	flatNumber, _ := payload["flatNumber"].(string)
	capacity, _ := payload["capacity"].(string)

	resp, err := h.residents.LinkUser(r.Context(), service.LinkUserRequest{
		Email:      email,
		Name:       name,
		Phone:      phone,
		FlatID:     flatID,
		SocietyID:  societyID,
		FlatNumber: flatNumber,
		Capacity:   capacity,
	})
	if err != nil {
		h.logger.Error("LinkUser failed", zap.String("email", email), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(occupancyErrorMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Deactivate 软退役住户（释放其全部房屋关系）
func (h *ResidentsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	profileID, _ := payload["profileId"].(string)
	if err := h.residents.DeactivateResident(r.Context(), profileID); err != nil {
		h.logger.Error("DeactivateResident failed",
			zap.String("profile_id", profileID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Fail(occupancyErrorMessage(err)))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"deactivated": true}))
}

// Export 导出住户名册 Excel
func (h *ResidentsHandler) Export(w http.ResponseWriter, r *http.Request) {
	societyID := r.URL.Query().Get("societyId")
	rows, err := h.residents.ExportResidents(r.Context(), societyID)
	if err != nil {
		h.logger.Error("ExportResidents failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	data, err := GenerateResidentExport(rows)
	if err != nil {
		h.logger.Error("Generate resident export failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("residents_%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// occupancyErrorMessage 把占用协调器的错误映射为可操作的提示
// 单侧写失败必须指明哪一侧没写成，供重试或人工对账
func occupancyErrorMessage(err error) string {
	var pwErr *occupancy.PartialWriteError
	switch {
	case errors.As(err, &pwErr):
		return fmt.Sprintf("partial update: the %s record was not saved, retry or contact support", pwErr.Side)
	case errors.Is(err, occupancy.ErrAmbiguousTarget):
		return "profile occupies multiple flats, specify which flat"
	case errors.Is(err, occupancy.ErrCrossSociety):
		return "flat belongs to a different society"
	default:
		return err.Error()
	}
}
