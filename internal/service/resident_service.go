package service

import (
	"context"
	"fmt"
	"strings"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/occupancy"
	"societyhub-data/internal/repository"

	"go.uber.org/zap"
)

// ResidentService 住户管理服务接口
// 所有改变 membership 边的操作一律经 occupancy.Coordinator，
// 不允许任何调用方直接改 occupancyStatus
type ResidentService interface {
	ListResidents(ctx context.Context, req ListResidentsRequest) (*ListResidentsResponse, error)
	AssignResident(ctx context.Context, req AssignResidentRequest) (*AssignResidentResponse, error)
	ReleaseResident(ctx context.Context, req ReleaseResidentRequest) error
	LinkUser(ctx context.Context, req LinkUserRequest) (*LinkUserResponse, error)
	DeactivateResident(ctx context.Context, profileID string) error
	ExportResidents(ctx context.Context, societyID string) ([]map[string]any, error)
}

type residentService struct {
	profiles *repository.ProfilesRepository
	flats    *repository.FlatsRepository
	coord    *occupancy.Coordinator
	logger   *zap.Logger
}

func NewResidentService(
	profiles *repository.ProfilesRepository,
	flats *repository.FlatsRepository,
	coord *occupancy.Coordinator,
	logger *zap.Logger,
) ResidentService {
	return &residentService{
		profiles: profiles,
		flats:    flats,
		coord:    coord,
		logger:   logger,
	}
}

// ListResidentsRequest 住户列表请求
type ListResidentsRequest struct {
	SocietyID string // 必填
	Role      string // 可选，按角色过滤
	FlatID    string // 可选，按房屋过滤（与 Role 互斥时以 FlatID 为准）
}

// ListResidentsResponse 住户列表响应
type ListResidentsResponse struct {
	Residents []*domain.Profile `json:"residents"`
	Total     int               `json:"total"`
}

func (s *residentService) ListResidents(ctx context.Context, req ListResidentsRequest) (*ListResidentsResponse, error) {
	if req.SocietyID == "" {
		return nil, fmt.Errorf("missing society id")
	}

	var (
		residents []*domain.Profile
		err       error
	)
	if req.FlatID != "" {
		residents, err = s.profiles.ListByFlat(ctx, req.FlatID)
	} else {
		residents, err = s.profiles.ListBySociety(ctx, req.SocietyID, domain.Role(strings.TrimSpace(req.Role)))
	}
	if err != nil {
		return nil, fmt.Errorf("list residents: %w", err)
	}
	return &ListResidentsResponse{Residents: residents, Total: len(residents)}, nil
}

// AssignResidentRequest 安置住户请求
// FlatID 与（SocietyID, FlatNumber）二选一；后者查不到房屋时自动补建
type AssignResidentRequest struct {
	ProfileID  string
	FlatID     string
	SocietyID  string
	FlatNumber string
	Floor      int
	Capacity   string // "owner" | "tenant"，默认 tenant
}

// AssignResidentResponse 安置住户响应
type AssignResidentResponse struct {
	Flat *domain.Flat `json:"flat"`
}

func (s *residentService) AssignResident(ctx context.Context, req AssignResidentRequest) (*AssignResidentResponse, error) {
	if req.ProfileID == "" {
		return nil, fmt.Errorf("missing profile id")
	}

	flat, err := s.coord.AssignResident(ctx, occupancy.FlatRef{
		FlatID:     req.FlatID,
		SocietyID:  req.SocietyID,
		FlatNumber: req.FlatNumber,
		Floor:      req.Floor,
	}, req.ProfileID, parseCapacity(req.Capacity))
	if err != nil {
		return nil, err
	}
	return &AssignResidentResponse{Flat: flat}, nil
}

// ReleaseResidentRequest 释放住户请求；FlatID 为空时从唯一 membership 推断
type ReleaseResidentRequest struct {
	ProfileID string
	FlatID    string
}

func (s *residentService) ReleaseResident(ctx context.Context, req ReleaseResidentRequest) error {
	if req.ProfileID == "" {
		return fmt.Errorf("missing profile id")
	}
	return s.coord.ReleaseResident(ctx, req.ProfileID, req.FlatID)
}

// LinkUserRequest 给用户授予房屋访问权
// Email 已有档案时就地更新 membership；没有时先建身份再挂接
type LinkUserRequest struct {
	Email      string
	Name       string
	Phone      string
	FlatID     string
	SocietyID  string
	FlatNumber string
	Capacity   string
}

// LinkUserResponse 挂接结果
type LinkUserResponse struct {
	Profile *domain.Profile `json:"profile"`
}

func (s *residentService) LinkUser(ctx context.Context, req LinkUserRequest) (*LinkUserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("missing email")
	}

	profile, err := s.coord.LinkExistingOrNewUser(ctx, email, occupancy.FlatRef{
		FlatID:     req.FlatID,
		SocietyID:  req.SocietyID,
		FlatNumber: req.FlatNumber,
	}, parseCapacity(req.Capacity), identity.SignUpDraft{
		Name:      req.Name,
		Phone:     req.Phone,
		SocietyID: req.SocietyID,
	})
	if err != nil {
		return nil, err
	}
	return &LinkUserResponse{Profile: profile}, nil
}

func (s *residentService) DeactivateResident(ctx context.Context, profileID string) error {
	if profileID == "" {
		return fmt.Errorf("missing profile id")
	}
	return s.coord.DeactivateProfile(ctx, profileID)
}

// ExportResidents 导出住户名册行（房屋 id 解析为门牌号）
func (s *residentService) ExportResidents(ctx context.Context, societyID string) ([]map[string]any, error) {
	if societyID == "" {
		return nil, fmt.Errorf("missing society id")
	}
	residents, err := s.profiles.ListBySociety(ctx, societyID, "")
	if err != nil {
		return nil, fmt.Errorf("export residents: %w", err)
	}

	// 门牌号查找表，避免逐档案查询
	flats, err := s.flats.ListBySociety(ctx, societyID)
	if err != nil {
		return nil, fmt.Errorf("export residents: %w", err)
	}
	numbers := make(map[string]string, len(flats))
	for _, f := range flats {
		numbers[f.ID] = f.FlatNumber
	}

	rows := make([]map[string]any, 0, len(residents))
	for _, p := range residents {
		flatNumbers := make([]string, 0, len(p.FlatIDs))
		for _, id := range p.FlatIDs {
			if n, ok := numbers[id]; ok {
				flatNumbers = append(flatNumbers, n)
			} else {
				flatNumbers = append(flatNumbers, id)
			}
		}
		rows = append(rows, map[string]any{
			"name":        p.Name,
			"email":       p.Email,
			"phone":       p.Phone,
			"role":        string(p.Role),
			"status":      string(p.Status),
			"flatNumbers": strings.Join(flatNumbers, ", "),
			"moveInDate":  p.MoveInDate,
		})
	}
	return rows, nil
}

func parseCapacity(s string) domain.Capacity {
	if strings.ToLower(strings.TrimSpace(s)) == string(domain.CapacityOwner) {
		return domain.CapacityOwner
	}
	return domain.CapacityTenant
}
