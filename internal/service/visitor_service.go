package service

import (
	"context"
	"fmt"
	"time"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// VisitorService 访客登记服务接口
type VisitorService interface {
	RegisterVisitor(ctx context.Context, req RegisterVisitorRequest) (*domain.Visitor, error)
	ReviewVisitor(ctx context.Context, visitorID string, approve bool) error
	MarkExit(ctx context.Context, visitorID string) error
	ListVisitors(ctx context.Context, societyID, flatID string) ([]*domain.Visitor, error)
}

type visitorService struct {
	visitors *repository.VisitorsRepository
	logger   *zap.Logger
}

func NewVisitorService(visitors *repository.VisitorsRepository, logger *zap.Logger) VisitorService {
	return &visitorService{visitors: visitors, logger: logger}
}

// RegisterVisitorRequest 访客登记请求（门卫录入）
type RegisterVisitorRequest struct {
	SocietyID string
	FlatID    string
	Name      string
	Phone     string
	Purpose   string
}

func (s *visitorService) RegisterVisitor(ctx context.Context, req RegisterVisitorRequest) (*domain.Visitor, error) {
	if req.SocietyID == "" || req.FlatID == "" {
		return nil, fmt.Errorf("missing society or flat id")
	}
	if req.Name == "" {
		return nil, fmt.Errorf("missing visitor name")
	}

	now := time.Now().UTC()
	visitor := &domain.Visitor{
		ID:        uuid.NewString(),
		SocietyID: req.SocietyID,
		FlatID:    req.FlatID,
		Name:      req.Name,
		Phone:     req.Phone,
		Purpose:   req.Purpose,
		Status:    domain.VisitorStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.visitors.Create(ctx, visitor); err != nil {
		return nil, fmt.Errorf("register visitor: %w", err)
	}
	s.logger.Info("Visitor registered",
		zap.String("visitor_id", visitor.ID),
		zap.String("flat_id", visitor.FlatID),
	)
	return visitor, nil
}

// ReviewVisitor 住户审批：通过时记录入场时间
func (s *visitorService) ReviewVisitor(ctx context.Context, visitorID string, approve bool) error {
	if visitorID == "" {
		return fmt.Errorf("missing visitor id")
	}
	fields := recordstore.Record{}
	if approve {
		fields["status"] = domain.VisitorStatusApproved
		fields["entryTime"] = time.Now().UTC().Format(time.RFC3339)
	} else {
		fields["status"] = domain.VisitorStatusRejected
	}
	return s.visitors.Patch(ctx, visitorID, fields)
}

func (s *visitorService) MarkExit(ctx context.Context, visitorID string) error {
	if visitorID == "" {
		return fmt.Errorf("missing visitor id")
	}
	return s.visitors.Patch(ctx, visitorID, recordstore.Record{
		"status":   domain.VisitorStatusExited,
		"exitTime": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *visitorService) ListVisitors(ctx context.Context, societyID, flatID string) ([]*domain.Visitor, error) {
	if societyID == "" {
		return nil, fmt.Errorf("missing society id")
	}
	return s.visitors.ListBySociety(ctx, societyID, flatID)
}
