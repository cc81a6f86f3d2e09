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

// ComplaintService 投诉工单服务接口
type ComplaintService interface {
	FileComplaint(ctx context.Context, req FileComplaintRequest) (*domain.Complaint, error)
	UpdateComplaint(ctx context.Context, req UpdateComplaintRequest) error
	ListComplaints(ctx context.Context, societyID, status string) ([]*domain.Complaint, error)
}

type complaintService struct {
	complaints *repository.ComplaintsRepository
	logger     *zap.Logger
}

func NewComplaintService(complaints *repository.ComplaintsRepository, logger *zap.Logger) ComplaintService {
	return &complaintService{complaints: complaints, logger: logger}
}

// FileComplaintRequest 提交投诉请求
type FileComplaintRequest struct {
	SocietyID   string
	FlatID      string
	UserID      string
	Category    string
	Title       string
	Description string
	Priority    string // low / medium / high，默认 medium
}

func (s *complaintService) FileComplaint(ctx context.Context, req FileComplaintRequest) (*domain.Complaint, error) {
	if req.SocietyID == "" || req.UserID == "" {
		return nil, fmt.Errorf("missing society or user id")
	}
	if req.Title == "" {
		return nil, fmt.Errorf("missing title")
	}
	if req.Priority == "" {
		req.Priority = domain.ComplaintPriorityMedium
	}

	now := time.Now().UTC()
	complaint := &domain.Complaint{
		ID:          uuid.NewString(),
		SocietyID:   req.SocietyID,
		FlatID:      req.FlatID,
		UserID:      req.UserID,
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      domain.ComplaintStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("file complaint: %w", err)
	}
	s.logger.Info("Complaint filed",
		zap.String("complaint_id", complaint.ID),
		zap.String("society_id", complaint.SocietyID),
		zap.String("priority", complaint.Priority),
	)
	return complaint, nil
}

// UpdateComplaintRequest 工单流转请求；零值字段不更新
type UpdateComplaintRequest struct {
	ComplaintID string
	Status      string
	AssignedTo  string
}

func (s *complaintService) UpdateComplaint(ctx context.Context, req UpdateComplaintRequest) error {
	if req.ComplaintID == "" {
		return fmt.Errorf("missing complaint id")
	}
	fields := recordstore.Record{}
	if req.Status != "" {
		fields["status"] = req.Status
		if req.Status == domain.ComplaintStatusResolved {
			fields["resolvedAt"] = time.Now().UTC().Format(time.RFC3339)
		}
	}
	if req.AssignedTo != "" {
		fields["assignedTo"] = req.AssignedTo
	}
	if len(fields) == 0 {
		return nil
	}
	return s.complaints.Patch(ctx, req.ComplaintID, fields)
}

func (s *complaintService) ListComplaints(ctx context.Context, societyID, status string) ([]*domain.Complaint, error) {
	if societyID == "" {
		return nil, fmt.Errorf("missing society id")
	}
	return s.complaints.ListBySociety(ctx, societyID, status)
}
