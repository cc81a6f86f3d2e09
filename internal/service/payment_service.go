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

// PaymentService 缴费服务接口
type PaymentService interface {
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) error
	ListPayments(ctx context.Context, societyID, flatID string) ([]*domain.Payment, error)
}

type paymentService struct {
	payments *repository.PaymentsRepository
	logger   *zap.Logger
}

func NewPaymentService(payments *repository.PaymentsRepository, logger *zap.Logger) PaymentService {
	return &paymentService{payments: payments, logger: logger}
}

// CreatePaymentRequest 新建缴费单请求
type CreatePaymentRequest struct {
	SocietyID string
	FlatID    string
	UserID    string
	Type      string // rent / maintenance / water / electricity / other
	Amount    int
	DueDate   string
}

func (s *paymentService) CreatePayment(ctx context.Context, req CreatePaymentRequest) (*domain.Payment, error) {
	if req.SocietyID == "" || req.FlatID == "" {
		return nil, fmt.Errorf("missing society or flat id")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("invalid amount")
	}
	if req.Type == "" {
		req.Type = domain.PaymentTypeOther
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:        uuid.NewString(),
		SocietyID: req.SocietyID,
		FlatID:    req.FlatID,
		UserID:    req.UserID,
		Type:      req.Type,
		Amount:    req.Amount,
		DueDate:   req.DueDate,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	s.logger.Info("Payment created",
		zap.String("payment_id", payment.ID),
		zap.String("flat_id", payment.FlatID),
		zap.Int("amount", payment.Amount),
	)
	return payment, nil
}

// MarkPaidRequest 销账请求
type MarkPaidRequest struct {
	PaymentID string
	Method    string // upi / card / cash ...
}

func (s *paymentService) MarkPaid(ctx context.Context, req MarkPaidRequest) error {
	if req.PaymentID == "" {
		return fmt.Errorf("missing payment id")
	}
	return s.payments.Patch(ctx, req.PaymentID, recordstore.Record{
		"status":        domain.PaymentStatusPaid,
		"paidDate":      time.Now().UTC().Format("2006-01-02"),
		"paymentMethod": req.Method,
	})
}

func (s *paymentService) ListPayments(ctx context.Context, societyID, flatID string) ([]*domain.Payment, error) {
	if societyID == "" {
		return nil, fmt.Errorf("missing society id")
	}
	return s.payments.ListBySociety(ctx, societyID, flatID)
}
