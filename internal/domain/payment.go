package domain

import "time"

// PaymentStatus 缴费状态
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusOverdue = "overdue"
)

// PaymentType 缴费类型
const (
	PaymentTypeRent        = "rent"
	PaymentTypeMaintenance = "maintenance"
	PaymentTypeWater       = "water"
	PaymentTypeElectricity = "electricity"
	PaymentTypeOther       = "other"
)

// Payment 缴费记录领域模型（对应 payments 集合）
// 纯 CRUD 实体，无跨实体约束（仅按 SocietyID 隔离）
type Payment struct {
	ID        string     `json:"id"`
	SocietyID string     `json:"societyId"`
	FlatID    string     `json:"flatId"`
	UserID    string     `json:"userId"`
	Type      string     `json:"type"`
	Amount    int        `json:"amount"`
	DueDate   string     `json:"dueDate"`
	PaidDate  string     `json:"paidDate,omitempty"`
	Status    string     `json:"status"`
	Method    string     `json:"paymentMethod,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
