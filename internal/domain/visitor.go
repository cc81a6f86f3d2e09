package domain

import "time"

// VisitorStatus 访客状态
const (
	VisitorStatusPending  = "pending"
	VisitorStatusApproved = "approved"
	VisitorStatusRejected = "rejected"
	VisitorStatusExited   = "exited"
)

// Visitor 访客记录领域模型（对应 visitors 集合）
type Visitor struct {
	ID        string    `json:"id"`
	SocietyID string    `json:"societyId"`
	FlatID    string    `json:"flatId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Purpose   string    `json:"purpose,omitempty"`
	Status    string    `json:"status"`
	EntryTime string    `json:"entryTime,omitempty"`
	ExitTime  string    `json:"exitTime,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
