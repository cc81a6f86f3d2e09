package domain

import "time"

// ComplaintStatus 投诉状态
const (
	ComplaintStatusOpen       = "open"
	ComplaintStatusInProgress = "in-progress"
	ComplaintStatusResolved   = "resolved"
	ComplaintStatusClosed     = "closed"
)

// ComplaintPriority 投诉优先级
const (
	ComplaintPriorityLow    = "low"
	ComplaintPriorityMedium = "medium"
	ComplaintPriorityHigh   = "high"
)

// Complaint 投诉工单领域模型（对应 complaints 集合）
type Complaint struct {
	ID          string    `json:"id"`
	SocietyID   string    `json:"societyId"`
	FlatID      string    `json:"flatId,omitempty"`
	UserID      string    `json:"userId"`
	Category    string    `json:"category,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	AssignedTo  string    `json:"assignedTo,omitempty"`
	ResolvedAt  string    `json:"resolvedAt,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
