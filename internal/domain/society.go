package domain

import "time"

// Address 小区地址
type Address struct {
	Street  string `json:"street"`
	Area    string `json:"area"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// SocietySettings 小区配置
type SocietySettings struct {
	MaintenanceDay          int  `json:"maintenanceDay"`
	LatePaymentPenalty      int  `json:"latePaymentPenalty"`
	VisitorApprovalRequired bool `json:"visitorApprovalRequired"`
}

// Society 小区领域模型（对应 societies 集合）
// 租户边界：所有其它实体都通过 SocietyID 引用且只引用一个小区
type Society struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Address        Address         `json:"address"`
	TotalFlats     int             `json:"totalFlats"`
	TotalBuildings int             `json:"totalBuildings"`
	ContactEmail   string          `json:"contactEmail"`
	ContactPhone   string          `json:"contactPhone"`
	Amenities      []string        `json:"amenities,omitempty"`
	Settings       SocietySettings `json:"settings"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
