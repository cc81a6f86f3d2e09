package domain

import "time"

// Role 用户角色
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleTenant   Role = "tenant"
	RoleSecurity Role = "security"
	RoleStaff    Role = "staff"
)

// ProfileStatus 档案状态
const (
	ProfileStatusActive   = "active"
	ProfileStatusInactive = "inactive"
)

// EmergencyContact 紧急联系人（可选）
type EmergencyContact struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
}

// Profile 用户档案领域模型（对应 profiles 集合）
// 将认证主体（subject id）绑定到角色和小区归属
// 约束：FlatIDs 只能引用与本档案同一 SocietyID 的房屋
type Profile struct {
	ID        string            `json:"id"`        // 认证主体 id（auth subject）
	Email     string            `json:"email"`     // 唯一
	Name      string            `json:"name"`
	Phone     string            `json:"phone"`
	Role      Role              `json:"role"`      // admin/owner/tenant/security/staff
	SocietyID string            `json:"societyId"` // 所属小区（单一）
	FlatIDs   []string          `json:"flatIds"`   // 占用的房屋集合（无序）
	Status    string            `json:"status"`    // active/inactive
	Emergency *EmergencyContact `json:"emergencyContact,omitempty"`
	MoveInDate string           `json:"moveInDate,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// HasFlat 判断档案是否已关联指定房屋
func (p *Profile) HasFlat(flatID string) bool {
	for _, id := range p.FlatIDs {
		if id == flatID {
			return true
		}
	}
	return false
}

// IsActive 判断档案是否处于激活状态
func (p *Profile) IsActive() bool {
	return p.Status == ProfileStatusActive
}
