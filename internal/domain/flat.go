package domain

import "time"

// OccupancyStatus 房屋占用状态
type OccupancyStatus string

const (
	OccupancyVacant        OccupancyStatus = "vacant"
	OccupancyOwnerOccupied OccupancyStatus = "owner-occupied"
	OccupancyRented        OccupancyStatus = "rented"
)

// Capacity 居住身份（业主 / 租客）
type Capacity string

const (
	CapacityOwner  Capacity = "owner"
	CapacityTenant Capacity = "tenant"
)

// Flat 房屋领域模型（对应 flats 集合）
// 约束：
// - OccupancyStatus 只允许由 occupancy.Coordinator 修改
// - vacant 时不允许任何激活档案把本房屋列为当前 membership
//   （OwnerID 可以保留，业主可以持有空置房屋作为计费主体）
// - rented 时 CurrentTenantID 指向的租客档案必须反向引用本房屋
// - owner-occupied 时 OwnerID 指向的业主档案必须反向引用本房屋
type Flat struct {
	ID              string          `json:"id"`
	SocietyID       string          `json:"societyId"`
	BuildingID      string          `json:"buildingId,omitempty"`
	FlatNumber      string          `json:"flatNumber"`
	Floor           int             `json:"floor"`
	BHKType         string          `json:"bhkType,omitempty"` // 户型，如 "2BHK"
	Area            int             `json:"area,omitempty"`    // 面积（平方英尺）
	OwnerID         string          `json:"ownerId,omitempty"`
	CurrentTenantID string          `json:"currentTenantId,omitempty"`
	OccupancyStatus OccupancyStatus `json:"occupancyStatus"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OccupantRef 返回指定身份在房屋侧的引用
func (f *Flat) OccupantRef(capacity Capacity) string {
	if capacity == CapacityOwner {
		return f.OwnerID
	}
	return f.CurrentTenantID
}
