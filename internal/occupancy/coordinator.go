// Package occupancy 房屋占用协调器
//
// 所有改变"谁住在哪套房"的操作都必须同时更新 membership 边的两侧：
// Profile.flatIds 与 Flat.ownerId/currentTenantId/occupancyStatus。
// 两侧写入底层不提供事务，发生单侧失败时必须以 *PartialWriteError
// 明确上报，绝不静默丢弃一侧。occupancyStatus 只允许本包修改。
package occupancy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
)

// FlatRef 房屋定位：优先按 FlatID，否则按（小区, 门牌号）查找，
// 查不到则自动补建最小房屋记录（住户常先于房屋台账录入）
type FlatRef struct {
	FlatID     string
	SocietyID  string
	FlatNumber string
	Floor      int
	BHKType    string
}

// Coordinator 占用协调器；membership 边双侧写入的唯一入口
type Coordinator struct {
	flats    *repository.FlatsRepository
	profiles *repository.ProfilesRepository
	resolver *identity.Resolver
	logger   *zap.Logger
}

func NewCoordinator(
	flats *repository.FlatsRepository,
	profiles *repository.ProfilesRepository,
	resolver *identity.Resolver,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		flats:    flats,
		profiles: profiles,
		resolver: resolver,
		logger:   logger,
	}
}

// AssignResident 把档案安置到房屋（换房语义：旧 membership 被替换）
// 持有多套房屋时换房目标不可推断，返回 ErrAmbiguousTarget，
// 调用方应先 ReleaseResident 指明旧房，或改用 LinkExistingOrNewUser 并集挂接。
// 写入顺序：清旧房 -> 新房侧 -> 档案侧；任一侧失败以 *PartialWriteError 上报
func (c *Coordinator) AssignResident(ctx context.Context, ref FlatRef, profileID string, capacity domain.Capacity) (*domain.Flat, error) {
	profile, err := c.profiles.Get(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("assign resident: %w", err)
	}
	if len(profile.FlatIDs) > 1 {
		return nil, ErrAmbiguousTarget
	}

	flat, err := c.resolveFlat(ctx, ref, profile.SocietyID)
	if err != nil {
		return nil, err
	}
	if profile.SocietyID != "" && flat.SocietyID != profile.SocietyID {
		return nil, ErrCrossSociety
	}

	// 换房：先清旧房（仅当旧房没有其他激活住户时才回落 vacant）
	for _, oldID := range profile.FlatIDs {
		if oldID == flat.ID {
			continue
		}
		oldFlat, err := c.flats.Get(ctx, oldID)
		if errors.Is(err, recordstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("assign resident: load old flat %s: %w", oldID, err)
		}
		if err := c.detachFlatSide(ctx, oldFlat, profile); err != nil {
			return nil, err
		}
	}

	if err := c.attach(ctx, flat, profile, capacity, true); err != nil {
		return nil, err
	}

	c.logger.Info("Resident assigned",
		zap.String("profile_id", profile.ID),
		zap.String("flat_id", flat.ID),
		zap.String("capacity", string(capacity)),
	)
	return c.flats.Get(ctx, flat.ID)
}

// ReleaseResident 解除档案与房屋的 membership
// flatID 为空时只允许从唯一 membership 推断；多于一个时返回 ErrAmbiguousTarget，
// 协调器不做猜测
func (c *Coordinator) ReleaseResident(ctx context.Context, profileID, flatID string) error {
	profile, err := c.profiles.Get(ctx, profileID)
	if err != nil {
		return fmt.Errorf("release resident: %w", err)
	}

	if flatID == "" {
		switch len(profile.FlatIDs) {
		case 0:
			return nil
		case 1:
			flatID = profile.FlatIDs[0]
		default:
			return ErrAmbiguousTarget
		}
	}
	if !profile.HasFlat(flatID) {
		return nil // 已不持有，释放幂等
	}

	flat, err := c.flats.Get(ctx, flatID)
	if err != nil && !errors.Is(err, recordstore.ErrNotFound) {
		return fmt.Errorf("release resident: %w", err)
	}
	if flat != nil {
		if err := c.detachFlatSide(ctx, flat, profile); err != nil {
			return err
		}
	}

	if err := c.profiles.Patch(ctx, profile.ID, recordstore.Record{
		"flatIds": without(profile.FlatIDs, flatID),
	}); err != nil {
		return &PartialWriteError{Side: "profile", FlatID: flatID, ProfileID: profile.ID, Err: err}
	}

	c.logger.Info("Resident released",
		zap.String("profile_id", profile.ID),
		zap.String("flat_id", flatID),
	)
	return nil
}

// LinkExistingOrNewUser 给用户授予房屋访问权
// email 已有档案时就地更新（membership 取并集，绝不建重复身份）；
// 没有档案时先走注册 saga 建身份，再挂接
func (c *Coordinator) LinkExistingOrNewUser(ctx context.Context, email string, ref FlatRef, capacity domain.Capacity, draft identity.SignUpDraft) (*domain.Profile, error) {
	profile, err := c.profiles.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, recordstore.ErrNotFound) {
		return nil, fmt.Errorf("link user: %w", err)
	}

	if profile == nil {
		// 新身份：临时凭证注册，首次登录后由用户自行改密
		if draft.Role == "" {
			if capacity == domain.CapacityOwner {
				draft.Role = domain.RoleOwner
			} else {
				draft.Role = domain.RoleTenant
			}
		}
		if draft.SocietyID == "" {
			draft.SocietyID = ref.SocietyID
		}
		profile, err = c.resolver.SignUp(ctx, email, uuid.NewString(), draft)
		if err != nil {
			return nil, fmt.Errorf("link user: create identity: %w", err)
		}
		c.logger.Info("New identity created for flat link",
			zap.String("profile_id", profile.ID),
			zap.String("email", email),
		)
	}

	flat, err := c.resolveFlat(ctx, ref, profile.SocietyID)
	if err != nil {
		return nil, err
	}
	if profile.SocietyID != "" && flat.SocietyID != profile.SocietyID {
		return nil, ErrCrossSociety
	}

	if err := c.attach(ctx, flat, profile, capacity, false); err != nil {
		return nil, err
	}
	return c.profiles.Get(ctx, profile.ID)
}

// DeactivateProfile 软退役档案：inactive 蕴含释放其全部 membership
func (c *Coordinator) DeactivateProfile(ctx context.Context, profileID string) error {
	profile, err := c.profiles.Get(ctx, profileID)
	if err != nil {
		return fmt.Errorf("deactivate profile: %w", err)
	}

	for _, flatID := range profile.FlatIDs {
		flat, err := c.flats.Get(ctx, flatID)
		if errors.Is(err, recordstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("deactivate profile: %w", err)
		}
		if err := c.detachFlatSide(ctx, flat, profile); err != nil {
			return err
		}
	}

	if err := c.profiles.Patch(ctx, profile.ID, recordstore.Record{
		"status":  string(domain.ProfileStatusInactive),
		"flatIds": []string{},
	}); err != nil {
		return &PartialWriteError{Side: "profile", ProfileID: profile.ID, Err: err}
	}

	c.logger.Info("Profile deactivated", zap.String("profile_id", profile.ID))
	return nil
}

// resolveFlat 按 FlatRef 定位房屋；（小区, 门牌号）查不到时补建最小记录
func (c *Coordinator) resolveFlat(ctx context.Context, ref FlatRef, fallbackSocietyID string) (*domain.Flat, error) {
	if ref.FlatID != "" {
		flat, err := c.flats.Get(ctx, ref.FlatID)
		if err != nil {
			return nil, fmt.Errorf("resolve flat: %w", err)
		}
		return flat, nil
	}

	societyID := ref.SocietyID
	if societyID == "" {
		societyID = fallbackSocietyID
	}
	if societyID == "" || ref.FlatNumber == "" {
		return nil, fmt.Errorf("resolve flat: society id and flat number required: %w", recordstore.ErrNotFound)
	}

	flat, err := c.flats.FindBySocietyAndNumber(ctx, societyID, ref.FlatNumber)
	if err == nil {
		return flat, nil
	}
	if !errors.Is(err, recordstore.ErrNotFound) {
		return nil, fmt.Errorf("resolve flat: %w", err)
	}

	now := time.Now().UTC()
	flat = &domain.Flat{
		ID:              uuid.NewString(),
		SocietyID:       societyID,
		FlatNumber:      ref.FlatNumber,
		Floor:           ref.Floor,
		BHKType:         ref.BHKType,
		OccupancyStatus: domain.OccupancyVacant,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.flats.Create(ctx, flat); err != nil {
		if errors.Is(err, recordstore.ErrConflict) {
			return c.flats.FindBySocietyAndNumber(ctx, societyID, ref.FlatNumber)
		}
		return nil, fmt.Errorf("auto-provision flat: %w", err)
	}
	c.logger.Info("Flat auto-provisioned on first assignment",
		zap.String("flat_id", flat.ID),
		zap.String("society_id", societyID),
		zap.String("flat_number", ref.FlatNumber),
	)
	return flat, nil
}

// attach 建立 membership 边：先写房屋侧，再写档案侧
// replace=true 为换房语义（档案只保留本房屋），false 为并集挂接
func (c *Coordinator) attach(ctx context.Context, flat *domain.Flat, profile *domain.Profile, capacity domain.Capacity, replace bool) error {
	flatFields := recordstore.Record{}
	if capacity == domain.CapacityOwner {
		flatFields["ownerId"] = profile.ID
		if flat.CurrentTenantID != "" && flat.CurrentTenantID != profile.ID {
			flatFields["occupancyStatus"] = string(domain.OccupancyRented)
		} else {
			flatFields["occupancyStatus"] = string(domain.OccupancyOwnerOccupied)
		}
	} else {
		flatFields["currentTenantId"] = profile.ID
		flatFields["occupancyStatus"] = string(domain.OccupancyRented)
	}
	if err := c.flats.Patch(ctx, flat.ID, flatFields); err != nil {
		return &PartialWriteError{Side: "flat", FlatID: flat.ID, ProfileID: profile.ID, Err: err}
	}

	profileFields := recordstore.Record{}
	if replace {
		profileFields["flatIds"] = []string{flat.ID}
	} else if !profile.HasFlat(flat.ID) {
		profileFields["flatIds"] = append(append([]string{}, profile.FlatIDs...), flat.ID)
	}
	if profile.SocietyID == "" {
		profileFields["societyId"] = flat.SocietyID
	}
	if len(profileFields) == 0 {
		return nil
	}
	if err := c.profiles.Patch(ctx, profile.ID, profileFields); err != nil {
		// 房屋侧已写成功，此处失败必须可辨认
		return &PartialWriteError{Side: "profile", FlatID: flat.ID, ProfileID: profile.ID, Err: err}
	}
	return nil
}

// detachFlatSide 把档案从房屋侧摘除
// 只有当没有其他激活住户仍引用该房屋时才回落 vacant，否则状态保持，
// 仅修正指向本人的引用字段
func (c *Coordinator) detachFlatSide(ctx context.Context, flat *domain.Flat, profile *domain.Profile) error {
	holders, err := c.profiles.ListByFlat(ctx, flat.ID)
	if err != nil {
		return fmt.Errorf("list flat holders: %w", err)
	}
	remaining := make([]*domain.Profile, 0, len(holders))
	for _, h := range holders {
		if h.ID != profile.ID && h.IsActive() {
			remaining = append(remaining, h)
		}
	}

	fields := recordstore.Record{}
	if len(remaining) == 0 {
		fields["occupancyStatus"] = string(domain.OccupancyVacant)
		if flat.OwnerID == profile.ID {
			fields["ownerId"] = ""
		}
		if flat.CurrentTenantID == profile.ID {
			fields["currentTenantId"] = ""
		}
	} else {
		if flat.CurrentTenantID == profile.ID {
			if next := firstWithRole(remaining, domain.RoleTenant); next != nil {
				fields["currentTenantId"] = next.ID
			} else {
				fields["currentTenantId"] = ""
				if firstWithRole(remaining, domain.RoleOwner) != nil {
					fields["occupancyStatus"] = string(domain.OccupancyOwnerOccupied)
				}
			}
		}
		if flat.OwnerID == profile.ID {
			fields["ownerId"] = ""
		}
	}
	if len(fields) == 0 {
		return nil
	}
	if err := c.flats.Patch(ctx, flat.ID, fields); err != nil {
		return &PartialWriteError{Side: "flat", FlatID: flat.ID, ProfileID: profile.ID, Err: err}
	}
	return nil
}

func firstWithRole(profiles []*domain.Profile, role domain.Role) *domain.Profile {
	for _, p := range profiles {
		if p.Role == role {
			return p
		}
	}
	return nil
}

func without(ids []string, drop string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
