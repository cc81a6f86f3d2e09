package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Resolver 会话解析器：把认证事件解析为用户档案
// 登录：认证 -> 按主体 id 取唯一档案行
// 注册：先建凭证，再按"档案优先"顺序建档案/小区（saga，步骤幂等可重试）
type Resolver struct {
	auth      authn.Provider
	profiles  *repository.ProfilesRepository
	societies *repository.SocietiesRepository
	logger    *zap.Logger
}

func NewResolver(
	auth authn.Provider,
	profiles *repository.ProfilesRepository,
	societies *repository.SocietiesRepository,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		auth:      auth,
		profiles:  profiles,
		societies: societies,
		logger:    logger,
	}
}

// SignUpDraft 注册时调用方提供的档案草稿
type SignUpDraft struct {
	Name        string
	Phone       string
	Role        domain.Role
	SocietyID   string   // 加入已有小区
	SocietyName string   // Role=admin 时新建小区
	FlatIDs     []string
}

// SignIn 登录：认证凭证后取档案
// 认证成功但档案缺失 -> ErrProfileNotFound（注册数据损坏，绝不静默补建）
func (r *Resolver) SignIn(ctx context.Context, email, secret string) (*domain.Profile, error) {
	subjectID, err := r.auth.SignIn(ctx, email, secret)
	if err != nil {
		if errors.Is(err, authn.ErrInvalidCredential) {
			return nil, ErrInvalidCredential
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	r.logger.Info("Sign in authenticated", zap.String("subject_id", subjectID))
	return r.ResolveSubject(ctx, subjectID)
}

// ResolveSubject 按认证主体 id 取唯一档案行
func (r *Resolver) ResolveSubject(ctx context.Context, subjectID string) (*domain.Profile, error) {
	profile, err := r.profiles.Get(ctx, subjectID)
	if errors.Is(err, recordstore.ErrNotFound) {
		r.logger.Error("Profile row missing for authenticated subject",
			zap.String("subject_id", subjectID),
		)
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve subject %s: %w", subjectID, err)
	}
	return profile, nil
}

// SignUp 注册 saga：
// 1. 建认证凭证（email 已占用 -> ErrDuplicateIdentity）
// 2. 档案优先：先插入档案行（已存在视同成功，保证重试安全）
//    —— 档案行必须先于任何从属对象存在，这样后续步骤失败后用户仍能登录
// 3. Role=admin 且带小区名：建小区行，再把档案 societyId 指过去
//    本步失败返回 *SocietySetupError，绝不回滚已创建的档案
func (r *Resolver) SignUp(ctx context.Context, email, secret string, draft SignUpDraft) (*domain.Profile, error) {
	subjectID, err := r.auth.SignUp(ctx, email, secret)
	if err != nil {
		if errors.Is(err, authn.ErrEmailTaken) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}

	role := draft.Role
	if role == "" {
		role = domain.RoleTenant
	}

	now := time.Now().UTC()
	profile := &domain.Profile{
		ID:        subjectID,
		Email:     email,
		Name:      draft.Name,
		Phone:     draft.Phone,
		Role:      role,
		SocietyID: draft.SocietyID,
		FlatIDs:   draft.FlatIDs,
		Status:    domain.ProfileStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if profile.FlatIDs == nil {
		profile.FlatIDs = []string{}
	}

	r.logger.Info("Creating profile for new subject",
		zap.String("subject_id", subjectID),
		zap.String("role", string(role)),
	)
	if err := r.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, recordstore.ErrConflict) {
			// 重试路径：档案已在，读回即可
			existing, getErr := r.profiles.Get(ctx, subjectID)
			if getErr != nil {
				return nil, fmt.Errorf("sign up retry: %w", getErr)
			}
			profile = existing
		} else {
			return nil, fmt.Errorf("create profile: %w", err)
		}
	}

	if role == domain.RoleAdmin && draft.SocietyName != "" {
		society, err := r.createSociety(ctx, draft.SocietyName, email, draft.Phone)
		if err != nil {
			return profile, &SocietySetupError{ProfileID: profile.ID, Err: err}
		}
		if err := r.profiles.Patch(ctx, profile.ID, recordstore.Record{"societyId": society.ID}); err != nil {
			return profile, &SocietySetupError{ProfileID: profile.ID, Err: err}
		}
		profile.SocietyID = society.ID
		r.logger.Info("Society created and linked to admin",
			zap.String("society_id", society.ID),
			zap.String("profile_id", profile.ID),
		)
	}

	return profile, nil
}

func (r *Resolver) createSociety(ctx context.Context, name, contactEmail, contactPhone string) (*domain.Society, error) {
	now := time.Now().UTC()
	society := &domain.Society{
		ID:           uuid.NewString(),
		Name:         name,
		ContactEmail: contactEmail,
		ContactPhone: contactPhone,
		Settings: domain.SocietySettings{
			MaintenanceDay:          5,
			VisitorApprovalRequired: true,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.societies.Create(ctx, society); err != nil {
		return nil, fmt.Errorf("create society: %w", err)
	}
	return society, nil
}
