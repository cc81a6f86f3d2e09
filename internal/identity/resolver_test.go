package identity

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
	"societyhub-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type resolverFixture struct {
	auth      *authn.LocalProvider
	records   recordstore.Store
	profiles  *repository.ProfilesRepository
	societies *repository.SocietiesRepository
	resolver  *Resolver
}

func newResolverFixture(records recordstore.Store) *resolverFixture {
	auth := authn.NewLocalProvider(store.NewMemoryKV(), time.Hour, zap.NewNop())
	profiles := repository.NewProfilesRepository(records)
	societies := repository.NewSocietiesRepository(records)
	return &resolverFixture{
		auth:      auth,
		records:   records,
		profiles:  profiles,
		societies: societies,
		resolver:  NewResolver(auth, profiles, societies, zap.NewNop()),
	}
}

func TestSignInInvalidCredential(t *testing.T) {
	f := newResolverFixture(recordstore.NewMemory())
	_, err := f.resolver.SignIn(context.Background(), "nobody@x.com", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

// TestSignInProfileMissing 认证成功但档案行缺失 -> ErrProfileNotFound，绝不补建档案
func TestSignInProfileMissing(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(recordstore.NewMemory())

	// 只建凭证，不建档案（模拟注册中途损坏）
	_, err := f.auth.SignUp(ctx, "broken@x.com", "pw")
	require.NoError(t, err)

	_, err = f.resolver.SignIn(ctx, "broken@x.com", "pw")
	assert.ErrorIs(t, err, ErrProfileNotFound)

	// 确认没有静默补建
	records, err := f.records.List(ctx, "profiles", recordstore.Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(recordstore.NewMemory())

	created, err := f.resolver.SignUp(ctx, "tenant@x.com", "pw", SignUpDraft{
		Name:      "Asha",
		Phone:     "9000000001",
		SocietyID: "S1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleTenant, created.Role) // 默认角色
	assert.Equal(t, domain.ProfileStatusActive, created.Status)

	resolved, err := f.resolver.SignIn(ctx, "tenant@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resolved.ID)
	assert.Equal(t, "S1", resolved.SocietyID)
}

func TestSignUpDuplicateIdentity(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(recordstore.NewMemory())

	_, err := f.resolver.SignUp(ctx, "dup@x.com", "pw", SignUpDraft{})
	require.NoError(t, err)

	// 直接注册路径下重复 email 是硬错误
	_, err = f.resolver.SignUp(ctx, "dup@x.com", "pw2", SignUpDraft{})
	assert.ErrorIs(t, err, ErrDuplicateIdentity)
}

// TestSignUpAdminCreatesSociety 管理员注册场景：
// 小区行被创建，档案 societyId 指向新小区，随后同凭证登录解析出一致的 societyId
func TestSignUpAdminCreatesSociety(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(recordstore.NewMemory())

	admin, err := f.resolver.SignUp(ctx, "admin@x.com", "pw", SignUpDraft{
		Name:        "Ravi",
		Role:        domain.RoleAdmin,
		SocietyName: "Sunshine Apartments",
	})
	require.NoError(t, err)
	require.NotEmpty(t, admin.SocietyID)

	society, err := f.societies.Get(ctx, admin.SocietyID)
	require.NoError(t, err)
	assert.Equal(t, "Sunshine Apartments", society.Name)

	resolved, err := f.resolver.SignIn(ctx, "admin@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, admin.SocietyID, resolved.SocietyID)
}

// failingSocietyStore 小区集合插入失败的存储包装（模拟权限/网络故障）
type failingSocietyStore struct {
	recordstore.Store
}

func (f *failingSocietyStore) Insert(ctx context.Context, collection string, record recordstore.Record) error {
	if collection == "societies" {
		return fmt.Errorf("societies insert rejected")
	}
	return f.Store.Insert(ctx, collection, record)
}

// TestSignUpSocietyFailureKeepsProfile 建小区失败必须以独立错误浮出，
// 但绝不回滚已创建的档案——用户之后仍能用同一凭证登录
func TestSignUpSocietyFailureKeepsProfile(t *testing.T) {
	ctx := context.Background()
	f := newResolverFixture(&failingSocietyStore{Store: recordstore.NewMemory()})

	profile, err := f.resolver.SignUp(ctx, "admin@x.com", "pw", SignUpDraft{
		Role:        domain.RoleAdmin,
		SocietyName: "Sunshine Apartments",
	})
	require.Error(t, err)

	var setupErr *SocietySetupError
	require.True(t, errors.As(err, &setupErr))
	require.NotNil(t, profile)
	assert.Equal(t, profile.ID, setupErr.ProfileID)

	// 档案完好，可以再次登录
	resolved, err := f.resolver.SignIn(ctx, "admin@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, profile.ID, resolved.ID)
	assert.Empty(t, resolved.SocietyID)
}
