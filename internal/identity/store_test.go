package identity

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
	"societyhub-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingStore 统计 profiles 集合的读取次数（验证同主体去重）
type countingStore struct {
	recordstore.Store
	profileGets atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, collection, id string) (recordstore.Record, error) {
	if collection == "profiles" {
		c.profileGets.Add(1)
	}
	return c.Store.Get(ctx, collection, id)
}

// stuckProvider 永不返回会话的认证桩（验证看门狗）
type stuckProvider struct {
	mu        sync.Mutex
	callbacks []authn.SessionChangeFunc
}

func (p *stuckProvider) SignIn(ctx context.Context, email, secret string) (string, error) {
	return "", authn.ErrInvalidCredential
}
func (p *stuckProvider) SignUp(ctx context.Context, email, secret string) (string, error) {
	return "", authn.ErrInvalidCredential
}
func (p *stuckProvider) SignOut(ctx context.Context) error { return nil }
func (p *stuckProvider) CurrentSubject(ctx context.Context) (string, error) {
	time.Sleep(10 * time.Second) // 后端永不响应
	return "", nil
}
func (p *stuckProvider) OnSessionChange(fn authn.SessionChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

type storeFixture struct {
	auth     *authn.LocalProvider
	counting *countingStore
	store    *Store
}

func newStoreFixture(t *testing.T, watchdog time.Duration) *storeFixture {
	counting := &countingStore{Store: recordstore.NewMemory()}
	auth := authn.NewLocalProvider(store.NewMemoryKV(), time.Hour, zap.NewNop())
	resolver := NewResolver(auth, repository.NewProfilesRepository(counting),
		repository.NewSocietiesRepository(counting), zap.NewNop())
	return &storeFixture{
		auth:     auth,
		counting: counting,
		store:    NewStore(auth, resolver, watchdog, zap.NewNop()),
	}
}

// settle 等待初始探测收尾，避免探测 goroutine 与后续动作交错
func settle(t *testing.T, s *Store) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return !snap.Loading && snap.State != StateUninitialized
	}, time.Second, 5*time.Millisecond)
}

func TestStoreInitNoSession(t *testing.T) {
	f := newStoreFixture(t, time.Second)
	f.store.Init(context.Background())

	require.Eventually(t, func() bool {
		return f.store.Snapshot().State == StateUnauthenticated
	}, time.Second, 10*time.Millisecond)

	snap := f.store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Current)
	assert.NoError(t, snap.LastError)
}

// TestStoreWatchdog 后端永不响应时，loading 必须在看门狗时限内归 false 并记录超时错误
func TestStoreWatchdog(t *testing.T) {
	resolver := NewResolver(&stuckProvider{}, repository.NewProfilesRepository(recordstore.NewMemory()),
		repository.NewSocietiesRepository(recordstore.NewMemory()), zap.NewNop())
	s := NewStore(&stuckProvider{}, resolver, 50*time.Millisecond, zap.NewNop())
	s.Init(context.Background())

	require.Eventually(t, func() bool {
		return !s.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, StateFailed, snap.State)
	assert.ErrorIs(t, snap.LastError, ErrTimeout)
}

func TestStoreSignInFlow(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)
	f.store.Init(ctx)
	settle(t, f.store)

	// 准备账号 + 档案
	subject, err := f.auth.SignUp(ctx, "tenant@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, f.counting.Insert(ctx, "profiles", recordstore.Record{
		"id": subject, "email": "tenant@x.com", "role": "tenant",
		"societyId": "S1", "flatIds": []string{}, "status": "active",
	}))
	require.NoError(t, f.auth.SignOut(ctx))

	profile, err := f.store.SignIn(ctx, "tenant@x.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, subject, profile.ID)

	snap := f.store.Snapshot()
	assert.Equal(t, StateResolved, snap.State)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Current)
	assert.Equal(t, subject, snap.Current.ID)
}

func TestStoreSignInFailureSetsPassiveError(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)
	f.store.Init(ctx)
	settle(t, f.store)

	_, err := f.store.SignIn(ctx, "nobody@x.com", "bad")
	require.ErrorIs(t, err, ErrInvalidCredential)

	snap := f.store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, StateFailed, snap.State)
	assert.ErrorIs(t, snap.LastError, ErrInvalidCredential)
}

// TestStoreExternalSessionDedupe 同主体的重复会话变更最多产生一次档案读取
func TestStoreExternalSessionDedupe(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)

	subject := "subject-1"
	require.NoError(t, f.counting.Insert(ctx, "profiles", recordstore.Record{
		"id": subject, "email": "t@x.com", "role": "tenant",
		"societyId": "S1", "flatIds": []string{}, "status": "active",
	}))

	f.store.Init(ctx)
	require.Eventually(t, func() bool {
		return !f.store.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	before := f.counting.profileGets.Load()
	f.store.HandleExternalSession(subject)
	require.Eventually(t, func() bool {
		return f.store.Snapshot().State == StateResolved
	}, time.Second, 5*time.Millisecond)

	// 第二次同主体变更：no-op，不再取数
	f.store.HandleExternalSession(subject)
	f.store.HandleExternalSession(subject)

	assert.Equal(t, before+1, f.counting.profileGets.Load())
}

func TestStoreExternalSessionEndsSession(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)

	subject := "subject-2"
	require.NoError(t, f.counting.Insert(ctx, "profiles", recordstore.Record{
		"id": subject, "email": "t2@x.com", "role": "owner",
		"societyId": "S1", "flatIds": []string{}, "status": "active",
	}))

	f.store.Init(ctx)
	f.store.HandleExternalSession(subject)
	require.Eventually(t, func() bool {
		return f.store.Snapshot().State == StateResolved
	}, time.Second, 5*time.Millisecond)

	// 外部报告无主体 -> Unauthenticated
	f.store.HandleExternalSession("")
	snap := f.store.Snapshot()
	assert.Equal(t, StateUnauthenticated, snap.State)
	assert.Nil(t, snap.Current)
	assert.False(t, snap.Loading)
}

// TestStoreForceRefresh 去重的显式逃生口：同主体也强制重新取数
func TestStoreForceRefresh(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)
	f.store.Init(ctx)
	settle(t, f.store)

	subject, err := f.auth.SignUp(ctx, "owner@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, f.counting.Insert(ctx, "profiles", recordstore.Record{
		"id": subject, "email": "owner@x.com", "role": "owner", "name": "Before",
		"societyId": "S1", "flatIds": []string{}, "status": "active",
	}))

	_, err = f.store.SignIn(ctx, "owner@x.com", "pw")
	require.NoError(t, err)

	// 外部直接改档案（绕过本进程）
	require.NoError(t, f.counting.Update(ctx, "profiles", subject, recordstore.Record{"name": "After"}))

	require.NoError(t, f.store.ForceRefresh(ctx))
	snap := f.store.Snapshot()
	require.NotNil(t, snap.Current)
	assert.Equal(t, "After", snap.Current.Name)
}

func TestStoreSubscribe(t *testing.T) {
	ctx := context.Background()
	f := newStoreFixture(t, time.Second)
	ch := f.store.Subscribe()

	f.store.Init(ctx)

	select {
	case snap := <-ch:
		// 第一条通知来自探测收尾（无会话）或看门狗
		assert.NotEqual(t, StateUninitialized, snap.State)
	case <-time.After(time.Second):
		t.Fatal("no snapshot published")
	}
}
