package identity

import (
	"context"
	"sync"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/domain"

	"go.uber.org/zap"
)

// State 身份存储状态机
// Uninitialized -> Loading -> {Resolved, Unauthenticated, Failed}
// Resolved 只在显式登录/注册或真正出现新主体 id 时回到 Loading
type State string

const (
	StateUninitialized   State = "uninitialized"
	StateLoading         State = "loading"
	StateResolved        State = "resolved"
	StateUnauthenticated State = "unauthenticated"
	StateFailed          State = "failed"
)

// Snapshot 对外只读视图
type Snapshot struct {
	State     State
	Current   *domain.Profile
	Loading   bool
	LastError error
}

// Store 进程级身份状态容器（单写者）
// 显式注入给调用方使用，不做包级单例；订阅通过通道通知
// 唯一允许把错误转成被动状态（LastError）的组件——其余组件一律向上抛
type Store struct {
	auth     authn.Provider
	resolver *Resolver
	watchdog time.Duration
	logger   *zap.Logger

	mu          sync.Mutex
	state       State
	current     *domain.Profile
	loading     bool
	lastErr     error
	actionBusy  bool   // 显式登录/注册进行中：会话回调让位于动作结果
	pendingSub  string // 回调解析进行中的主体 id，防止同主体重复取数
	initialized bool

	subscribers []chan Snapshot
}

func NewStore(auth authn.Provider, resolver *Resolver, watchdog time.Duration, logger *zap.Logger) *Store {
	return &Store{
		auth:     auth,
		resolver: resolver,
		watchdog: watchdog,
		logger:   logger,
		state:    StateUninitialized,
	}
}

// Init 启动：注册会话变更订阅 + 执行一次初始会话探测
// 探测与订阅回调对同一主体的结果互为幂等：先到先得，后到的同主体结果被丢弃
// 看门狗保证 loading 在 watchdog 时限内必然归 false（超时记 ErrTimeout）
func (s *Store) Init(ctx context.Context) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.state = StateLoading
	s.loading = true
	s.mu.Unlock()

	s.auth.OnSessionChange(s.HandleExternalSession)

	// 看门狗：后端不响应时强制结束 loading，绝不让 UI 永久挂起
	time.AfterFunc(s.watchdog, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loading {
			return
		}
		s.logger.Warn("Session probe watchdog fired, forcing loading=false",
			zap.Duration("watchdog", s.watchdog),
		)
		s.loading = false
		s.state = StateFailed
		s.lastErr = ErrTimeout
		s.publishLocked()
	})

	go s.probe(ctx)
}

// probe 初始会话探测（进程启动时恰好一次）
func (s *Store) probe(ctx context.Context) {
	subjectID, err := s.auth.CurrentSubject(ctx)
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.loading {
			return // 看门狗或订阅已先行收尾
		}
		s.logger.Error("Initial session probe failed", zap.Error(err))
		s.loading = false
		s.state = StateFailed
		s.lastErr = err
		s.publishLocked()
		return
	}

	if subjectID == "" {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.state == StateResolved {
			return // 订阅已抢先解析出用户，探测的"无会话"结果作废
		}
		s.loading = false
		s.state = StateUnauthenticated
		s.current = nil
		s.publishLocked()
		return
	}

	s.resolveSubject(subjectID)
}

// HandleExternalSession 外部会话变更入口（认证提供方回调 / MQTT 桥接）
// subjectID 为空表示会话结束；与当前主体相同的变更是 no-op（去重是行为要求，不只是优化）
func (s *Store) HandleExternalSession(subjectID string) {
	s.mu.Lock()
	if subjectID == "" {
		s.loading = false
		s.state = StateUnauthenticated
		s.current = nil
		s.lastErr = nil
		s.publishLocked()
		s.mu.Unlock()
		return
	}

	if s.actionBusy {
		// 显式登录/注册动作会自行落地结果，回调此时退让
		s.mu.Unlock()
		return
	}
	if s.current != nil && s.current.ID == subjectID {
		s.mu.Unlock()
		return
	}
	if s.pendingSub == subjectID {
		s.mu.Unlock()
		return
	}
	s.pendingSub = subjectID
	s.loading = true
	s.state = StateLoading
	s.publishLocked()
	s.mu.Unlock()

	s.resolveSubject(subjectID)
}

// resolveSubject 取档案并落地；同主体重复结果被 adopt 去重
func (s *Store) resolveSubject(subjectID string) {
	profile, err := s.resolver.ResolveSubject(context.Background(), subjectID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingSub == subjectID {
		s.pendingSub = ""
	}
	if err != nil {
		s.loading = false
		s.state = StateFailed
		s.lastErr = err
		s.publishLocked()
		return
	}
	s.adoptLocked(profile)
}

// adoptLocked 落地已解析档案；同主体已落地时丢弃（探测 vs 订阅竞态收敛点）
func (s *Store) adoptLocked(profile *domain.Profile) {
	if s.state == StateResolved && s.current != nil && s.current.ID == profile.ID {
		s.loading = false
		return
	}
	s.current = profile
	s.loading = false
	s.state = StateResolved
	s.lastErr = nil
	s.publishLocked()
}

// SignIn 显式登录动作
func (s *Store) SignIn(ctx context.Context, email, secret string) (*domain.Profile, error) {
	s.beginAction()
	profile, err := s.resolver.SignIn(ctx, email, secret)
	s.endAction(profile, err)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SignUp 显式注册动作
// 小区创建步骤失败时档案仍然落地（Resolved），错误同时记入 LastError 并返回
func (s *Store) SignUp(ctx context.Context, email, secret string, draft SignUpDraft) (*domain.Profile, error) {
	s.beginAction()
	profile, err := s.resolver.SignUp(ctx, email, secret, draft)
	s.endAction(profile, err)
	if err != nil {
		return profile, err
	}
	return profile, nil
}

// SignOut 登出：转 Unauthenticated
func (s *Store) SignOut(ctx context.Context) error {
	err := s.auth.SignOut(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.loading = false
	s.state = StateUnauthenticated
	if err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
	}
	s.publishLocked()
	return err
}

// ForceRefresh 绕过同主体去重，强制重新解析当前会话
// （外部档案编辑后的显式刷新出口，见设计决策）
func (s *Store) ForceRefresh(ctx context.Context) error {
	subjectID, err := s.auth.CurrentSubject(ctx)
	if err != nil {
		return err
	}
	if subjectID == "" {
		s.HandleExternalSession("")
		return nil
	}

	profile, err := s.resolver.ResolveSubject(ctx, subjectID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.lastErr = err
		s.publishLocked()
		return err
	}
	s.current = profile
	s.loading = false
	s.state = StateResolved
	s.lastErr = nil
	s.publishLocked()
	return nil
}

func (s *Store) beginAction() {
	s.mu.Lock()
	s.actionBusy = true
	s.loading = true
	s.state = StateLoading
	s.lastErr = nil
	s.publishLocked()
	s.mu.Unlock()
}

// endAction 每条把 loading 置 true 的路径都在这里配对归 false（含错误路径）
func (s *Store) endAction(profile *domain.Profile, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionBusy = false
	if profile != nil {
		s.adoptLocked(profile)
	}
	if err != nil {
		s.loading = false
		s.lastErr = err
		if profile == nil {
			s.state = StateFailed
		}
		s.publishLocked()
	}
}

// Snapshot 当前只读视图
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		State:     s.state,
		Current:   s.current,
		Loading:   s.loading,
		LastError: s.lastErr,
	}
}

// Subscribe 订阅状态变更；通道满时丢弃通知（订阅方随时可用 Snapshot 补偿）
func (s *Store) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 8)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) publishLocked() {
	snapshot := Snapshot{
		State:     s.state,
		Current:   s.current,
		Loading:   s.loading,
		LastError: s.lastErr,
	}
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
