package authn

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"societyhub-data/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const sessionKey = "authn:session:current"

// LocalProvider 内置认证实现：凭证存内存（bcrypt），当前会话主体存 KV
// 用于开发联测和单测；生产环境使用 HTTPProvider 对接托管认证服务
type LocalProvider struct {
	mu          sync.RWMutex
	credentials map[string]localCredential // lower(email) -> credential
	callbacks   []SessionChangeFunc

	kv         store.KV
	sessionTTL time.Duration
	logger     *zap.Logger
}

type localCredential struct {
	SubjectID  string
	SecretHash []byte
}

func NewLocalProvider(kv store.KV, sessionTTL time.Duration, logger *zap.Logger) *LocalProvider {
	return &LocalProvider{
		credentials: map[string]localCredential{},
		kv:          kv,
		sessionTTL:  sessionTTL,
		logger:      logger,
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

func (p *LocalProvider) SignIn(ctx context.Context, email, secret string) (string, error) {
	p.mu.RLock()
	cred, ok := p.credentials[normalizeEmail(email)]
	p.mu.RUnlock()

	if !ok {
		return "", ErrInvalidCredential
	}
	if err := bcrypt.CompareHashAndPassword(cred.SecretHash, []byte(secret)); err != nil {
		return "", ErrInvalidCredential
	}

	if err := p.kv.Set(ctx, sessionKey, cred.SubjectID, p.sessionTTL); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	p.notify(cred.SubjectID)
	return cred.SubjectID, nil
}

func (p *LocalProvider) SignUp(ctx context.Context, email, secret string) (string, error) {
	normalized := normalizeEmail(email)
	if normalized == "" || secret == "" {
		return "", ErrInvalidCredential
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}

	p.mu.Lock()
	if _, exists := p.credentials[normalized]; exists {
		p.mu.Unlock()
		return "", ErrEmailTaken
	}
	subjectID := uuid.NewString()
	p.credentials[normalized] = localCredential{SubjectID: subjectID, SecretHash: hash}
	p.mu.Unlock()

	if err := p.kv.Set(ctx, sessionKey, subjectID, p.sessionTTL); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	p.notify(subjectID)
	return subjectID, nil
}

func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.kv.Delete(ctx, sessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.notify("")
	return nil
}

func (p *LocalProvider) CurrentSubject(ctx context.Context) (string, error) {
	subject, err := p.kv.Get(ctx, sessionKey)
	if err == store.ErrMiss {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return subject, nil
}

func (p *LocalProvider) OnSessionChange(fn SessionChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

func (p *LocalProvider) notify(subjectID string) {
	p.mu.RLock()
	callbacks := make([]SessionChangeFunc, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn(subjectID)
	}
}
