package authn

import (
	"context"
	"testing"
	"time"

	"societyhub-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLocalProvider() *LocalProvider {
	return NewLocalProvider(store.NewMemoryKV(), time.Hour, zap.NewNop())
}

func TestLocalProviderSignUpSignIn(t *testing.T) {
	ctx := context.Background()
	p := newLocalProvider()

	subject, err := p.SignUp(ctx, "Admin@Example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, subject)

	// 注册即建立会话
	current, err := p.CurrentSubject(ctx)
	require.NoError(t, err)
	assert.Equal(t, subject, current)

	// email 比对忽略大小写和空白
	again, err := p.SignIn(ctx, " admin@example.com ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, subject, again)

	// 密码错误
	_, err = p.SignIn(ctx, "admin@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredential)

	// 未注册账号
	_, err = p.SignIn(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLocalProviderDuplicateSignUp(t *testing.T) {
	ctx := context.Background()
	p := newLocalProvider()

	_, err := p.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	_, err = p.SignUp(ctx, "A@x.com", "pw2")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLocalProviderSignOutAndCallbacks(t *testing.T) {
	ctx := context.Background()
	p := newLocalProvider()

	var events []string
	p.OnSessionChange(func(subjectID string) { events = append(events, subjectID) })

	subject, err := p.SignUp(ctx, "a@x.com", "pw")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))

	current, err := p.CurrentSubject(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	// 注册触发一次（subject），登出触发一次（空串）
	require.Len(t, events, 2)
	assert.Equal(t, subject, events[0])
	assert.Empty(t, events[1])
}
