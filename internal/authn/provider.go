package authn

import (
	"context"
	"errors"
)

// 消费侧认证接口（外部协作方）
// 实现负责凭证校验与会话保持；用户档案与角色归属不在本层

var (
	// ErrInvalidCredential 凭证被拒绝（密码错误 / 账号不存在）
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrEmailTaken 注册时 email 已被占用
	ErrEmailTaken = errors.New("email already registered")
)

// SessionChangeFunc 会话变更回调；subjectID 为空表示会话结束
type SessionChangeFunc func(subjectID string)

// Provider 认证提供方
type Provider interface {
	// SignIn 校验凭证并建立会话，返回认证主体 id
	SignIn(ctx context.Context, email, secret string) (string, error)
	// SignUp 创建凭证并建立会话，返回新主体 id；email 已占用时返回 ErrEmailTaken
	SignUp(ctx context.Context, email, secret string) (string, error)
	// SignOut 结束当前会话
	SignOut(ctx context.Context) error
	// CurrentSubject 返回当前会话的主体 id；无会话时返回空串（不报错）
	CurrentSubject(ctx context.Context) (string, error)
	// OnSessionChange 注册会话变更回调（登录、登出、外部刷新都会触发）
	OnSessionChange(fn SessionChangeFunc)
}
