package identity

import (
	"errors"
	"fmt"
)

// 会话解析 / 档案绑定的错误分类
// Resolver 永不吞错：统一返回以下类型，由调用方决定用户提示
var (
	// ErrInvalidCredential 认证被拒绝（"密码错误"一类，可重试）
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrProfileNotFound 认证成功但档案行缺失：注册数据损坏，绝不自动补建
	ErrProfileNotFound = errors.New("profile record not found")
	// ErrDuplicateIdentity 直接注册时 email 已对应一个档案（硬错误；
	// occupancy.Coordinator 的 LinkExistingOrNewUser 会把同样情形当作"改为关联"处理）
	ErrDuplicateIdentity = errors.New("duplicate identity")
	// ErrTimeout 初始会话探测看门狗超时
	ErrTimeout = errors.New("session probe timed out")
)

// SocietySetupError 注册后建小区步骤失败
// 档案已创建成功且保持有效（用户之后仍可登录），只有小区关联需要补救
type SocietySetupError struct {
	ProfileID string
	Err       error
}

func (e *SocietySetupError) Error() string {
	return fmt.Sprintf("society setup failed for profile %s: %v", e.ProfileID, e.Err)
}

func (e *SocietySetupError) Unwrap() error { return e.Err }
