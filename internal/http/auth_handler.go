package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/routing"

	"go.uber.org/zap"
)

// AuthHandler 认证授权 Handler
type AuthHandler struct {
	store  *identity.Store
	logger *zap.Logger
}

// NewAuthHandler 创建认证授权 Handler
func NewAuthHandler(store *identity.Store, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		store:  store,
		logger: logger,
	}
}

// ServeHTTP 实现 http.Handler 接口
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 路由分发
	switch r.URL.Path {
	case "/api/v1/auth/login":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Login(w, r)
	case "/api/v1/auth/register":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Register(w, r)
	case "/api/v1/auth/logout":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Logout(w, r)
	case "/api/v1/auth/me":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Me(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// Login 用户登录
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		writeJSON(w, http.StatusOK, Fail("missing credentials"))
		return
	}

	profile, err := h.store.SignIn(ctx, email, password)
	if err != nil {
		h.logger.Warn("Login failed", zap.String("email", email), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(authErrorMessage(err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(profileResult(profile, nil)))
}

// Register 注册
// role=admin 且携带 societyName 时会新建小区；小区步骤失败不回滚档案，
// 响应携带 societySetupPending=true 提示后续补救
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload map[string]any
	if err := readBodyJSON(r, 1<<20, &payload); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	email, _ := payload["email"].(string)
	password, _ := payload["password"].(string)
	name, _ := payload["name"].(string)
	phone, _ := payload["phone"].(string)
	role, _ := payload["role"].(string)
	societyID, _ := payload["societyId"].(string)
	societyName, _ := payload["societyName"].(string)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		writeJSON(w, http.StatusOK, Fail("missing credentials"))
		return
	}

	profile, err := h.store.SignUp(ctx, email, password, identity.SignUpDraft{
		Name:        name,
		Phone:       phone,
		Role:        domain.Role(role),
		SocietyID:   societyID,
		SocietyName: societyName,
	})

	var setupErr *identity.SocietySetupError
	if errors.As(err, &setupErr) {
		// 档案已落地，可登录；小区待补建
		h.logger.Error("Society setup failed after profile creation",
			zap.String("profile_id", setupErr.ProfileID),
			zap.Error(err),
		)
		writeJSON(w, http.StatusOK, Ok(profileResult(profile, map[string]any{
			"societySetupPending": true,
		})))
		return
	}
	if err != nil {
		h.logger.Warn("Register failed", zap.String("email", email), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(authErrorMessage(err)))
		return
	}

	writeJSON(w, http.StatusOK, Ok(profileResult(profile, nil)))
}

// Logout 登出
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.store.SignOut(r.Context()); err != nil {
		h.logger.Error("Logout failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"loggedOut": true}))
}

// Me 返回当前会话快照（身份存储的读侧）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	snap := h.store.Snapshot()
	if snap.Current == nil {
		writeJSON(w, http.StatusUnauthorized, SessionExpired("no active session"))
		return
	}
	result := profileResult(snap.Current, map[string]any{
		"loading": snap.Loading,
	})
	if snap.LastError != nil {
		result["lastError"] = snap.LastError.Error()
	}
	writeJSON(w, http.StatusOK, Ok(result))
}

// profileResult 登录/注册/会话查询共用的响应体
func profileResult(p *domain.Profile, extra map[string]any) map[string]any {
	result := map[string]any{
		"userId":    p.ID,
		"email":     p.Email,
		"name":      p.Name,
		"role":      string(p.Role),
		"roleName":  routing.RoleDisplayName(p.Role),
		"societyId": p.SocietyID,
		"flatIds":   p.FlatIDs,
		"status":    string(p.Status),
		"homePath":  routing.LandingRoute(p.Role),
	}
	for k, v := range extra {
		result[k] = v
	}
	return result
}

// authErrorMessage 把错误分类映射为可操作的用户提示
// "密码错了"与"账号数据损坏"必须可区分，不给笼统失败
func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrInvalidCredential):
		return "wrong email or password"
	case errors.Is(err, identity.ErrProfileNotFound):
		return "your account is misconfigured, contact an administrator"
	case errors.Is(err, identity.ErrDuplicateIdentity):
		return "an account with this email already exists"
	case errors.Is(err, identity.ErrTimeout):
		return "authentication backend did not respond, try again"
	default:
		return err.Error()
	}
}
