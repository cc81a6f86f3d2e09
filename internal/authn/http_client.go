package authn

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// HTTPProvider 托管认证服务客户端
// 对接 GoTrue 形态的 REST API：/token、/signup、/logout、/user
type HTTPProvider struct {
	httpClient *resty.Client
	logger     *zap.Logger

	mu          sync.RWMutex
	accessToken string
	subjectID   string
	callbacks   []SessionChangeFunc
}

type authTokenResponse struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID string `json:"id"`
	} `json:"user"`
}

type authErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// NewHTTPProvider 创建托管认证服务客户端
func NewHTTPProvider(baseURL, apiKey string, logger *zap.Logger) *HTTPProvider {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", apiKey)

	return &HTTPProvider{
		httpClient: client,
		logger:     logger,
	}
}

func (p *HTTPProvider) SignIn(ctx context.Context, email, secret string) (string, error) {
	var result authTokenResponse
	var apiErr authErrorResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(map[string]string{"email": email, "password": secret}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/token")
	if err != nil {
		return "", fmt.Errorf("auth sign-in request: %w", err)
	}
	if resp.StatusCode() == http.StatusBadRequest || resp.StatusCode() == http.StatusUnauthorized {
		return "", ErrInvalidCredential
	}
	if resp.IsError() {
		return "", fmt.Errorf("auth sign-in: status %d: %s", resp.StatusCode(), apiErr.Message)
	}

	p.setSession(result.AccessToken, result.User.ID)
	p.notify(result.User.ID)
	return result.User.ID, nil
}

func (p *HTTPProvider) SignUp(ctx context.Context, email, secret string) (string, error) {
	var result authTokenResponse
	var apiErr authErrorResponse
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": secret}).
		SetResult(&result).
		SetError(&apiErr).
		Post("/signup")
	if err != nil {
		return "", fmt.Errorf("auth sign-up request: %w", err)
	}
	if resp.StatusCode() == http.StatusConflict || resp.StatusCode() == http.StatusUnprocessableEntity {
		return "", ErrEmailTaken
	}
	if resp.IsError() {
		return "", fmt.Errorf("auth sign-up: status %d: %s", resp.StatusCode(), apiErr.Message)
	}

	p.setSession(result.AccessToken, result.User.ID)
	p.notify(result.User.ID)
	return result.User.ID, nil
}

func (p *HTTPProvider) SignOut(ctx context.Context) error {
	p.mu.RLock()
	token := p.accessToken
	p.mu.RUnlock()

	if token != "" {
		resp, err := p.httpClient.R().
			SetContext(ctx).
			SetAuthToken(token).
			Post("/logout")
		if err != nil {
			return fmt.Errorf("auth sign-out request: %w", err)
		}
		if resp.IsError() && resp.StatusCode() != http.StatusUnauthorized {
			p.logger.Warn("Auth sign-out returned error status",
				zap.Int("status", resp.StatusCode()),
			)
		}
	}

	p.setSession("", "")
	p.notify("")
	return nil
}

func (p *HTTPProvider) CurrentSubject(ctx context.Context) (string, error) {
	p.mu.RLock()
	token := p.accessToken
	p.mu.RUnlock()
	if token == "" {
		return "", nil
	}

	var user struct {
		ID string `json:"id"`
	}
	resp, err := p.httpClient.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&user).
		Get("/user")
	if err != nil {
		return "", fmt.Errorf("auth current subject: %w", err)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		// 令牌过期：等价于无会话
		p.setSession("", "")
		return "", nil
	}
	if resp.IsError() {
		return "", fmt.Errorf("auth current subject: status %d", resp.StatusCode())
	}
	return user.ID, nil
}

func (p *HTTPProvider) OnSessionChange(fn SessionChangeFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = append(p.callbacks, fn)
}

func (p *HTTPProvider) setSession(token, subjectID string) {
	p.mu.Lock()
	p.accessToken = token
	p.subjectID = subjectID
	p.mu.Unlock()
}

func (p *HTTPProvider) notify(subjectID string) {
	p.mu.RLock()
	callbacks := make([]SessionChangeFunc, len(p.callbacks))
	copy(callbacks, p.callbacks)
	p.mu.RUnlock()

	for _, fn := range callbacks {
		fn(subjectID)
	}
}
