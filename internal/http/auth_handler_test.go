package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
	"societyhub-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authFixture struct {
	handler *AuthHandler
	store   *identity.Store
	records recordstore.Store
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	records := recordstore.NewMemory()
	auth := authn.NewLocalProvider(store.NewMemoryKV(), time.Hour, zap.NewNop())
	resolver := identity.NewResolver(auth,
		repository.NewProfilesRepository(records),
		repository.NewSocietiesRepository(records),
		zap.NewNop())
	idStore := identity.NewStore(auth, resolver, time.Second, zap.NewNop())
	return &authFixture{
		handler: NewAuthHandler(idStore, zap.NewNop()),
		store:   idStore,
		records: records,
	}
}

func postJSON(t *testing.T, h http.Handler, path string, payload map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) Result[map[string]any] {
	t.Helper()
	var result Result[map[string]any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	return result
}

func TestAuthRegisterThenLogin(t *testing.T) {
	f := newAuthFixture(t)

	rec := postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email":    "tenant@x.com",
		"password": "secret123",
		"name":     "First Tenant",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)
	assert.Equal(t, "tenant", result.Result["role"])
	assert.Equal(t, "/tenant/dashboard", result.Result["homePath"])

	rec = postJSON(t, f.handler, "/api/v1/auth/logout", nil)
	require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)

	rec = postJSON(t, f.handler, "/api/v1/auth/login", map[string]any{
		"email":    "tenant@x.com",
		"password": "secret123",
	})
	result = decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)
	assert.Equal(t, "First Tenant", result.Result["name"])
}

func TestAuthLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)

	postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email": "u@x.com", "password": "right",
	})
	rec := postJSON(t, f.handler, "/api/v1/auth/login", map[string]any{
		"email": "u@x.com", "password": "wrong",
	})
	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	// 密码错误要和"账号损坏"可区分
	assert.Equal(t, "wrong email or password", result.Message)
}

func TestAuthRegisterAdminCreatesSociety(t *testing.T) {
	f := newAuthFixture(t)

	rec := postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email":       "admin@x.com",
		"password":    "secret123",
		"role":        "admin",
		"societyName": "Sunshine Apartments",
	})
	result := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)
	assert.Equal(t, "/admin/dashboard", result.Result["homePath"])
	assert.NotEmpty(t, result.Result["societyId"])

	// 小区行确实落地
	societyID, _ := result.Result["societyId"].(string)
	record, err := f.records.Get(context.Background(), "societies", societyID)
	require.NoError(t, err)
	assert.Equal(t, "Sunshine Apartments", record["name"])
}

func TestAuthRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)

	postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email": "dup@x.com", "password": "secret123",
	})
	rec := postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email": "dup@x.com", "password": "other456",
	})
	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	assert.Equal(t, "an account with this email already exists", result.Message)
}

func TestAuthMe(t *testing.T) {
	f := newAuthFixture(t)

	// 无会话
	r := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	postJSON(t, f.handler, "/api/v1/auth/register", map[string]any{
		"email": "me@x.com", "password": "secret123",
	})

	r = httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, r)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, "me@x.com", result.Result["email"])
}
