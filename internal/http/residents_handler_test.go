package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"societyhub-data/internal/authn"
	"societyhub-data/internal/domain"
	"societyhub-data/internal/identity"
	"societyhub-data/internal/occupancy"
	"societyhub-data/internal/recordstore"
	"societyhub-data/internal/repository"
	"societyhub-data/internal/service"
	"societyhub-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type residentsFixture struct {
	handler  *ResidentsHandler
	profiles *repository.ProfilesRepository
	flats    *repository.FlatsRepository
}

func newResidentsFixture(t *testing.T) *residentsFixture {
	t.Helper()
	records := recordstore.NewMemory()
	profiles := repository.NewProfilesRepository(records)
	flats := repository.NewFlatsRepository(records)
	auth := authn.NewLocalProvider(store.NewMemoryKV(), time.Hour, zap.NewNop())
	resolver := identity.NewResolver(auth, profiles,
		repository.NewSocietiesRepository(records), zap.NewNop())
	coord := occupancy.NewCoordinator(flats, profiles, resolver, zap.NewNop())
	svc := service.NewResidentService(profiles, flats, coord, zap.NewNop())
	return &residentsFixture{
		handler:  NewResidentsHandler(svc, zap.NewNop()),
		profiles: profiles,
		flats:    flats,
	}
}

func (f *residentsFixture) seedProfile(t *testing.T, id, email string, role domain.Role) {
	t.Helper()
	require.NoError(t, f.profiles.Create(context.Background(), &domain.Profile{
		ID: id, Email: email, Name: "Resident " + id, Role: role,
		SocietyID: "S1", FlatIDs: []string{}, Status: domain.ProfileStatusActive,
	}))
}

func TestResidentsAssignAndList(t *testing.T) {
	f := newResidentsFixture(t)
	f.seedProfile(t, "P1", "p1@x.com", domain.RoleTenant)

	rec := postJSON(t, f.handler, "/api/v1/residents/assign", map[string]any{
		"profileId":  "P1",
		"societyId":  "S1",
		"flatNumber": "A-101",
		"capacity":   "tenant",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	require.Equal(t, ResultSuccess, result.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/residents?societyId=S1&role=tenant", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	listResult := decodeResult(t, w)
	require.Equal(t, ResultSuccess, listResult.Code)
	assert.Equal(t, float64(1), listResult.Result["total"])
}

// 多个 membership 且未指明房屋：报错提示消歧，而不是猜一个
func TestResidentsReleaseAmbiguous(t *testing.T) {
	f := newResidentsFixture(t)
	f.seedProfile(t, "P1", "p1@x.com", domain.RoleTenant)

	for _, number := range []string{"A-101", "B-202"} {
		rec := postJSON(t, f.handler, "/api/v1/residents/link", map[string]any{
			"email":      "p1@x.com",
			"societyId":  "S1",
			"flatNumber": number,
			"capacity":   "tenant",
		})
		require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)
	}

	rec := postJSON(t, f.handler, "/api/v1/residents/release", map[string]any{
		"profileId": "P1",
	})
	result := decodeResult(t, rec)
	assert.Equal(t, ResultError, result.Code)
	assert.Equal(t, "profile occupies multiple flats, specify which flat", result.Message)
}

func TestResidentsDeactivate(t *testing.T) {
	f := newResidentsFixture(t)
	f.seedProfile(t, "P1", "p1@x.com", domain.RoleTenant)

	rec := postJSON(t, f.handler, "/api/v1/residents/assign", map[string]any{
		"profileId": "P1", "societyId": "S1", "flatNumber": "A-101",
	})
	require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)

	rec = postJSON(t, f.handler, "/api/v1/residents/deactivate", map[string]any{
		"profileId": "P1",
	})
	require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)

	profile, err := f.profiles.Get(context.Background(), "P1")
	require.NoError(t, err)
	assert.Equal(t, domain.ProfileStatusInactive, profile.Status)
	assert.Empty(t, profile.FlatIDs)
}

func TestResidentsExportXLSX(t *testing.T) {
	f := newResidentsFixture(t)
	f.seedProfile(t, "P1", "p1@x.com", domain.RoleOwner)

	rec := postJSON(t, f.handler, "/api/v1/residents/assign", map[string]any{
		"profileId": "P1", "societyId": "S1", "flatNumber": "A-101", "capacity": "owner",
	})
	require.Equal(t, ResultSuccess, decodeResult(t, rec).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/residents/export?societyId=S1", nil)
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	xl, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer xl.Close()

	rows, err := xl.GetRows("Residents")
	require.NoError(t, err)
	require.Len(t, rows, 2) // 表头 + 1 行
	assert.Equal(t, ResidentExportHeader, rows[0])
	assert.Equal(t, "p1@x.com", rows[1][1])
	assert.Equal(t, "A-101", rows[1][5])
}
