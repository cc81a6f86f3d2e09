package recordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	err := store.Insert(ctx, "flats", Record{
		"id":              "F1",
		"societyId":       "S1",
		"flatNumber":      "101",
		"occupancyStatus": "vacant",
	})
	require.NoError(t, err)

	// 重复插入同一 id -> ErrConflict
	err = store.Insert(ctx, "flats", Record{"id": "F1", "societyId": "S1"})
	require.ErrorIs(t, err, ErrConflict)

	got, err := store.Get(ctx, "flats", "F1")
	require.NoError(t, err)
	assert.Equal(t, "S1", got["societyId"])
	assert.Equal(t, "vacant", got["occupancyStatus"])

	err = store.Update(ctx, "flats", "F1", Record{"occupancyStatus": "rented", "currentTenantId": "P1"})
	require.NoError(t, err)

	got, err = store.Get(ctx, "flats", "F1")
	require.NoError(t, err)
	assert.Equal(t, "rented", got["occupancyStatus"])
	assert.Equal(t, "P1", got["currentTenantId"])
	// 未修改字段保持原值
	assert.Equal(t, "101", got["flatNumber"])

	require.NoError(t, store.Delete(ctx, "flats", "F1"))
	_, err = store.Get(ctx, "flats", "F1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "flats", "F1"), ErrNotFound)
}

func TestMemoryUpdateMissing(t *testing.T) {
	store := NewMemory()
	err := store.Update(context.Background(), "flats", "missing", Record{"floor": 2})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryListFilters(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()

	require.NoError(t, store.Insert(ctx, "profiles", Record{
		"id": "P1", "societyId": "S1", "role": "tenant", "flatIds": []string{"F1"},
	}))
	require.NoError(t, store.Insert(ctx, "profiles", Record{
		"id": "P2", "societyId": "S1", "role": "owner", "flatIds": []string{"F1", "F2"},
	}))
	require.NoError(t, store.Insert(ctx, "profiles", Record{
		"id": "P3", "societyId": "S2", "role": "tenant", "flatIds": []string{},
	}))

	// 等值过滤
	got, err := store.List(ctx, "profiles", Filter{Eq: map[string]any{"societyId": "S1"}})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// 等值 + 数组包含
	got, err = store.List(ctx, "profiles", Filter{
		Eq:            map[string]any{"role": "owner"},
		ArrayContains: map[string]any{"flatIds": "F2"},
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "P2", got[0]["id"])

	// 无匹配
	got, err = store.List(ctx, "profiles", Filter{ArrayContains: map[string]any{"flatIds": "F9"}})
	require.NoError(t, err)
	assert.Empty(t, got)

	// 空过滤器 -> 全量
	got, err = store.List(ctx, "profiles", Filter{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
