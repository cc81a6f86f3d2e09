// +build integration

package recordstore

import (
	"context"
	"database/sql"
	"testing"

	"societyhub-data/internal/config"
	"societyhub-data/internal/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB 设置测试数据库；不可用时跳过
func setupTestDB(t *testing.T) *sql.DB {
	cfg := config.Load()
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		t.Skipf("Skipping integration test: database not available: %v", err)
	}
	return db
}

func TestPostgresRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	pg := NewPostgres(db)
	require.NoError(t, pg.EnsureSchema(ctx))

	id := uuid.NewString()
	defer db.Exec(`DELETE FROM profiles WHERE id = $1`, id)

	record := Record{
		"id":        id,
		"email":     id + "@integration.test",
		"role":      "tenant",
		"societyId": "itest-society",
		"flatIds":   []string{"itest-flat-1"},
		"status":    "active",
	}
	require.NoError(t, pg.Insert(ctx, "profiles", record))

	// 读回：内部键名保持 camelCase
	got, err := pg.Get(ctx, "profiles", id)
	require.NoError(t, err)
	assert.Equal(t, record["email"], got["email"])
	assert.Equal(t, "itest-society", got["societyId"])
	assert.NotContains(t, got, "society_id")

	// 等值过滤 + 数组包含过滤
	list, err := pg.List(ctx, "profiles", Filter{Eq: map[string]any{"email": record["email"]}})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = pg.List(ctx, "profiles", Filter{ArrayContains: map[string]any{"flatIds": "itest-flat-1"}})
	require.NoError(t, err)
	require.NotEmpty(t, list)

	// 浅合并更新
	require.NoError(t, pg.Update(ctx, "profiles", id, Record{"status": "inactive"}))
	got, err = pg.Get(ctx, "profiles", id)
	require.NoError(t, err)
	assert.Equal(t, "inactive", got["status"])
	assert.Equal(t, record["email"], got["email"])

	// 主键冲突
	err = pg.Insert(ctx, "profiles", Record{"id": id, "email": "other@integration.test"})
	assert.ErrorIs(t, err, ErrConflict)

	// 删除后不可见
	require.NoError(t, pg.Delete(ctx, "profiles", id))
	_, err = pg.Get(ctx, "profiles", id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUpdateMissingRow(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	pg := NewPostgres(db)
	require.NoError(t, pg.EnsureSchema(ctx))

	err := pg.Update(ctx, "profiles", "no-such-row-"+uuid.NewString(), Record{"status": "active"})
	assert.ErrorIs(t, err, ErrNotFound)
}
