package recordstore

import (
	"context"
	"errors"
)

// 通用记录存储（Persistence Gateway）
// 上层仓储只依赖本接口，不关心底层是 Postgres 还是内存实现
// 记录在接口边界使用 camelCase 字段名，由实现负责与外部 snake_case 互转

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrConflict 主键冲突（重复插入同一 id）
	ErrConflict = errors.New("record already exists")
)

// Record 一条记录：camelCase 字段名 -> 值
type Record = map[string]any

// Filter 查询过滤器（对应原系统 query builder 的 .eq / .contains 形态）
// Eq: 字段等值匹配；ArrayContains: 数组字段包含指定元素
type Filter struct {
	Eq            map[string]any
	ArrayContains map[string]any
}

// Store 按集合名组织的记录存储接口
type Store interface {
	Get(ctx context.Context, collection, id string) (Record, error)
	List(ctx context.Context, collection string, filter Filter) ([]Record, error)
	Insert(ctx context.Context, collection string, record Record) error
	Update(ctx context.Context, collection, id string, partial Record) error
	Delete(ctx context.Context, collection, id string) error
}
