package repository

import (
	"context"
	"time"

	"societyhub-data/internal/recordstore"
)

// crudRepository 纯 CRUD 集合的通用仓储（payments / visitors / complaints）
// 这些集合只按 societyId 隔离，无跨实体约束
type crudRepository[T any] struct {
	store      recordstore.Store
	collection string
}

func (r *crudRepository[T]) Get(ctx context.Context, id string) (*T, error) {
	record, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := fromRecord(record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List 按等值条件过滤（societyId 必填，由调用方放入 eq）
func (r *crudRepository[T]) List(ctx context.Context, eq map[string]any) ([]*T, error) {
	records, err := r.store.List(ctx, r.collection, recordstore.Filter{Eq: eq})
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(records))
	for _, record := range records {
		var item T
		if err := fromRecord(record, &item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, nil
}

func (r *crudRepository[T]) Create(ctx context.Context, item *T) error {
	record, err := toRecord(item)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, r.collection, record)
}

func (r *crudRepository[T]) Patch(ctx context.Context, id string, fields recordstore.Record) error {
	if _, ok := fields["updatedAt"]; !ok {
		fields["updatedAt"] = time.Now().UTC()
	}
	return r.store.Update(ctx, r.collection, id, fields)
}

func (r *crudRepository[T]) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.collection, id)
}
