package repository

import (
	"context"
	"fmt"
	"time"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// FlatsRepository 房屋仓储
type FlatsRepository struct {
	store recordstore.Store
}

func NewFlatsRepository(store recordstore.Store) *FlatsRepository {
	return &FlatsRepository{store: store}
}

func (r *FlatsRepository) Get(ctx context.Context, id string) (*domain.Flat, error) {
	record, err := r.store.Get(ctx, CollectionFlats, id)
	if err != nil {
		return nil, err
	}
	var f domain.Flat
	if err := fromRecord(record, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindBySocietyAndNumber 按（小区, 门牌号）查找房屋；不存在时返回 recordstore.ErrNotFound
func (r *FlatsRepository) FindBySocietyAndNumber(ctx context.Context, societyID, flatNumber string) (*domain.Flat, error) {
	records, err := r.store.List(ctx, CollectionFlats, recordstore.Filter{
		Eq: map[string]any{"societyId": societyID, "flatNumber": flatNumber},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("flat %s/%s: %w", societyID, flatNumber, recordstore.ErrNotFound)
	}
	var f domain.Flat
	if err := fromRecord(records[0], &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FlatsRepository) ListBySociety(ctx context.Context, societyID string) ([]*domain.Flat, error) {
	records, err := r.store.List(ctx, CollectionFlats, recordstore.Filter{
		Eq: map[string]any{"societyId": societyID},
	})
	if err != nil {
		return nil, err
	}
	return decodeFlats(records)
}

// ListByOwner 列出业主名下的房屋（含空置持有）
func (r *FlatsRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Flat, error) {
	records, err := r.store.List(ctx, CollectionFlats, recordstore.Filter{
		Eq: map[string]any{"ownerId": ownerID},
	})
	if err != nil {
		return nil, err
	}
	return decodeFlats(records)
}

func (r *FlatsRepository) Create(ctx context.Context, f *domain.Flat) error {
	record, err := toRecord(f)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, CollectionFlats, record)
}

// Patch 部分更新；自动刷新 updatedAt
// 注意：occupancyStatus / ownerId / currentTenantId 只允许 occupancy.Coordinator 通过本方法修改
func (r *FlatsRepository) Patch(ctx context.Context, id string, fields recordstore.Record) error {
	if _, ok := fields["updatedAt"]; !ok {
		fields["updatedAt"] = time.Now().UTC()
	}
	return r.store.Update(ctx, CollectionFlats, id, fields)
}

func (r *FlatsRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionFlats, id)
}

func decodeFlats(records []recordstore.Record) ([]*domain.Flat, error) {
	out := make([]*domain.Flat, 0, len(records))
	for _, record := range records {
		var f domain.Flat
		if err := fromRecord(record, &f); err != nil {
			return nil, err
		}
		out = append(out, &f)
	}
	return out, nil
}
