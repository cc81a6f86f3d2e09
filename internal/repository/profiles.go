package repository

import (
	"context"
	"fmt"
	"time"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// ProfilesRepository 用户档案仓储
type ProfilesRepository struct {
	store recordstore.Store
}

func NewProfilesRepository(store recordstore.Store) *ProfilesRepository {
	return &ProfilesRepository{store: store}
}

func (r *ProfilesRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	record, err := r.store.Get(ctx, CollectionProfiles, id)
	if err != nil {
		return nil, err
	}
	var p domain.Profile
	if err := fromRecord(record, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FindByEmail 按 email 查找档案；不存在时返回 recordstore.ErrNotFound
func (r *ProfilesRepository) FindByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	records, err := r.store.List(ctx, CollectionProfiles, recordstore.Filter{
		Eq: map[string]any{"email": email},
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("profile by email: %w", recordstore.ErrNotFound)
	}
	var p domain.Profile
	if err := fromRecord(records[0], &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListBySociety 列出小区内的档案；role 为空时不过滤角色
func (r *ProfilesRepository) ListBySociety(ctx context.Context, societyID string, role domain.Role) ([]*domain.Profile, error) {
	eq := map[string]any{"societyId": societyID}
	if role != "" {
		eq["role"] = string(role)
	}
	records, err := r.store.List(ctx, CollectionProfiles, recordstore.Filter{Eq: eq})
	if err != nil {
		return nil, err
	}
	return decodeProfiles(records)
}

// ListByFlat 列出 flatIds 中包含指定房屋的全部档案
func (r *ProfilesRepository) ListByFlat(ctx context.Context, flatID string) ([]*domain.Profile, error) {
	records, err := r.store.List(ctx, CollectionProfiles, recordstore.Filter{
		ArrayContains: map[string]any{"flatIds": flatID},
	})
	if err != nil {
		return nil, err
	}
	return decodeProfiles(records)
}

func (r *ProfilesRepository) Create(ctx context.Context, p *domain.Profile) error {
	record, err := toRecord(p)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, CollectionProfiles, record)
}

// Patch 部分更新；自动刷新 updatedAt
func (r *ProfilesRepository) Patch(ctx context.Context, id string, fields recordstore.Record) error {
	if _, ok := fields["updatedAt"]; !ok {
		fields["updatedAt"] = time.Now().UTC()
	}
	return r.store.Update(ctx, CollectionProfiles, id, fields)
}

func decodeProfiles(records []recordstore.Record) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(records))
	for _, record := range records {
		var p domain.Profile
		if err := fromRecord(record, &p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, nil
}
