package repository

import (
	"context"
	"time"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// SocietiesRepository 小区仓储
type SocietiesRepository struct {
	store recordstore.Store
}

func NewSocietiesRepository(store recordstore.Store) *SocietiesRepository {
	return &SocietiesRepository{store: store}
}

func (r *SocietiesRepository) Get(ctx context.Context, id string) (*domain.Society, error) {
	record, err := r.store.Get(ctx, CollectionSocieties, id)
	if err != nil {
		return nil, err
	}
	var s domain.Society
	if err := fromRecord(record, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SocietiesRepository) Create(ctx context.Context, s *domain.Society) error {
	record, err := toRecord(s)
	if err != nil {
		return err
	}
	return r.store.Insert(ctx, CollectionSocieties, record)
}

func (r *SocietiesRepository) Patch(ctx context.Context, id string, fields recordstore.Record) error {
	if _, ok := fields["updatedAt"]; !ok {
		fields["updatedAt"] = time.Now().UTC()
	}
	return r.store.Update(ctx, CollectionSocieties, id, fields)
}
