package repository

import (
	"context"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// PaymentsRepository 缴费记录仓储
type PaymentsRepository struct {
	crudRepository[domain.Payment]
}

func NewPaymentsRepository(store recordstore.Store) *PaymentsRepository {
	return &PaymentsRepository{crudRepository[domain.Payment]{store: store, collection: CollectionPayments}}
}

// ListBySociety flatID 为空时列出全小区缴费记录
func (r *PaymentsRepository) ListBySociety(ctx context.Context, societyID, flatID string) ([]*domain.Payment, error) {
	eq := map[string]any{"societyId": societyID}
	if flatID != "" {
		eq["flatId"] = flatID
	}
	return r.List(ctx, eq)
}
