package repository

import (
	"context"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// VisitorsRepository 访客记录仓储
type VisitorsRepository struct {
	crudRepository[domain.Visitor]
}

func NewVisitorsRepository(store recordstore.Store) *VisitorsRepository {
	return &VisitorsRepository{crudRepository[domain.Visitor]{store: store, collection: CollectionVisitors}}
}

// ListBySociety flatID 为空时列出全小区访客
func (r *VisitorsRepository) ListBySociety(ctx context.Context, societyID, flatID string) ([]*domain.Visitor, error) {
	eq := map[string]any{"societyId": societyID}
	if flatID != "" {
		eq["flatId"] = flatID
	}
	return r.List(ctx, eq)
}
