package repository

import (
	"context"

	"societyhub-data/internal/domain"
	"societyhub-data/internal/recordstore"
)

// ComplaintsRepository 投诉工单仓储
type ComplaintsRepository struct {
	crudRepository[domain.Complaint]
}

func NewComplaintsRepository(store recordstore.Store) *ComplaintsRepository {
	return &ComplaintsRepository{crudRepository[domain.Complaint]{store: store, collection: CollectionComplaints}}
}

// ListBySociety status 为空时不过滤状态
func (r *ComplaintsRepository) ListBySociety(ctx context.Context, societyID, status string) ([]*domain.Complaint, error) {
	eq := map[string]any{"societyId": societyID}
	if status != "" {
		eq["status"] = status
	}
	return r.List(ctx, eq)
}
