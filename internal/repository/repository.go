package repository

import (
	"encoding/json"
	"fmt"

	"societyhub-data/internal/recordstore"
)

// 集合名（与 recordstore.Collections 对应）
const (
	CollectionProfiles   = "profiles"
	CollectionSocieties  = "societies"
	CollectionFlats      = "flats"
	CollectionPayments   = "payments"
	CollectionVisitors   = "visitors"
	CollectionComplaints = "complaints"
)

// toRecord 领域结构体 -> 记录（camelCase，经 JSON tag）
func toRecord(v any) (recordstore.Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	var record recordstore.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return record, nil
}

// fromRecord 记录 -> 领域结构体
func fromRecord(record recordstore.Record, out any) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}
