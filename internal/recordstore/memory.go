package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
)

// Memory 内存实现：用于 DB 未就绪时的联测和单元测试
// 为保持与外部存储行为一致：
// - 文档以 snake_case 字段名落盘，读取时转回 camelCase（转换器在两个实现中都被真实使用）
// - 值经过 JSON 归一化（数字 -> float64，切片 -> []any），与 JSONB 读回形态一致
type Memory struct {
	mu sync.RWMutex

	// collection -> id -> snake_case document
	collections map[string]map[string]map[string]any
}

func NewMemory() *Memory {
	return &Memory{collections: map[string]map[string]map[string]any{}}
}

func (m *Memory) Get(_ context.Context, collection, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return CamelKeys(doc).(map[string]any), nil
}

func (m *Memory) List(_ context.Context, collection string, filter Filter) ([]Record, error) {
	snakeFilter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Record{}
	for _, doc := range m.collections[collection] {
		if matches(doc, snakeFilter) {
			out = append(out, CamelKeys(doc).(map[string]any))
		}
	}
	return out, nil
}

func (m *Memory) Insert(_ context.Context, collection string, record Record) error {
	id, doc, err := normalizeRecord(record)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections[collection] == nil {
		m.collections[collection] = map[string]map[string]any{}
	}
	if _, exists := m.collections[collection][id]; exists {
		return fmt.Errorf("insert %s/%s: %w", collection, id, ErrConflict)
	}
	m.collections[collection][id] = doc
	return nil
}

func (m *Memory) Update(_ context.Context, collection, id string, partial Record) error {
	normalized, err := normalizeValue(partial)
	if err != nil {
		return err
	}
	patch := SnakeKeys(normalized).(map[string]any)

	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.collections[collection][id]
	if !ok {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}
	for key, val := range patch {
		doc[key] = val
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.collections[collection][id]; !ok {
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	delete(m.collections[collection], id)
	return nil
}

// normalizeRecord JSON 归一化 + snake_case 转换，并提取记录 id
func normalizeRecord(record Record) (string, map[string]any, error) {
	normalized, err := normalizeValue(record)
	if err != nil {
		return "", nil, err
	}
	doc := SnakeKeys(normalized).(map[string]any)
	id, _ := doc["id"].(string)
	if id == "" {
		return "", nil, fmt.Errorf("record missing id field")
	}
	return id, doc, nil
}

func normalizeValue(value any) (map[string]any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("normalize record: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize record: %w", err)
	}
	return out, nil
}

func normalizeFilter(filter Filter) (Filter, error) {
	out := Filter{}
	if len(filter.Eq) > 0 {
		normalized, err := normalizeValue(filter.Eq)
		if err != nil {
			return Filter{}, err
		}
		out.Eq = SnakeKeys(normalized).(map[string]any)
	}
	if len(filter.ArrayContains) > 0 {
		normalized, err := normalizeValue(filter.ArrayContains)
		if err != nil {
			return Filter{}, err
		}
		out.ArrayContains = SnakeKeys(normalized).(map[string]any)
	}
	return out, nil
}

func matches(doc map[string]any, filter Filter) bool {
	for key, want := range filter.Eq {
		if !reflect.DeepEqual(doc[key], want) {
			return false
		}
	}
	for key, want := range filter.ArrayContains {
		arr, ok := doc[key].([]any)
		if !ok {
			return false
		}
		found := false
		for _, item := range arr {
			if reflect.DeepEqual(item, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
