package recordstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"
)

// Postgres 实现：每个集合一张文档表（id TEXT PRIMARY KEY, doc JSONB）
// doc 内字段名为 snake_case，进出边界时做 camelCase 互转
// 表名来自固定集合清单，不接受外部输入
type Postgres struct {
	db *sql.DB
}

// Collections 本服务使用的全部集合
var Collections = []string{
	"profiles",
	"societies",
	"flats",
	"payments",
	"visitors",
	"complaints",
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema 建表（幂等）
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	for _, collection := range Collections {
		q := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`,
			pq.QuoteIdentifier(collection),
		)
		if _, err := p.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure collection %s: %w", collection, err)
		}
	}
	return nil
}

func (p *Postgres) table(collection string) (string, error) {
	for _, known := range Collections {
		if known == collection {
			return pq.QuoteIdentifier(collection), nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", collection)
}

func (p *Postgres) Get(ctx context.Context, collection, id string) (Record, error) {
	table, err := p.table(collection)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = p.db.QueryRowContext(ctx,
		`SELECT doc FROM `+table+` WHERE id = $1`, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeDoc(raw)
}

func (p *Postgres) List(ctx context.Context, collection string, filter Filter) ([]Record, error) {
	table, err := p.table(collection)
	if err != nil {
		return nil, err
	}

	containment, err := filterContainment(filter)
	if err != nil {
		return nil, err
	}

	q := `SELECT doc FROM ` + table
	args := []any{}
	if containment != nil {
		q += ` WHERE doc @> $1::jsonb`
		args = append(args, containment)
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		record, err := decodeDoc(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (p *Postgres) Insert(ctx context.Context, collection string, record Record) error {
	table, err := p.table(collection)
	if err != nil {
		return err
	}

	id, doc, err := normalizeRecord(record)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx,
		`INSERT INTO `+table+` (id, doc) VALUES ($1, $2)`, id, raw,
	)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
		return fmt.Errorf("insert %s/%s: %w", collection, id, ErrConflict)
	}
	return err
}

func (p *Postgres) Update(ctx context.Context, collection, id string, partial Record) error {
	table, err := p.table(collection)
	if err != nil {
		return err
	}

	normalized, err := normalizeValue(partial)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(SnakeKeys(normalized))
	if err != nil {
		return err
	}

	// 浅合并（||），与内存实现的 top-level patch 语义一致
	res, err := p.db.ExecContext(ctx,
		`UPDATE `+table+` SET doc = doc || $2::jsonb WHERE id = $1`, id, raw,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	table, err := p.table(collection)
	if err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func decodeDoc(raw []byte) (Record, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode doc: %w", err)
	}
	return CamelKeys(doc).(map[string]any), nil
}

// filterContainment 把 Filter 编译为单个 JSONB 包含判断文档
// Eq: {"society_id": "S1"}；ArrayContains: {"flat_ids": ["F1"]}
func filterContainment(filter Filter) ([]byte, error) {
	if len(filter.Eq) == 0 && len(filter.ArrayContains) == 0 {
		return nil, nil
	}

	snakeFilter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}

	doc := map[string]any{}
	for key, val := range snakeFilter.Eq {
		doc[key] = val
	}
	for key, val := range snakeFilter.ArrayContains {
		doc[key] = []any{val}
	}
	return json.Marshal(doc)
}
