package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sandevgo/memobot/internal/core"
)

// FactRepo stores memory records in the facts table. Metadata is a JSON
// document so entity tags can be queried with json_each without extra tables.
type FactRepo struct {
	db *sql.DB
}

func NewFactRepo(db *sql.DB) *FactRepo {
	return &FactRepo{db: db}
}

func (r *FactRepo) Insert(ctx context.Context, content string, meta core.FactMetadata) (int64, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO facts (content, metadata) VALUES (?, ?)`,
		content, string(metaJSON))
	if err != nil {
		return 0, fmt.Errorf("insert fact: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

func (r *FactRepo) GetByID(ctx context.Context, id int64) (*core.MemoryRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, content, metadata, created_at, updated_at FROM facts WHERE id = ?`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fact %d: %w", id, err)
	}
	return rec, nil
}

func (r *FactRepo) Update(ctx context.Context, id int64, content string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE facts SET content = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		content, id)
	if err != nil {
		return fmt.Errorf("update fact %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *FactRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete fact %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SearchKeywords returns records whose content contains every token, newest
// first. An empty token list matches nothing.
func (r *FactRepo) SearchKeywords(ctx context.Context, tokens []string, limit int) ([]core.MemoryRecord, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString(`SELECT id, content, metadata, created_at, updated_at FROM facts WHERE `)
	args := make([]any, 0, len(tokens)+1)
	for i, tok := range tokens {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		sb.WriteString("instr(content, ?) > 0")
		args = append(args, tok)
	}
	sb.WriteString(" ORDER BY id DESC LIMIT ?")
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

// FilterByEntities returns records whose extracted entities intersect the
// given set, newest first.
func (r *FactRepo) FilterByEntities(ctx context.Context, entities []string, limit int) ([]core.MemoryRecord, error) {
	if len(entities) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(entities))
	placeholders = placeholders[:len(placeholders)-1]

	query := fmt.Sprintf(`
		SELECT DISTINCT f.id, f.content, f.metadata, f.created_at, f.updated_at
		FROM facts f, json_each(f.metadata, '$.entities') t
		WHERE t.value IN (%s)
		ORDER BY f.id DESC LIMIT ?`, placeholders)

	args := make([]any, 0, len(entities)+1)
	for _, v := range entities {
		args = append(args, v)
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("entity filter: %w", err)
	}
	defer rows.Close()

	return collectRecords(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.MemoryRecord, error) {
	var rec core.MemoryRecord
	var metaJSON string
	if err := row.Scan(&rec.ID, &rec.Content, &metaJSON, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &rec, nil
}

func collectRecords(rows *sql.Rows) ([]core.MemoryRecord, error) {
	var records []core.MemoryRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return records, nil
}
