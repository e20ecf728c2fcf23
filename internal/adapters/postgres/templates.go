package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"prismfinance/internal/domain"
)

// TemplateRepository

func (db *DB) CreateTemplate(ctx context.Context, t *domain.Template) error {
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO templates (id, name, raw_content, variables, validity_days, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, t.ID, t.Name, t.RawContent, vars, t.ValidityDays, t.IsActive, t.CreatedAt, t.UpdatedAt)
	return err
}

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	var vars []byte
	err := row.Scan(&t.ID, &t.Name, &t.RawContent, &vars, &t.ValidityDays, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(vars, &t.Variables); err != nil {
		return nil, err
	}
	return &t, nil
}

func (db *DB) GetTemplate(ctx context.Context, id string) (*domain.Template, error) {
	row := db.Pool.QueryRow(ctx, `
        SELECT id, name, raw_content, variables, validity_days, is_active, created_at, updated_at
        FROM templates WHERE id = $1
    `, id)
	return scanTemplate(row)
}

func (db *DB) ListTemplates(ctx context.Context) ([]*domain.Template, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id, name, raw_content, variables, validity_days, is_active, created_at, updated_at
        FROM templates ORDER BY created_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (db *DB) UpdateTemplate(ctx context.Context, t *domain.Template) error {
	vars, err := json.Marshal(t.Variables)
	if err != nil {
		return err
	}
	tag, err := db.Pool.Exec(ctx, `
        UPDATE templates
        SET name=$2, raw_content=$3, variables=$4, validity_days=$5, is_active=$6, updated_at=$7
        WHERE id=$1
    `, t.ID, t.Name, t.RawContent, vars, t.ValidityDays, t.IsActive, t.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) TemplateInUse(ctx context.Context, id string) (bool, error) {
	var inUse bool
	err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE template_id=$1)`, id).Scan(&inUse)
	return inUse, err
}
