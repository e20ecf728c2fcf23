package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"prismfinance/internal/domain"
	"prismfinance/internal/ports"
)

// ContractRepository

const contractColumns = `id, name, template_id, supplier_id, raw_content, content, variables,
status, admin_signature, supplier_signature, activity_log, expires_at, version, created_at, updated_at`

func marshalContract(c *domain.Contract) (vars, adminSig, supplierSig, activity []byte, err error) {
	if vars, err = json.Marshal(c.Variables); err != nil {
		return
	}
	if c.AdminSignature != nil {
		if adminSig, err = json.Marshal(c.AdminSignature); err != nil {
			return
		}
	}
	if c.SupplierSignature != nil {
		if supplierSig, err = json.Marshal(c.SupplierSignature); err != nil {
			return
		}
	}
	activity, err = json.Marshal(c.ActivityLog)
	return
}

func scanContract(row pgx.Row) (*domain.Contract, error) {
	var c domain.Contract
	var vars, adminSig, supplierSig, activity []byte
	err := row.Scan(&c.ID, &c.Name, &c.TemplateID, &c.SupplierID, &c.RawContent, &c.Content, &vars,
		&c.Status, &adminSig, &supplierSig, &activity, &c.ExpiresAt, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(vars, &c.Variables); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(activity, &c.ActivityLog); err != nil {
		return nil, err
	}
	if adminSig != nil {
		if err := json.Unmarshal(adminSig, &c.AdminSignature); err != nil {
			return nil, err
		}
	}
	if supplierSig != nil {
		if err := json.Unmarshal(supplierSig, &c.SupplierSignature); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (db *DB) CreateContract(ctx context.Context, c *domain.Contract) error {
	vars, adminSig, supplierSig, activity, err := marshalContract(c)
	if err != nil {
		return err
	}
	_, err = db.Pool.Exec(ctx, `
        INSERT INTO contracts (`+contractColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `, c.ID, c.Name, c.TemplateID, c.SupplierID, c.RawContent, c.Content, vars,
		c.Status, adminSig, supplierSig, activity, c.ExpiresAt, c.Version, c.CreatedAt, c.UpdatedAt)
	return err
}

func (db *DB) GetContract(ctx context.Context, id string) (*domain.Contract, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1`, id)
	return scanContract(row)
}

func (db *DB) ListContracts(ctx context.Context, f ports.ContractFilter) ([]*domain.Contract, error) {
	q := `SELECT ` + contractColumns + ` FROM contracts WHERE 1=1`
	var args []any
	if f.SupplierID != "" {
		args = append(args, f.SupplierID)
		q += fmt.Sprintf(" AND supplier_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	q += ` ORDER BY created_at DESC`
	rows, err := db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MutateContract locks the contract row, applies fn and writes the result
// back in the same transaction. The row lock is the single-writer guarantee:
// concurrent sign attempts queue here and the second one sees the first one's
// signature already recorded.
func (db *DB) MutateContract(ctx context.Context, id string, fn func(*domain.Contract) error) (c *domain.Contract, err error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, `SELECT `+contractColumns+` FROM contracts WHERE id = $1 FOR UPDATE`, id)
	c, err = scanContract(row)
	if err != nil {
		return nil, err
	}
	if err = fn(c); err != nil {
		return nil, err
	}
	c.Version++

	vars, adminSig, supplierSig, activity, err := marshalContract(c)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `
        UPDATE contracts
        SET name=$2, content=$3, variables=$4, status=$5, admin_signature=$6,
            supplier_signature=$7, activity_log=$8, expires_at=$9, version=$10, updated_at=$11
        WHERE id=$1
    `, c.ID, c.Name, c.Content, vars, c.Status, adminSig,
		supplierSig, activity, c.ExpiresAt, c.Version, c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteContract removes a draft. The status guard runs in SQL so a contract
// sent concurrently with the delete survives.
func (db *DB) DeleteContract(ctx context.Context, id string) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM contracts WHERE id=$1 AND status=$2`, id, domain.StatusDraft)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM contracts WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return domain.ErrInvalidStateForDeletion
		}
		return domain.ErrNotFound
	}
	return nil
}

func (db *DB) ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
        SELECT id FROM contracts
        WHERE status IN ($1, $2) AND expires_at IS NOT NULL AND expires_at <= $3
        ORDER BY expires_at
        LIMIT $4
    `, domain.StatusDraft, domain.StatusPendingSignature, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
