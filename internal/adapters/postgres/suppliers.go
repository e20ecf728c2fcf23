package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"prismfinance/internal/domain"
)

// SupplierRepository

const supplierColumns = `id, company_name, legal_form, registered_capital, address, postal_code,
city, country, registry_number, registry_city, representative_name, representative_role,
email, phone, created_at`

func (db *DB) CreateSupplier(ctx context.Context, s *domain.Supplier) error {
	_, err := db.Pool.Exec(ctx, `
        INSERT INTO suppliers (`+supplierColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
    `, s.ID, s.CompanyName, s.LegalForm, s.RegisteredCapital, s.Address, s.PostalCode,
		s.City, s.Country, s.RegistryNumber, s.RegistryCity, s.RepresentativeName, s.RepresentativeRole,
		s.Email, s.Phone, s.CreatedAt)
	return err
}

func scanSupplier(row pgx.Row) (*domain.Supplier, error) {
	var s domain.Supplier
	err := row.Scan(&s.ID, &s.CompanyName, &s.LegalForm, &s.RegisteredCapital, &s.Address, &s.PostalCode,
		&s.City, &s.Country, &s.RegistryNumber, &s.RegistryCity, &s.RepresentativeName, &s.RepresentativeRole,
		&s.Email, &s.Phone, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (db *DB) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+supplierColumns+` FROM suppliers WHERE id = $1`, id)
	return scanSupplier(row)
}

func (db *DB) ListSuppliers(ctx context.Context) ([]*domain.Supplier, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+supplierColumns+` FROM suppliers ORDER BY company_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
