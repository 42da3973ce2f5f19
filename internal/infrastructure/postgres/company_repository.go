package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// CompanyRepository implementación PostgreSQL de repository.CompanyRepository.
type CompanyRepository struct {
	q Querier
}

func NewCompanyRepository(q Querier) *CompanyRepository {
	return &CompanyRepository{q: q}
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	const query = `
		SELECT id, ruc, razon_social, COALESCE(nombre_comercial, ''),
		       COALESCE(direccion, ''), COALESCE(ubigeo, ''),
		       production_mode, status, created_at, updated_at
		FROM companies
		WHERE id = $1`

	var c entity.Company
	err := r.q.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.RUC, &c.RazonSocial, &c.NombreComercial,
		&c.Direccion, &c.Ubigeo,
		&c.ProductionMode, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consultar empresa: %w", err)
	}
	return &c, nil
}

func (r *CompanyRepository) Update(ctx context.Context, c *entity.Company) error {
	const query = `
		UPDATE companies
		SET razon_social = $2, nombre_comercial = $3, direccion = $4,
		    ubigeo = $5, production_mode = $6, status = $7, updated_at = NOW()
		WHERE id = $1`

	tag, err := r.q.Exec(ctx, query,
		c.ID, c.RazonSocial, nullIfEmpty(c.NombreComercial), nullIfEmpty(c.Direccion),
		nullIfEmpty(c.Ubigeo), c.ProductionMode, c.Status,
	)
	if err != nil {
		return fmt.Errorf("actualizar empresa: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BranchRepository implementación PostgreSQL de repository.BranchRepository.
type BranchRepository struct {
	q Querier
}

func NewBranchRepository(q Querier) *BranchRepository {
	return &BranchRepository{q: q}
}

func (r *BranchRepository) GetByID(ctx context.Context, id string) (*entity.Branch, error) {
	const query = `
		SELECT id, company_id, codigo, nombre, COALESCE(direccion, ''),
		       COALESCE(ubigeo, ''), created_at, updated_at
		FROM branches
		WHERE id = $1`

	var b entity.Branch
	err := r.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.CompanyID, &b.Codigo, &b.Nombre, &b.Direccion,
		&b.Ubigeo, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("consultar sucursal: %w", err)
	}
	return &b, nil
}

func (r *BranchRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error) {
	const query = `
		SELECT id, company_id, codigo, nombre, COALESCE(direccion, ''),
		       COALESCE(ubigeo, ''), created_at, updated_at
		FROM branches
		WHERE company_id = $1
		ORDER BY codigo`

	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar sucursales: %w", err)
	}
	defer rows.Close()

	var out []*entity.Branch
	for rows.Next() {
		var b entity.Branch
		if err := rows.Scan(
			&b.ID, &b.CompanyID, &b.Codigo, &b.Nombre, &b.Direccion,
			&b.Ubigeo, &b.CreatedAt, &b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("escanear sucursal: %w", err)
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}
