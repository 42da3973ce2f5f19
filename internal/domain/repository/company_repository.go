package repository

import (
	"context"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// CompanyRepository acceso a empresas (tenants).
type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Company, error)
	Update(ctx context.Context, company *entity.Company) error
}

// BranchRepository acceso a sucursales.
type BranchRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Branch, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Branch, error)
}
