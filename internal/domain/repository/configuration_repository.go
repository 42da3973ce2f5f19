package repository

import (
	"context"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// ConfigurationRepository filas de configuración jerárquica por empresa.
type ConfigurationRepository interface {
	// GetEntry fila activa exacta para la clave; nil, nil si no existe.
	GetEntry(ctx context.Context, companyID, configType, ambiente, serviceType string) (*entity.ConfigurationEntry, error)

	ListByCompany(ctx context.Context, companyID string) ([]*entity.ConfigurationEntry, error)
	Upsert(ctx context.Context, entry *entity.ConfigurationEntry) error

	// CountByCompany cantidad de filas de la empresa; guarda de la siembra
	// idempotente de primera vez.
	CountByCompany(ctx context.Context, companyID string) (int, error)
	CreateBatch(ctx context.Context, entries []*entity.ConfigurationEntry) error
}
