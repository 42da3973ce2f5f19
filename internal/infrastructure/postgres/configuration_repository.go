package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// ConfigurationRepository filas de configuración jerárquica en PostgreSQL.
type ConfigurationRepository struct {
	q Querier
}

func NewConfigurationRepository(q Querier) *ConfigurationRepository {
	return &ConfigurationRepository{q: q}
}

const configColumns = `
	id, company_id, config_type, ambiente, COALESCE(service_type, ''),
	payload, COALESCE(description, ''), active, created_at, updated_at`

func (r *ConfigurationRepository) GetEntry(ctx context.Context, companyID, configType, ambiente, serviceType string) (*entity.ConfigurationEntry, error) {
	query := `SELECT ` + configColumns + `
		FROM company_configurations
		WHERE company_id = $1 AND config_type = $2 AND ambiente = $3
		  AND COALESCE(service_type, '') = $4 AND active`

	var e entity.ConfigurationEntry
	err := r.q.QueryRow(ctx, query, companyID, configType, ambiente, serviceType).Scan(
		&e.ID, &e.CompanyID, &e.ConfigType, &e.Ambiente, &e.ServiceType,
		&e.Payload, &e.Description, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar configuración: %w", err)
	}
	return &e, nil
}

func (r *ConfigurationRepository) ListByCompany(ctx context.Context, companyID string) ([]*entity.ConfigurationEntry, error) {
	query := `SELECT ` + configColumns + `
		FROM company_configurations
		WHERE company_id = $1 AND active
		ORDER BY config_type, ambiente, service_type`

	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("listar configuración: %w", err)
	}
	defer rows.Close()

	var out []*entity.ConfigurationEntry
	for rows.Next() {
		var e entity.ConfigurationEntry
		if err := rows.Scan(
			&e.ID, &e.CompanyID, &e.ConfigType, &e.Ambiente, &e.ServiceType,
			&e.Payload, &e.Description, &e.Active, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("escanear configuración: %w", err)
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (r *ConfigurationRepository) Upsert(ctx context.Context, e *entity.ConfigurationEntry) error {
	const query = `
		INSERT INTO company_configurations (
			id, company_id, config_type, ambiente, service_type,
			payload, description, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (company_id, config_type, ambiente, service_type)
		DO UPDATE SET payload = $6, description = $7, active = $8, updated_at = NOW()`

	_, err := r.q.Exec(ctx, query,
		e.ID, e.CompanyID, e.ConfigType, e.Ambiente, e.ServiceType,
		e.Payload, nullIfEmpty(e.Description), e.Active,
	)
	if err != nil {
		return fmt.Errorf("guardar configuración: %w", err)
	}
	return nil
}

func (r *ConfigurationRepository) CountByCompany(ctx context.Context, companyID string) (int, error) {
	const query = `SELECT COUNT(*) FROM company_configurations WHERE company_id = $1`

	var n int
	if err := r.q.QueryRow(ctx, query, companyID).Scan(&n); err != nil {
		return 0, fmt.Errorf("contar configuración: %w", err)
	}
	return n, nil
}

func (r *ConfigurationRepository) CreateBatch(ctx context.Context, entries []*entity.ConfigurationEntry) error {
	for _, e := range entries {
		const query = `
			INSERT INTO company_configurations (
				id, company_id, config_type, ambiente, service_type,
				payload, description, active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			ON CONFLICT (company_id, config_type, ambiente, service_type) DO NOTHING`

		_, err := r.q.Exec(ctx, query,
			e.ID, e.CompanyID, e.ConfigType, e.Ambiente, e.ServiceType,
			e.Payload, nullIfEmpty(e.Description), e.Active,
		)
		if err != nil {
			return fmt.Errorf("sembrar configuración %s/%s: %w", e.ConfigType, e.Ambiente, err)
		}
	}
	return nil
}
