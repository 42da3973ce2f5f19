package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// CredentialRepository filas de credenciales por (empresa, ambiente) en PostgreSQL.
type CredentialRepository struct {
	q Querier
}

func NewCredentialRepository(q Querier) *CredentialRepository {
	return &CredentialRepository{q: q}
}

func (r *CredentialRepository) Get(ctx context.Context, companyID, ambiente string) (*entity.CredentialSet, error) {
	const query = `
		SELECT company_id, ambiente,
		       COALESCE(client_id, ''), COALESCE(client_secret, ''),
		       COALESCE(ruc_proveedor, ''), COALESCE(usuario_sol, ''), COALESCE(clave_sol, ''),
		       updated_at
		FROM company_credentials
		WHERE company_id = $1 AND ambiente = $2`

	var c entity.CredentialSet
	err := r.q.QueryRow(ctx, query, companyID, ambiente).Scan(
		&c.CompanyID, &c.Ambiente,
		&c.ClientID, &c.ClientSecret,
		&c.RUCProveedor, &c.UsuarioSOL, &c.ClaveSOL,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consultar credenciales: %w", err)
	}
	return &c, nil
}

// columnas por campo reconocido; Upsert solo acepta estas claves.
var credColumns = map[string]string{
	entity.CredClientID:     "client_id",
	entity.CredClientSecret: "client_secret",
	entity.CredRUCProveedor: "ruc_proveedor",
	entity.CredUsuarioSOL:   "usuario_sol",
	entity.CredClaveSOL:     "clave_sol",
}

func (r *CredentialRepository) Upsert(ctx context.Context, companyID, ambiente string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fields))
	args := []any{companyID, ambiente}
	for field, value := range fields {
		col, ok := credColumns[field]
		if !ok {
			return fmt.Errorf("campo de credencial desconocido: %s", field)
		}
		args = append(args, value)
		cols = append(cols, col)
	}

	query := `INSERT INTO company_credentials (company_id, ambiente`
	for _, col := range cols {
		query += ", " + col
	}
	query += `, updated_at) VALUES ($1, $2`
	for i := range cols {
		query += fmt.Sprintf(", $%d", i+3)
	}
	query += `, NOW()) ON CONFLICT (company_id, ambiente) DO UPDATE SET updated_at = NOW()`
	for i, col := range cols {
		query += fmt.Sprintf(", %s = $%d", col, i+3)
	}

	if _, err := r.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("guardar credenciales: %w", err)
	}
	return nil
}

func (r *CredentialRepository) ClearAPI(ctx context.Context, companyID, ambiente string) error {
	const query = `
		UPDATE company_credentials
		SET client_id = NULL, client_secret = NULL, updated_at = NOW()
		WHERE company_id = $1 AND ambiente = $2`

	if _, err := r.q.Exec(ctx, query, companyID, ambiente); err != nil {
		return fmt.Errorf("limpiar credenciales API: %w", err)
	}
	return nil
}
