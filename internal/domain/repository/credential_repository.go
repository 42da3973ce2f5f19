package repository

import (
	"context"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// CredentialRepository filas de credenciales por (empresa, ambiente).
// El almacén de credenciales (application) es la única vía de mutación.
type CredentialRepository interface {
	// Get devuelve nil, nil cuando no existe fila para el par.
	Get(ctx context.Context, companyID, ambiente string) (*entity.CredentialSet, error)

	// Upsert aplica solo los campos presentes en fields (claves de
	// entity.ValidCredentialFields); crea la fila si no existe.
	Upsert(ctx context.Context, companyID, ambiente string, fields map[string]string) error

	// ClearAPI anula client_id y client_secret del ambiente, dejando intactos
	// los campos SOL.
	ClearAPI(ctx context.Context, companyID, ambiente string) error
}
