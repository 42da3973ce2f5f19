package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facturaperu/gestion-api/internal/domain"
)

// CorrelativeRepository contador de numeración respaldado en PostgreSQL.
// La reserva es un solo UPSERT con RETURNING: el incremento ocurre bajo el
// lock de fila del motor, así que dos reservas concurrentes sobre la misma
// clave siempre devuelven rangos disjuntos.
type CorrelativeRepository struct {
	q Querier
}

func NewCorrelativeRepository(q Querier) *CorrelativeRepository {
	return &CorrelativeRepository{q: q}
}

func (r *CorrelativeRepository) ReserveRange(ctx context.Context, branchID, tipoDoc, serie string, count uint64) (uint64, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: count debe ser mayor a cero", domain.ErrInvalidInput)
	}

	const query = `
		INSERT INTO correlatives (branch_id, tipo_doc, serie, current, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (branch_id, tipo_doc, serie)
		DO UPDATE SET current = correlatives.current + $4, updated_at = NOW()
		RETURNING current`

	var current uint64
	err := r.q.QueryRow(ctx, query, branchID, tipoDoc, serie, count).Scan(&current)
	if err != nil {
		if isSerializationFailure(err) {
			return 0, domain.ErrConflicto
		}
		return 0, fmt.Errorf("reservar correlativo %s/%s/%s: %w", branchID, tipoDoc, serie, err)
	}
	// current es el último del rango reservado; el primero es current-count+1.
	return current - count + 1, nil
}

func (r *CorrelativeRepository) Current(ctx context.Context, branchID, tipoDoc, serie string) (uint64, error) {
	const query = `
		SELECT current FROM correlatives
		WHERE branch_id = $1 AND tipo_doc = $2 AND serie = $3`

	var current uint64
	err := r.q.QueryRow(ctx, query, branchID, tipoDoc, serie).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("consultar correlativo: %w", err)
	}
	return current, nil
}
