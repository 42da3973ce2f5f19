package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
)

// CorrelativeAuthority emite numeración correlativa sin huecos por
// (sucursal, tipo de documento, serie). Los números crecen monótonamente y
// jamás se reutilizan, aunque el documento dueño sea dado de baja.
type CorrelativeAuthority struct {
	repo repository.CorrelativeRepository
}

// NewCorrelativeAuthority construye la autoridad sobre el repositorio atómico.
func NewCorrelativeAuthority(repo repository.CorrelativeRepository) *CorrelativeAuthority {
	return &CorrelativeAuthority{repo: repo}
}

// Next asigna el siguiente número de la clave. Un conflicto de concurrencia se
// reintenta una vez internamente; si persiste se expone como error transitorio
// de transporte, nunca como conflicto crudo al caller.
func (a *CorrelativeAuthority) Next(ctx context.Context, branchID, tipoDoc, serie string) (uint64, error) {
	return a.CreateBatch(ctx, branchID, tipoDoc, serie, 1)
}

// CreateBatch reserva count números contiguos [start, start+count) en una sola
// operación atómica y devuelve start.
func (a *CorrelativeAuthority) CreateBatch(ctx context.Context, branchID, tipoDoc, serie string, count uint64) (uint64, error) {
	if count == 0 {
		return 0, fmt.Errorf("%w: count debe ser mayor que cero", domain.ErrInvalidInput)
	}
	start, err := a.repo.ReserveRange(ctx, branchID, tipoDoc, serie, count)
	if errors.Is(err, domain.ErrConflicto) {
		start, err = a.repo.ReserveRange(ctx, branchID, tipoDoc, serie, count)
		if errors.Is(err, domain.ErrConflicto) {
			return 0, fmt.Errorf("%w: la reserva de correlativo no progresó tras el reintento", domain.ErrTransporte)
		}
	}
	if err != nil {
		return 0, fmt.Errorf("reservar correlativo %s/%s/%s: %w", branchID, tipoDoc, serie, err)
	}
	return start, nil
}

// Current último número asignado para la clave (0 si nunca se usó).
func (a *CorrelativeAuthority) Current(ctx context.Context, branchID, tipoDoc, serie string) (uint64, error) {
	return a.repo.Current(ctx, branchID, tipoDoc, serie)
}
