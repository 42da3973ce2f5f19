package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/facturaperu/gestion-api/internal/domain/repository"
)

// TxRunner ejecuta unidades de trabajo de emisión dentro de una transacción
// PostgreSQL. Los repositorios entregados a fn quedan atados al tx, de modo que
// la reserva de correlativo y la inserción del comprobante confirman o caen juntas.
type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) RunEmision(ctx context.Context, fn func(
	docs repository.DocumentRepository,
	correlativos repository.CorrelativeRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("iniciar transacción: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(NewDocumentRepository(tx), NewCorrelativeRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("confirmar transacción: %w", err)
	}
	return nil
}
