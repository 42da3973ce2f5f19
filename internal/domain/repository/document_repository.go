package repository

import (
	"context"
	"time"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
)

// DocumentRepository persistencia de comprobantes y sus líneas.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.FiscalDocument) error
	CreateItem(ctx context.Context, item *entity.DocumentItem) error
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)
	GetByNumero(ctx context.Context, companyID, tipoDoc, serie string, correlativo uint64) (*entity.FiscalDocument, error)
	GetItems(ctx context.Context, documentID string) ([]*entity.DocumentItem, error)

	// Update persiste estado, ticket, errores, intentos y rutas de artefactos.
	Update(ctx context.Context, doc *entity.FiscalDocument) error

	// ListPendientes documentos en PENDING/SUBMITTING con más antigüedad que
	// el umbral, para el barrido batch de acuses.
	ListPendientes(ctx context.Context, olderThan time.Time, limit int) ([]*entity.FiscalDocument, error)

	// ListBoletasParaResumen boletas emitidas en o antes de fecha, aún no
	// incluidas en ningún resumen diario.
	ListBoletasParaResumen(ctx context.Context, companyID string, fecha time.Time) ([]*entity.FiscalDocument, error)

	// MarcarIncluidasEnResumen fija el flag de inclusión (snapshot idempotente).
	MarcarIncluidasEnResumen(ctx context.Context, documentIDs []string, resumenID string) error
}
