package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// DailySummaryUseCase genera el resumen diario (RC) que agrupa las boletas
// emitidas hasta la fecha dada y aún no enviadas. La agregación es un
// snapshot: una boleta incluida queda marcada y no vuelve a seleccionarse para
// la misma fecha aunque el resumen falle y se reintente (inclusión
// idempotente; la transmisión no lo es).
type DailySummaryUseCase struct {
	txRunner BillingTxRunner
	docs     repository.DocumentRepository
	emitter  *EmitDocumentUseCase
	log      *logger.Logger

	now func() time.Time
}

// NewDailySummaryUseCase construye el generador de resúmenes.
func NewDailySummaryUseCase(txRunner BillingTxRunner, docs repository.DocumentRepository, emitter *EmitDocumentUseCase, log *logger.Logger) *DailySummaryUseCase {
	return &DailySummaryUseCase{txRunner: txRunner, docs: docs, emitter: emitter, log: log, now: time.Now}
}

// Generate crea el documento RC para la fecha y marca las boletas incluidas en
// la misma transacción que reserva el correlativo del resumen. Devuelve nil
// (sin error) cuando no hay boletas elegibles.
func (uc *DailySummaryUseCase) Generate(ctx context.Context, companyID, userID string, in dto.DailySummaryRequest) (*dto.DocumentResponse, error) {
	fecha := in.Fecha
	if fecha.IsZero() {
		fecha = uc.now()
	}
	fecha = inicioDeDia(fecha)

	boletas, err := uc.docs.ListBoletasParaResumen(ctx, companyID, fecha)
	if err != nil {
		return nil, fmt.Errorf("listar boletas para resumen: %w", err)
	}
	if len(boletas) == 0 {
		return nil, nil
	}

	now := uc.now()
	fechaRef := fecha
	var totalGravado, totalIGV, totalVenta decimal.Decimal
	ids := make([]string, len(boletas))
	for i, b := range boletas {
		ids[i] = b.ID
		totalGravado = totalGravado.Add(b.TotalGravado)
		totalIGV = totalIGV.Add(b.TotalIGV)
		totalVenta = totalVenta.Add(b.TotalVenta)
	}

	resumen := &entity.FiscalDocument{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		BranchID:        in.BranchID,
		TipoDoc:         sunat.DocTipoResumen,
		Serie:           "RC-" + fecha.Format("20060102"),
		Moneda:          "PEN",
		FechaEmision:    now,
		FechaReferencia: &fechaRef,
		TotalGravado:    totalGravado.Round(2),
		TotalIGV:        totalIGV.Round(2),
		TotalVenta:      totalVenta.Round(2),
		SunatStatus:     entity.EstadoDraft,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = uc.txRunner.RunEmision(ctx, func(
		docs repository.DocumentRepository,
		correlativos repository.CorrelativeRepository,
	) error {
		n, err := correlativos.ReserveRange(ctx, in.BranchID, sunat.DocTipoResumen, resumen.Serie, 1)
		if err != nil {
			return err
		}
		resumen.Correlativo = n
		resumen.SunatStatus = entity.EstadoPending
		if err := docs.Create(ctx, resumen); err != nil {
			return err
		}
		// El snapshot queda sellado aquí: aunque la transmisión del resumen
		// falle, estas boletas no vuelven a agruparse.
		return docs.MarcarIncluidasEnResumen(ctx, ids, resumen.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("crear resumen diario: %w", err)
	}

	uc.log.Info().Str("resumen_id", resumen.ID).Int("boletas", len(boletas)).
		Str("fecha", fecha.Format("2006-01-02")).Msg("resumen diario generado")

	uc.emitter.ProcessAsync(resumen.ID)
	return toResponse(resumen), nil
}

// inicioDeDia comienzo del día calendario de t en su propia zona. La fecha del
// resumen es un día local; Truncate cortaría en múltiplos de 24h desde la
// época UTC y correría el día para zonas como Lima (UTC-5).
func inicioDeDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
