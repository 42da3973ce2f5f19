package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/internal/domain/validation"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// VoidDocumentsUseCase emite la comunicación de baja (RA) de comprobantes
// aceptados. La ventana temporal (7 días), la unicidad de tuplas dentro del
// envío y la elegibilidad de cada documento se validan antes de reservar
// numeración. Los documentos objetivo pasan a VOIDED recién cuando SUNAT
// acepta la comunicación.
type VoidDocumentsUseCase struct {
	txRunner BillingTxRunner
	docs     repository.DocumentRepository
	emitter  *EmitDocumentUseCase
	log      *logger.Logger

	now func() time.Time
}

// NewVoidDocumentsUseCase construye el caso de uso de bajas.
func NewVoidDocumentsUseCase(txRunner BillingTxRunner, docs repository.DocumentRepository, emitter *EmitDocumentUseCase, log *logger.Logger) *VoidDocumentsUseCase {
	return &VoidDocumentsUseCase{txRunner: txRunner, docs: docs, emitter: emitter, log: log, now: time.Now}
}

// Void valida y persiste la comunicación de baja en PENDING, luego dispara el
// envío asíncrono. Devuelve las violaciones de validación cuando las hay.
func (uc *VoidDocumentsUseCase) Void(ctx context.Context, companyID, userID string, in dto.VoidDocumentsRequest) (*dto.DocumentResponse, *validation.Resultado, error) {
	items := make([]entity.BajaItem, len(in.Items))
	for i, it := range in.Items {
		items[i] = entity.BajaItem{
			TipoDocumento: it.TipoDocumento,
			Serie:         it.Serie,
			Correlativo:   it.Correlativo,
			Motivo:        it.Motivo,
		}
	}

	res := validation.ValidateBaja(in.FechaReferencia, items, uc.now())

	// Cada documento comunicado debe existir, ser de la empresa y estar ACCEPTED.
	for i, it := range items {
		field := fmt.Sprintf("items[%d]", i)
		corr, err := strconv.ParseUint(it.Correlativo, 10, 64)
		if err != nil {
			res.Add(field+".correlativo", "correlativo %q no numérico", it.Correlativo)
			continue
		}
		target, err := uc.docs.GetByNumero(ctx, companyID, it.TipoDocumento, it.Serie, corr)
		if err != nil {
			return nil, nil, fmt.Errorf("buscar documento %s-%s: %w", it.Serie, it.Correlativo, err)
		}
		if target == nil {
			res.Add(field, "documento %s-%s-%s no existe", it.TipoDocumento, it.Serie, it.Correlativo)
			continue
		}
		if target.SunatStatus != entity.EstadoAccepted {
			res.Add(field, "solo se comunican de baja documentos aceptados (estado actual %s)", target.SunatStatus)
		}
	}
	if !res.Valid() {
		return nil, res, nil
	}

	now := uc.now()
	fechaRef := in.FechaReferencia
	baja := &entity.FiscalDocument{
		ID:              uuid.New().String(),
		CompanyID:       companyID,
		BranchID:        in.BranchID,
		TipoDoc:         sunat.DocTipoBaja,
		Serie:           "RA-" + now.Format("20060102"),
		Moneda:          "PEN",
		FechaEmision:    now,
		FechaReferencia: &fechaRef,
		BajaItems:       items,
		SunatStatus:     entity.EstadoDraft,
		CreatedBy:       userID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := uc.txRunner.RunEmision(ctx, func(
		docs repository.DocumentRepository,
		correlativos repository.CorrelativeRepository,
	) error {
		n, err := correlativos.ReserveRange(ctx, in.BranchID, sunat.DocTipoBaja, baja.Serie, 1)
		if err != nil {
			return err
		}
		baja.Correlativo = n
		baja.SunatStatus = entity.EstadoPending
		return docs.Create(ctx, baja)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("crear comunicación de baja: %w", err)
	}

	uc.log.Info().Str("baja_id", baja.ID).Int("documentos", len(items)).Msg("comunicación de baja emitida")
	uc.emitter.ProcessAsync(baja.ID)
	return toResponse(baja), nil, nil
}
