package billing

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
)

const (
	// checkPendingConcurrency tope del fan-out: una llamada remota lenta no
	// debe bloquear al resto ni saturar el WS SUNAT.
	checkPendingConcurrency = 8
	// checkPendingBatch máximo de documentos por barrido.
	checkPendingBatch = 200
)

// CheckPendingUseCase barrido batch de acuses: re-sondea cada documento en
// PENDING/SUBMITTING con más antigüedad que el umbral, de forma independiente
// por documento. El fallo de uno no aborta al resto; el caller recibe un
// resultado por ítem.
type CheckPendingUseCase struct {
	docs    repository.DocumentRepository
	emitter *EmitDocumentUseCase
	log     *logger.Logger

	now func() time.Time
}

// NewCheckPendingUseCase construye el barrido.
func NewCheckPendingUseCase(docs repository.DocumentRepository, emitter *EmitDocumentUseCase, log *logger.Logger) *CheckPendingUseCase {
	return &CheckPendingUseCase{docs: docs, emitter: emitter, log: log, now: time.Now}
}

// Run procesa los documentos pendientes más antiguos que threshold.
func (uc *CheckPendingUseCase) Run(ctx context.Context, threshold time.Duration) ([]dto.BatchItemResult, error) {
	cutoff := uc.now().Add(-threshold)
	pendientes, err := uc.docs.ListPendientes(ctx, cutoff, checkPendingBatch)
	if err != nil {
		return nil, err
	}
	if len(pendientes) == 0 {
		return nil, nil
	}

	results := make([]dto.BatchItemResult, len(pendientes))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkPendingConcurrency)
	for i, doc := range pendientes {
		i, doc := i, doc
		g.Go(func() error {
			item := uc.processOne(gctx, doc)
			mu.Lock()
			results[i] = item
			mu.Unlock()
			return nil // los errores viajan por ítem, nunca abortan el grupo
		})
	}
	_ = g.Wait()

	uc.log.Info().Int("total", len(pendientes)).Msg("barrido de pendientes completado")
	return results, nil
}

func (uc *CheckPendingUseCase) processOne(ctx context.Context, doc *entity.FiscalDocument) dto.BatchItemResult {
	item := dto.BatchItemResult{DocumentID: doc.ID, Numero: doc.Numero()}
	if err := uc.emitter.Process(ctx, doc.ID); err != nil {
		item.Error = err.Error()
	}
	if refreshed, err := uc.docs.GetByID(ctx, doc.ID); err == nil && refreshed != nil {
		item.Status = refreshed.SunatStatus
	} else {
		item.Status = doc.SunatStatus
	}
	return item
}
