package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func pendienteAntigua(id string, correlativo uint64, edad time.Duration) *entity.FiscalDocument {
	t := time.Now().Add(-edad)
	return &entity.FiscalDocument{
		ID:           id,
		CompanyID:    testCompanyID,
		BranchID:     testBranchID,
		TipoDoc:      sunat.DocTipoFactura,
		Serie:        "F001",
		Correlativo:  correlativo,
		Moneda:       "PEN",
		FechaEmision: t,
		SunatStatus:  entity.EstadoPending,
		CreatedAt:    t,
		UpdatedAt:    t,
	}
}

func TestCheckPendingRun(t *testing.T) {
	ctx := context.Background()

	t.Run("sin pendientes no hay resultados", func(t *testing.T) {
		f := newFixture()
		uc := NewCheckPendingUseCase(f.docs, f.emit, testLogger())
		results, err := uc.Run(ctx, 30*time.Minute)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("solo toca documentos más antiguos que el umbral", func(t *testing.T) {
		f := newFixture()
		uc := NewCheckPendingUseCase(f.docs, f.emit, testLogger())
		require.NoError(t, f.docs.Create(ctx, pendienteAntigua("vieja", 1, 2*time.Hour)))
		require.NoError(t, f.docs.Create(ctx, pendienteAntigua("fresca", 2, time.Minute)))

		results, err := uc.Run(ctx, 30*time.Minute)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "vieja", results[0].DocumentID)
		assert.Equal(t, entity.EstadoAccepted, results[0].Status)

		fresca, _ := f.docs.GetByID(ctx, "fresca")
		assert.Equal(t, entity.EstadoPending, fresca.SunatStatus, "la reciente espera su propio barrido")
	})

	t.Run("el fallo de un documento no arrastra al resto", func(t *testing.T) {
		f := newFixture()
		uc := NewCheckPendingUseCase(f.docs, f.emit, testLogger())
		sana := pendienteAntigua("sana", 1, 2*time.Hour)
		huerfana := pendienteAntigua("huerfana", 2, 2*time.Hour)
		huerfana.CompanyID = "99999999-9999-4999-8999-999999999999" // empresa inexistente
		require.NoError(t, f.docs.Create(ctx, sana))
		require.NoError(t, f.docs.Create(ctx, huerfana))

		results, err := uc.Run(ctx, 30*time.Minute)
		require.NoError(t, err)
		require.Len(t, results, 2)

		porID := make(map[string]dto.BatchItemResult, len(results))
		for _, r := range results {
			porID[r.DocumentID] = r
		}

		assert.Equal(t, entity.EstadoAccepted, porID["sana"].Status)
		assert.Empty(t, porID["sana"].Error)

		assert.Equal(t, entity.EstadoError, porID["huerfana"].Status)
		assert.NotEmpty(t, porID["huerfana"].Error)
	})
}
