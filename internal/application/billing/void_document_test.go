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

func facturaAceptada(id string, correlativo uint64, emision time.Time) *entity.FiscalDocument {
	return &entity.FiscalDocument{
		ID:           id,
		CompanyID:    testCompanyID,
		BranchID:     testBranchID,
		TipoDoc:      sunat.DocTipoFactura,
		Serie:        "F001",
		Correlativo:  correlativo,
		Moneda:       "PEN",
		FechaEmision: emision,
		SunatStatus:  entity.EstadoAccepted,
		CreatedAt:    emision,
		UpdatedAt:    emision,
	}
}

func newVoidUseCaseFixture() (*VoidDocumentsUseCase, *fixture) {
	f := newFixture()
	uc := NewVoidDocumentsUseCase(
		&fakeTxRunner{docs: f.docs, correlativos: f.correlativos},
		f.docs, f.emit, testLogger(),
	)
	return uc, f
}

func bajaRequest(fechaRef time.Time, items ...dto.BajaItemRequest) dto.VoidDocumentsRequest {
	return dto.VoidDocumentsRequest{
		BranchID:        testBranchID,
		FechaReferencia: fechaRef,
		Items:           items,
	}
}

func TestVoidDocuments(t *testing.T) {
	ctx := context.Background()
	hoy := time.Now()

	t.Run("baja válida queda PENDING y anula el objetivo al aceptarse", func(t *testing.T) {
		uc, f := newVoidUseCaseFixture()
		require.NoError(t, f.docs.Create(ctx, facturaAceptada("doc-1", 1, hoy)))

		resp, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(hoy, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoFactura, Serie: "F001", Correlativo: "1",
			Motivo: "error en datos del cliente",
		}))
		require.NoError(t, err)
		require.Nil(t, res)
		require.NotNil(t, resp)

		assert.Equal(t, sunat.DocTipoBaja, resp.TipoDoc)
		assert.Contains(t, resp.Numero, "RA-")
		assert.Equal(t, entity.EstadoPending, resp.SunatStatus)

		// El envío corre en background; el objetivo pasa a VOIDED con el acuse.
		require.Eventually(t, func() bool {
			d, _ := f.docs.GetByID(ctx, "doc-1")
			return d != nil && d.SunatStatus == entity.EstadoVoided
		}, 3*time.Second, 20*time.Millisecond)

		require.Eventually(t, func() bool {
			b, _ := f.docs.GetByID(ctx, resp.ID)
			return b != nil && b.SunatStatus == entity.EstadoAccepted
		}, 3*time.Second, 20*time.Millisecond)
	})

	t.Run("fuera de la ventana legal se rechaza sin quemar numeración", func(t *testing.T) {
		uc, f := newVoidUseCaseFixture()
		viejo := hoy.AddDate(0, 0, -10)
		require.NoError(t, f.docs.Create(ctx, facturaAceptada("doc-1", 1, viejo)))

		resp, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(viejo, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoFactura, Serie: "F001", Correlativo: "1",
			Motivo: "emitida por error",
		}))
		require.NoError(t, err)
		assert.Nil(t, resp)
		require.NotNil(t, res)
		assert.True(t, res.FieldSet("fecha_referencia"))

		serie := "RA-" + time.Now().Format("20060102")
		n, _ := f.correlativos.Current(ctx, testBranchID, sunat.DocTipoBaja, serie)
		assert.Zero(t, n)
	})

	t.Run("solo documentos aceptados pueden comunicarse de baja", func(t *testing.T) {
		uc, f := newVoidUseCaseFixture()
		pendiente := facturaAceptada("doc-1", 1, hoy)
		pendiente.SunatStatus = entity.EstadoPending
		require.NoError(t, f.docs.Create(ctx, pendiente))

		_, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(hoy, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoFactura, Serie: "F001", Correlativo: "1",
			Motivo: "duplicado",
		}))
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.FieldSet("items[0]"))
	})

	t.Run("documento inexistente se reporta por ítem", func(t *testing.T) {
		uc, _ := newVoidUseCaseFixture()
		_, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(hoy, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoFactura, Serie: "F001", Correlativo: "999",
			Motivo: "no debió emitirse",
		}))
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.FieldSet("items[0]"))
	})

	t.Run("las boletas no van por comunicación de baja", func(t *testing.T) {
		uc, f := newVoidUseCaseFixture()
		boleta := facturaAceptada("doc-1", 1, hoy)
		boleta.TipoDoc = sunat.DocTipoBoleta
		boleta.Serie = "B001"
		require.NoError(t, f.docs.Create(ctx, boleta))

		_, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(hoy, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoBoleta, Serie: "B001", Correlativo: "1",
			Motivo: "anulación de operación",
		}))
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.FieldSet("items[0].tipo_documento"))
	})

	t.Run("correlativo no numérico", func(t *testing.T) {
		uc, _ := newVoidUseCaseFixture()
		_, res, err := uc.Void(ctx, testCompanyID, testUserID, bajaRequest(hoy, dto.BajaItemRequest{
			TipoDocumento: sunat.DocTipoFactura, Serie: "F001", Correlativo: "ABC",
			Motivo: "error",
		}))
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.True(t, res.FieldSet("items[0].correlativo"))
	})
}
