package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func empresaDePrueba() *entity.Company {
	return &entity.Company{ID: "co-1", RUC: "20601030013", RazonSocial: "ACME SAC"}
}

func sucursalDePrueba() *entity.Branch {
	return &entity.Branch{ID: "br-1", CompanyID: "co-1", Codigo: "0000"}
}

func facturaValida() (*entity.FiscalDocument, []*entity.DocumentItem) {
	doc := &entity.FiscalDocument{
		TipoDoc:            sunat.DocTipoFactura,
		Serie:              "F001",
		Moneda:             "PEN",
		FechaEmision:       time.Now(),
		ClienteTipoDoc:     sunat.IdentidadRUC,
		ClienteNumDoc:      "20512345678",
		ClienteRazonSocial: "CLIENTE SAC",
		TotalGravado:       decimal.RequireFromString("100.00"),
		TotalIGV:           decimal.RequireFromString("18.00"),
		TotalVenta:         decimal.RequireFromString("118.00"),
	}
	items := []*entity.DocumentItem{{
		Descripcion:   "Servicio de consultoría",
		Cantidad:      decimal.NewFromInt(1),
		ValorUnitario: decimal.RequireFromString("100.00"),
		CodAfectacion: sunat.AfectacionGravada,
		Subtotal:      decimal.RequireFromString("100.00"),
		IGV:           decimal.RequireFromString("18.00"),
		Total:         decimal.RequireFromString("118.00"),
	}}
	return doc, items
}

func TestValidateDocumentoFacturaValida(t *testing.T) {
	doc, items := facturaValida()
	res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
	assert.True(t, res.Valid(), "violaciones inesperadas: %+v", res.Errores)
	assert.NoError(t, res.AsError())
}

func TestValidateDocumentoEstructura(t *testing.T) {
	t.Run("tipo fuera del catálogo 01", func(t *testing.T) {
		doc, items := facturaValida()
		doc.TipoDoc = "99"
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("tipo_doc"))
	})

	t.Run("serie de factura debe ser Fxxx", func(t *testing.T) {
		doc, items := facturaValida()
		doc.Serie = "B001"
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("serie"))
	})

	t.Run("serie de boleta debe ser Bxxx", func(t *testing.T) {
		doc, items := facturaValida()
		doc.TipoDoc = sunat.DocTipoBoleta
		doc.Serie = "F001"
		doc.ClienteTipoDoc = sunat.IdentidadDNI
		doc.ClienteNumDoc = "44556677"
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("serie"))
	})

	t.Run("moneda fuera de PEN/USD", func(t *testing.T) {
		doc, items := facturaValida()
		doc.Moneda = "EUR"
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("moneda"))
	})
}

func TestValidateDocumentoReceptor(t *testing.T) {
	t.Run("factura exige cliente con RUC", func(t *testing.T) {
		doc, items := facturaValida()
		doc.ClienteTipoDoc = sunat.IdentidadDNI
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("cliente_tipo_doc"))
	})

	t.Run("boleta admite DNI o receptor anónimo", func(t *testing.T) {
		doc, items := facturaValida()
		doc.TipoDoc = sunat.DocTipoBoleta
		doc.Serie = "B001"
		doc.ClienteTipoDoc = ""
		doc.ClienteNumDoc = ""
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.Valid(), "violaciones inesperadas: %+v", res.Errores)
	})
}

func TestValidateDocumentoSucursal(t *testing.T) {
	t.Run("sucursal de otra empresa", func(t *testing.T) {
		doc, items := facturaValida()
		branch := sucursalDePrueba()
		branch.CompanyID = "otra-empresa"
		res := ValidateDocumento(doc, items, empresaDePrueba(), branch)
		assert.True(t, res.FieldSet("branch_id"))
	})

	t.Run("sucursal ausente", func(t *testing.T) {
		doc, items := facturaValida()
		res := ValidateDocumento(doc, items, empresaDePrueba(), nil)
		assert.True(t, res.FieldSet("branch_id"))
	})
}

func TestValidateDocumentoTotales(t *testing.T) {
	t.Run("totales que no cuadran con las líneas", func(t *testing.T) {
		doc, items := facturaValida()
		doc.TotalVenta = decimal.RequireFromString("120.00")
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("total_venta"))
	})

	t.Run("sin líneas", func(t *testing.T) {
		doc, _ := facturaValida()
		res := ValidateDocumento(doc, nil, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("items"))
	})

	t.Run("cantidad cero y afectación desconocida se acumulan", func(t *testing.T) {
		doc, items := facturaValida()
		items[0].Cantidad = decimal.Zero
		items[0].CodAfectacion = "77"
		res := ValidateDocumento(doc, items, empresaDePrueba(), sucursalDePrueba())
		assert.True(t, res.FieldSet("items[0].cantidad"))
		assert.True(t, res.FieldSet("items[0].cod_afectacion"))
		require.False(t, res.Valid())
	})
}
