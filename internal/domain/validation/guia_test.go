package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func guiaPrivadaValida() *entity.FiscalDocument {
	return &entity.FiscalDocument{
		TipoDoc: sunat.DocTipoGuiaRemision,
		Guia: &entity.GuiaRemisionData{
			ModTraslado:        sunat.TrasladoPrivado,
			CodTraslado:        "01",
			PesoBrutoKg:        decimal.RequireFromString("120.5"),
			FechaTraslado:      time.Now(),
			ConductorTipoDoc:   sunat.IdentidadDNI,
			ConductorNumDoc:    "44556677",
			ConductorLicencia:  "Q44556677",
			ConductorNombres:   "Juan",
			ConductorApellidos: "Pérez",
			VehiculoPlaca:      "ABC123",
			PartidaUbigeo:      "150101",
			PartidaDireccion:   "Av. Principal 100, Lima",
			LlegadaUbigeo:      "040101",
			LlegadaDireccion:   "Calle Comercio 200, Arequipa",
		},
	}
}

func TestValidateGuia(t *testing.T) {
	t.Run("guía privada completa pasa", func(t *testing.T) {
		res := ValidateGuia(guiaPrivadaValida())
		assert.True(t, res.Valid(), "violaciones inesperadas: %+v", res.Errores)
	})

	t.Run("no aplica a otros tipos", func(t *testing.T) {
		assert.True(t, ValidateGuia(&entity.FiscalDocument{TipoDoc: sunat.DocTipoFactura}).Valid())
	})

	t.Run("guía sin datos de traslado", func(t *testing.T) {
		doc := &entity.FiscalDocument{TipoDoc: sunat.DocTipoGuiaRemision}
		assert.True(t, ValidateGuia(doc).FieldSet("guia"))
	})

	t.Run("transporte privado exige conductor y placa", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.ConductorNumDoc = ""
		doc.Guia.ConductorLicencia = ""
		doc.Guia.VehiculoPlaca = ""
		res := ValidateGuia(doc)
		assert.True(t, res.FieldSet("conductor_num_doc"))
		assert.True(t, res.FieldSet("conductor_licencia"))
		assert.True(t, res.FieldSet("vehiculo_placa"))
	})

	t.Run("traslado entre establecimientos exime al conductor", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.CodTraslado = sunat.CodTrasladoEntreEstablecimientos
		doc.Guia.ConductorNumDoc = ""
		doc.Guia.ConductorLicencia = ""
		doc.Guia.ConductorNombres = ""
		doc.Guia.ConductorApellidos = ""
		doc.Guia.VehiculoPlaca = ""
		res := ValidateGuia(doc)
		assert.True(t, res.Valid(), "violaciones inesperadas: %+v", res.Errores)
	})

	t.Run("vehículo menor M1/L exime al conductor", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.IndicadorM1L = true
		doc.Guia.ConductorNumDoc = ""
		doc.Guia.VehiculoPlaca = ""
		assert.True(t, ValidateGuia(doc).Valid())
	})

	t.Run("transporte público exige transportista", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.ModTraslado = sunat.TrasladoPublico
		res := ValidateGuia(doc)
		assert.True(t, res.FieldSet("transportista_tipo_doc"))
		assert.True(t, res.FieldSet("transportista_num_doc"))
		assert.True(t, res.FieldSet("transportista_razon_social"))
	})

	t.Run("ubigeos de seis dígitos", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.PartidaUbigeo = "15"
		doc.Guia.LlegadaUbigeo = "ABCDEF"
		res := ValidateGuia(doc)
		assert.True(t, res.FieldSet("partida_ubigeo"))
		assert.True(t, res.FieldSet("llegada_ubigeo"))
	})

	t.Run("peso bruto positivo y catálogos", func(t *testing.T) {
		doc := guiaPrivadaValida()
		doc.Guia.PesoBrutoKg = decimal.Zero
		doc.Guia.ModTraslado = "03"
		doc.Guia.CodTraslado = "99"
		res := ValidateGuia(doc)
		assert.True(t, res.FieldSet("peso_bruto_kg"))
		assert.True(t, res.FieldSet("mod_traslado"))
		assert.True(t, res.FieldSet("cod_traslado"))
	})
}
