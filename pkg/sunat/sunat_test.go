package sunat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEndpoint(t *testing.T) {
	t.Run("facturación beta apunta a e-beta", func(t *testing.T) {
		ep := DefaultEndpoint(AmbienteBeta, ServicioFacturacion)
		assert.Contains(t, ep.Endpoint, "e-beta.sunat.gob.pe")
		assert.Contains(t, ep.WSDL, "?wsdl")
		assert.Equal(t, 30, ep.Timeout)
	})

	t.Run("facturación producción apunta a e-factura", func(t *testing.T) {
		ep := DefaultEndpoint(AmbienteProduccion, ServicioFacturacion)
		assert.Contains(t, ep.Endpoint, "e-factura.sunat.gob.pe")
		assert.Equal(t, 60, ep.Timeout)
	})

	t.Run("solo guías expone endpoint REST", func(t *testing.T) {
		guias := DefaultEndpoint(AmbienteProduccion, ServicioGuias)
		assert.Contains(t, guias.APIEndpoint, "api-cpe.sunat.gob.pe")

		for _, servicio := range []string{ServicioFacturacion, ServicioRetenciones, ServicioConsultas} {
			assert.Empty(t, DefaultEndpoint(AmbienteProduccion, servicio).APIEndpoint, servicio)
		}
	})

	t.Run("par desconocido devuelve el cero, no panic", func(t *testing.T) {
		assert.Equal(t, ServiceEndpoint{}, DefaultEndpoint("staging", ServicioFacturacion))
		assert.Equal(t, ServiceEndpoint{}, DefaultEndpoint(AmbienteBeta, "otro"))
	})

	t.Run("todos los servicios existen en ambos ambientes", func(t *testing.T) {
		for _, ambiente := range []string{AmbienteBeta, AmbienteProduccion} {
			for _, servicio := range []string{ServicioFacturacion, ServicioGuias, ServicioRetenciones, ServicioConsultas} {
				ep := DefaultEndpoint(ambiente, servicio)
				require.NotEmpty(t, ep.Endpoint, "%s/%s", ambiente, servicio)
				require.NotEmpty(t, ep.WSDL, "%s/%s", ambiente, servicio)
			}
		}
	})
}

func TestServiceEndpointAttr(t *testing.T) {
	ep := ServiceEndpoint{Endpoint: "https://a", WSDL: "https://a?wsdl", APIEndpoint: "https://api", Timeout: 45}

	assert.Equal(t, "https://a", ep.Attr(AtributoEndpoint))
	assert.Equal(t, "https://a?wsdl", ep.Attr(AtributoWSDL))
	assert.Equal(t, "https://api", ep.Attr(AtributoAPIEndpoint))
	assert.Equal(t, "45", ep.Attr(AtributoTimeout))
	assert.Empty(t, ep.Attr("otro"))
	assert.Empty(t, ServiceEndpoint{}.Attr(AtributoTimeout), "timeout cero se reporta vacío")
}

func TestIsBetaTestValue(t *testing.T) {
	assert.True(t, IsBetaTestValue(BetaClientID))
	assert.True(t, IsBetaTestValue(BetaClientSecret))
	assert.True(t, IsBetaTestValue(BetaRUC))
	assert.True(t, IsBetaTestValue("MODDATOS"))
	assert.True(t, IsBetaTestValue("moddatos"))
	assert.False(t, IsBetaTestValue("20601030013"))
	assert.False(t, IsBetaTestValue(""))
}

func TestCatalogos(t *testing.T) {
	t.Run("catálogo 09 tiene los 13 motivos", func(t *testing.T) {
		assert.Len(t, CreditNoteMotives, 13)
		assert.Contains(t, CreditNoteMotives, "01")
		assert.Contains(t, CreditNoteMotives, "13")
	})

	t.Run("una nota solo afecta facturas y boletas", func(t *testing.T) {
		assert.True(t, AffectableDocumentTypeCodes[DocTipoFactura])
		assert.True(t, AffectableDocumentTypeCodes[DocTipoBoleta])
		assert.False(t, AffectableDocumentTypeCodes[DocTipoNotaCredito])
		assert.False(t, AffectableDocumentTypeCodes[DocTipoGuiaRemision])
	})

	t.Run("motivo 04 del catálogo 20 es el traslado interno", func(t *testing.T) {
		_, ok := TransferReasons[CodTrasladoEntreEstablecimientos]
		assert.True(t, ok)
	})
}
