package validation

import (
	"github.com/shopspring/decimal"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// ValidateGuia reglas condicionales de la guía de remisión (catálogos 18 y 20):
//
//   - modalidad pública (01): transportista (tipo y número de documento,
//     razón social) obligatorio;
//   - modalidad privada (02): documento, licencia, nombres y apellidos del
//     conductor más placa del vehículo obligatorios, SALVO que el motivo sea
//     traslado entre establecimientos (04) o se declare vehículo menor M1/L.
func ValidateGuia(doc *entity.FiscalDocument) *Resultado {
	res := &Resultado{}
	if doc.TipoDoc != sunat.DocTipoGuiaRemision {
		return res
	}
	g := doc.Guia
	if g == nil {
		res.Add("guia", "datos de traslado requeridos para la guía de remisión")
		return res
	}

	if !sunat.ValidTransferModes[g.ModTraslado] {
		res.Add("mod_traslado", "modalidad de traslado %q fuera del catálogo 18", g.ModTraslado)
	}
	if _, ok := sunat.TransferReasons[g.CodTraslado]; !ok {
		res.Add("cod_traslado", "motivo de traslado %q fuera del catálogo 20", g.CodTraslado)
	}
	if !g.PesoBrutoKg.GreaterThan(decimal.Zero) {
		res.Add("peso_bruto_kg", "peso bruto debe ser mayor que cero")
	}
	if g.FechaTraslado.IsZero() {
		res.Add("fecha_traslado", "fecha de inicio de traslado requerida")
	}

	validarPunto(res, "partida", g.PartidaUbigeo, g.PartidaDireccion)
	validarPunto(res, "llegada", g.LlegadaUbigeo, g.LlegadaDireccion)

	switch g.ModTraslado {
	case sunat.TrasladoPublico:
		if g.TransportistaTipoDoc == "" {
			res.Add("transportista_tipo_doc", "tipo de documento del transportista requerido en transporte público")
		}
		if g.TransportistaNumDoc == "" {
			res.Add("transportista_num_doc", "número de documento del transportista requerido en transporte público")
		}
		if g.TransportistaRazonSocial == "" {
			res.Add("transportista_razon_social", "razón social del transportista requerida en transporte público")
		}
	case sunat.TrasladoPrivado:
		// Exención: traslado entre establecimientos propios o vehículo menor.
		if g.CodTraslado == sunat.CodTrasladoEntreEstablecimientos || g.IndicadorM1L {
			break
		}
		if g.ConductorNumDoc == "" {
			res.Add("conductor_num_doc", "documento del conductor requerido en transporte privado")
		}
		if g.ConductorLicencia == "" {
			res.Add("conductor_licencia", "licencia del conductor requerida en transporte privado")
		}
		if g.ConductorNombres == "" {
			res.Add("conductor_nombres", "nombres del conductor requeridos en transporte privado")
		}
		if g.ConductorApellidos == "" {
			res.Add("conductor_apellidos", "apellidos del conductor requeridos en transporte privado")
		}
		if g.VehiculoPlaca == "" {
			res.Add("vehiculo_placa", "placa del vehículo requerida en transporte privado")
		}
	}

	return res
}

func validarPunto(res *Resultado, punto, ubigeo, direccion string) {
	if !ubigeoRe.MatchString(ubigeo) {
		res.Add(punto+"_ubigeo", "ubigeo de %s inválido (6 dígitos)", punto)
	}
	if direccion == "" {
		res.Add(punto+"_direccion", "dirección de %s requerida", punto)
	}
}
