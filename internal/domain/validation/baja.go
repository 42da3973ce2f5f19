package validation

import (
	"time"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// bajaAllowedTypes tipos de documento comunicables de baja vía RA. Las boletas
// se revierten por resumen diario, no por comunicación de baja.
var bajaAllowedTypes = map[string]bool{
	sunat.DocTipoFactura: true, sunat.DocTipoNotaCredito: true,
	sunat.DocTipoNotaDebito: true, sunat.DocTipoRetencion: true,
	sunat.DocTipoGuiaRemision: true,
}

// ValidateBaja reglas de la comunicación de baja: la fecha de referencia debe
// caer dentro de los últimos 7 días calendario (sin pasar de hoy), cada ítem
// lleva motivo, y no se admiten tuplas (tipo, serie, correlativo) repetidas en
// el mismo envío.
func ValidateBaja(fechaReferencia time.Time, items []entity.BajaItem, now time.Time) *Resultado {
	res := &Resultado{}

	hoy := inicioDeDia(now.In(fechaReferencia.Location()))
	ref := inicioDeDia(fechaReferencia)
	if fechaReferencia.IsZero() {
		res.Add("fecha_referencia", "fecha de referencia requerida")
	} else if ref.After(hoy) {
		res.Add("fecha_referencia", "la fecha de referencia no puede ser posterior a hoy")
	} else if hoy.Sub(ref) > sunat.DiasMaximosBaja*24*time.Hour {
		res.Add("fecha_referencia", "la baja solo puede comunicarse dentro de los %d días siguientes a la emisión", sunat.DiasMaximosBaja)
	}

	if len(items) == 0 {
		res.Add("items", "la comunicación de baja debe incluir al menos un documento")
		return res
	}

	vistos := make(map[string]bool, len(items))
	for i, it := range items {
		prefix := itemField(i)
		if !bajaAllowedTypes[it.TipoDocumento] {
			res.Add(prefix+".tipo_documento", "tipo %q no admite comunicación de baja", it.TipoDocumento)
		}
		if it.Serie == "" {
			res.Add(prefix+".serie", "serie requerida")
		}
		if it.Correlativo == "" {
			res.Add(prefix+".correlativo", "correlativo requerido")
		}
		if it.Motivo == "" {
			res.Add(prefix+".motivo", "motivo de la baja requerido")
		}
		clave := it.TipoDocumento + "|" + it.Serie + "|" + it.Correlativo
		if vistos[clave] {
			res.Add(prefix, "documento %s-%s-%s duplicado en la misma comunicación",
				it.TipoDocumento, it.Serie, it.Correlativo)
		}
		vistos[clave] = true
	}

	return res
}

// inicioDeDia comienzo del día calendario de t en su propia zona. La ventana
// se cuenta en días locales; Truncate cortaría en múltiplos de 24h desde la
// época UTC y correría el día para zonas como Lima (UTC-5).
func inicioDeDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
