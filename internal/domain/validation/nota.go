package validation

import (
	"regexp"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

var numeroDocRe = regexp.MustCompile(`^[A-Z0-9]{4}-\d{1,8}$`)

// ValidateNota reglas específicas de notas de crédito (07) y débito (08):
// motivo dentro del catálogo cerrado correspondiente y referencia obligatoria
// al documento afectado, que debe ser de un tipo modificable.
func ValidateNota(doc *entity.FiscalDocument) *Resultado {
	res := &Resultado{}
	if doc.TipoDoc != sunat.DocTipoNotaCredito && doc.TipoDoc != sunat.DocTipoNotaDebito {
		return res
	}

	catalogo := sunat.CreditNoteMotives
	nombre := "09"
	if doc.TipoDoc == sunat.DocTipoNotaDebito {
		catalogo = sunat.DebitNoteMotives
		nombre = "10"
	}

	if doc.CodMotivo == "" {
		res.Add("cod_motivo", "motivo requerido para la nota")
	} else if _, ok := catalogo[doc.CodMotivo]; !ok {
		res.Add("cod_motivo", "motivo %q fuera del catálogo %s", doc.CodMotivo, nombre)
	}
	if doc.DesMotivo == "" {
		res.Add("des_motivo", "descripción del motivo requerida")
	}

	if doc.DocAfectadoTipo == "" {
		res.Add("doc_afectado_tipo", "tipo del documento afectado requerido")
	} else if !sunat.AffectableDocumentTypeCodes[doc.DocAfectadoTipo] {
		res.Add("doc_afectado_tipo", "una nota solo puede afectar facturas (01) o boletas (03)")
	}
	if doc.DocAfectadoNumero == "" {
		res.Add("doc_afectado_numero", "número del documento afectado requerido")
	} else if !numeroDocRe.MatchString(doc.DocAfectadoNumero) {
		res.Add("doc_afectado_numero", "número %q inválido (formato SERIE-CORRELATIVO)", doc.DocAfectadoNumero)
	}

	return res
}
