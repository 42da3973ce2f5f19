package validation

import (
	"regexp"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

var (
	serieFactura = regexp.MustCompile(`^F[A-Z0-9]{3}$`)
	serieBoleta  = regexp.MustCompile(`^B[A-Z0-9]{3}$`)
	serieGuia    = regexp.MustCompile(`^T[A-Z0-9]{3}$`)
	ubigeoRe     = regexp.MustCompile(`^\d{6}$`)
	numDocRe     = regexp.MustCompile(`^\d{8,11}$`)
)

// ValidateDocumento aplica las reglas comunes a todo comprobante: estructura,
// pertenencia a catálogos, consistencia sucursal-empresa y coherencia de
// totales con las líneas. Las reglas específicas del tipo (notas, guías,
// bajas) se evalúan aparte y se mezclan en el mismo resultado.
func ValidateDocumento(
	doc *entity.FiscalDocument,
	items []*entity.DocumentItem,
	company *entity.Company,
	branch *entity.Branch,
) *Resultado {
	res := &Resultado{}
	if doc == nil {
		res.Add("documento", "documento nulo")
		return res
	}

	// 1) Estructura
	if !sunat.ValidDocumentTypeCodes[doc.TipoDoc] {
		res.Add("tipo_doc", "tipo de documento %q fuera del catálogo 01", doc.TipoDoc)
	}
	validarSerie(res, doc)
	if doc.Moneda != "PEN" && doc.Moneda != "USD" {
		res.Add("moneda", "moneda %q no soportada (PEN o USD)", doc.Moneda)
	}
	if doc.FechaEmision.IsZero() {
		res.Add("fecha_emision", "fecha de emisión requerida")
	}

	// 2) Receptor: factura exige RUC; boleta admite DNI u otros.
	switch doc.TipoDoc {
	case sunat.DocTipoFactura:
		if doc.ClienteTipoDoc != sunat.IdentidadRUC {
			res.Add("cliente_tipo_doc", "la factura exige cliente con RUC (tipo 6)")
		}
	case sunat.DocTipoBoleta:
		if doc.ClienteTipoDoc != "" && !sunat.ValidIdentityDocumentCodes[doc.ClienteTipoDoc] {
			res.Add("cliente_tipo_doc", "tipo de documento de identidad %q fuera del catálogo 06", doc.ClienteTipoDoc)
		}
	}
	if doc.ClienteNumDoc != "" && !numDocRe.MatchString(doc.ClienteNumDoc) {
		res.Add("cliente_num_doc", "número de documento del cliente inválido")
	}

	// 3) Consistencia entre entidades: la sucursal debe ser de la empresa.
	if branch == nil {
		res.Add("branch_id", "sucursal no encontrada")
	} else if company != nil && branch.CompanyID != company.ID {
		res.Add("branch_id", "la sucursal %s no pertenece a la empresa %s", branch.ID, company.ID)
	}

	// 4) Líneas y coherencia de totales (solo comprobantes con detalle).
	if tieneDetalle(doc.TipoDoc) {
		validarItems(res, doc, items)
	}

	return res
}

func tieneDetalle(tipoDoc string) bool {
	switch tipoDoc {
	case sunat.DocTipoFactura, sunat.DocTipoBoleta,
		sunat.DocTipoNotaCredito, sunat.DocTipoNotaDebito:
		return true
	}
	return false
}

func validarSerie(res *Resultado, doc *entity.FiscalDocument) {
	if doc.Serie == "" {
		res.Add("serie", "serie requerida")
		return
	}
	switch doc.TipoDoc {
	case sunat.DocTipoFactura, sunat.DocTipoRetencion:
		if !serieFactura.MatchString(doc.Serie) {
			res.Add("serie", "serie %q inválida para el tipo %s (formato Fxxx)", doc.Serie, doc.TipoDoc)
		}
	case sunat.DocTipoBoleta:
		if !serieBoleta.MatchString(doc.Serie) {
			res.Add("serie", "serie %q inválida para boleta (formato Bxxx)", doc.Serie)
		}
	case sunat.DocTipoNotaCredito, sunat.DocTipoNotaDebito:
		// La nota hereda el tipo de serie del documento afectado (F o B).
		if !serieFactura.MatchString(doc.Serie) && !serieBoleta.MatchString(doc.Serie) {
			res.Add("serie", "serie %q inválida para nota (formato Fxxx o Bxxx)", doc.Serie)
		}
	case sunat.DocTipoGuiaRemision:
		if !serieGuia.MatchString(doc.Serie) {
			res.Add("serie", "serie %q inválida para guía de remisión (formato Txxx)", doc.Serie)
		}
	}
}

func validarItems(res *Resultado, doc *entity.FiscalDocument, items []*entity.DocumentItem) {
	if len(items) == 0 {
		res.Add("items", "el comprobante debe tener al menos una línea")
		return
	}
	var sumGravado, sumIGV, sumTotal decimal.Decimal
	for i, it := range items {
		prefix := itemField(i)
		if it.Descripcion == "" {
			res.Add(prefix+".descripcion", "descripción requerida")
		}
		if !it.Cantidad.GreaterThan(decimal.Zero) {
			res.Add(prefix+".cantidad", "cantidad debe ser mayor que cero")
		}
		if it.ValorUnitario.LessThan(decimal.Zero) {
			res.Add(prefix+".valor_unitario", "valor unitario no puede ser negativo")
		}
		if !sunat.ValidTaxAffectationCodes[it.CodAfectacion] {
			res.Add(prefix+".cod_afectacion", "código de afectación %q fuera del catálogo 07", it.CodAfectacion)
		}
		sumGravado = sumGravado.Add(it.Subtotal)
		sumIGV = sumIGV.Add(it.IGV)
		sumTotal = sumTotal.Add(it.Total)
	}
	if !doc.TotalGravado.Equal(sumGravado.Round(2)) {
		res.Add("total_gravado", "total gravado (%s) no coincide con la suma de subtotales (%s)",
			doc.TotalGravado.String(), sumGravado.Round(2).String())
	}
	if !doc.TotalIGV.Equal(sumIGV.Round(2)) {
		res.Add("total_igv", "total IGV (%s) no coincide con la suma de impuestos por línea (%s)",
			doc.TotalIGV.String(), sumIGV.Round(2).String())
	}
	if !doc.TotalVenta.Equal(sumTotal.Round(2)) {
		res.Add("total_venta", "total de venta (%s) no coincide con gravado + IGV (%s)",
			doc.TotalVenta.String(), sumTotal.Round(2).String())
	}
}

func itemField(i int) string {
	return "items[" + strconv.Itoa(i) + "]"
}
