package sunat

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// Namespaces UBL 2.1 y extensiones SUNAT.
const (
	nsInvoice        = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCreditNote     = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	nsDebitNote      = "urn:oasis:names:specification:ubl:schema:xsd:DebitNote-2"
	nsDespatch       = "urn:oasis:names:specification:ubl:schema:xsd:DespatchAdvice-2"
	nsSummary        = "urn:sunat:names:specification:ubl:peru:schema:xsd:SummaryDocuments-1"
	nsVoided         = "urn:sunat:names:specification:ubl:peru:schema:xsd:VoidedDocuments-1"
	nsRetention      = "urn:sunat:names:specification:ubl:peru:schema:xsd:Retention-1"
	nsCac            = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCbc            = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	nsExt            = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	nsSac            = "urn:sunat:names:specification:ubl:peru:schema:xsd:SunatAggregateComponents-1"
	nsDs             = "http://www.w3.org/2000/09/xmldsig#"
)

// catálogo 51: código de operación para resumen/baja de boletas.
const (
	summaryStatusAdicion = "1"
)

// UBLBuilder construye el XML UBL 2.1 del comprobante según su tipo. El
// documento sale sin firma: el firmador inyecta ds:Signature en el
// ext:ExtensionContent que el builder deja vacío.
type UBLBuilder struct{}

func NewUBLBuilder() *UBLBuilder {
	return &UBLBuilder{}
}

func (s *UBLBuilder) Build(doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, branch *entity.Branch) ([]byte, error) {
	if doc == nil || company == nil {
		return nil, fmt.Errorf("ubl: faltan documento o empresa")
	}
	switch doc.TipoDoc {
	case sunat.DocTipoFactura, sunat.DocTipoBoleta:
		return s.buildInvoice(doc, items, company)
	case sunat.DocTipoNotaCredito:
		return s.buildNote(doc, items, company, false)
	case sunat.DocTipoNotaDebito:
		return s.buildNote(doc, items, company, true)
	case sunat.DocTipoGuiaRemision:
		return s.buildDespatchAdvice(doc, items, company, branch)
	case sunat.DocTipoResumen:
		return s.buildSummary(doc, company)
	case sunat.DocTipoBaja:
		return s.buildVoided(doc, company)
	case sunat.DocTipoRetencion:
		return s.buildRetention(doc, company)
	}
	return nil, fmt.Errorf("ubl: tipo de documento %s sin plantilla", doc.TipoDoc)
}

// ── Invoice (factura y boleta) ────────────────────────────────────────────────

func (s *UBLBuilder) buildInvoice(doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement("Invoice", nsInvoice)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "2.0")
	writeCbc(enc, "ID", doc.Numero())
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", doc.FechaEmision.Format("15:04:05"))
	writeCbcAttr(enc, "InvoiceTypeCode", doc.TipoDoc, "listID", "0101")
	writeCbcAttr(enc, "DocumentCurrencyCode", doc.Moneda, "listID", "ISO 4217 Alpha")
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(items)))

	writeSupplier(enc, company)
	writeCustomer(enc, doc)
	writeTaxTotal(enc, doc)
	writeMonetaryTotal(enc, doc, "LegalMonetaryTotal")

	for i, it := range items {
		writeLine(enc, i+1, it, doc.Moneda, "InvoiceLine", "InvoicedQuantity")
	}

	return finish(enc, &buf, root)
}

// ── Notas de crédito y débito ─────────────────────────────────────────────────

func (s *UBLBuilder) buildNote(doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, debit bool) ([]byte, error) {
	rootName, ns := "CreditNote", nsCreditNote
	lineName, qtyName := "CreditNoteLine", "CreditedQuantity"
	if debit {
		rootName, ns = "DebitNote", nsDebitNote
		lineName, qtyName = "DebitNoteLine", "DebitedQuantity"
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement(rootName, ns)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "2.0")
	writeCbc(enc, "ID", doc.Numero())
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))
	writeCbcAttr(enc, "DocumentCurrencyCode", doc.Moneda, "listID", "ISO 4217 Alpha")

	// Motivo de la nota (catálogos 09/10) y referencia al documento afectado.
	writeStartCac(enc, "DiscrepancyResponse")
	writeCbc(enc, "ReferenceID", doc.DocAfectadoNumero)
	writeCbc(enc, "ResponseCode", doc.CodMotivo)
	writeCbc(enc, "Description", doc.DesMotivo)
	writeEndCac(enc, "DiscrepancyResponse")

	writeStartCac(enc, "BillingReference")
	writeStartCac(enc, "InvoiceDocumentReference")
	writeCbc(enc, "ID", doc.DocAfectadoNumero)
	writeCbcAttr(enc, "DocumentTypeCode", doc.DocAfectadoTipo, "listAgencyName", "PE:SUNAT")
	writeEndCac(enc, "InvoiceDocumentReference")
	writeEndCac(enc, "BillingReference")

	writeSupplier(enc, company)
	writeCustomer(enc, doc)
	writeTaxTotal(enc, doc)
	totalName := "LegalMonetaryTotal"
	if debit {
		totalName = "RequestedMonetaryTotal"
	}
	writeMonetaryTotal(enc, doc, totalName)

	for i, it := range items {
		writeLine(enc, i+1, it, doc.Moneda, lineName, qtyName)
	}

	return finish(enc, &buf, root)
}

// ── Guía de remisión (DespatchAdvice) ─────────────────────────────────────────

func (s *UBLBuilder) buildDespatchAdvice(doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, branch *entity.Branch) ([]byte, error) {
	g := doc.Guia
	if g == nil {
		return nil, fmt.Errorf("ubl: la guía %s no tiene datos de traslado", doc.Numero())
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement("DespatchAdvice", nsDespatch)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.1")
	writeCbc(enc, "CustomizationID", "2.0")
	writeCbc(enc, "ID", doc.Numero())
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))
	writeCbc(enc, "DespatchAdviceTypeCode", doc.TipoDoc)

	writeStartCac(enc, "DespatchSupplierParty")
	writeParty(enc, sunat.IdentidadRUC, company.RUC, company.RazonSocial)
	writeEndCac(enc, "DespatchSupplierParty")

	writeStartCac(enc, "DeliveryCustomerParty")
	writeParty(enc, doc.ClienteTipoDoc, doc.ClienteNumDoc, doc.ClienteRazonSocial)
	writeEndCac(enc, "DeliveryCustomerParty")

	// cac:Shipment: motivo, peso, modalidad, transportista o conductor, ruta.
	writeStartCac(enc, "Shipment")
	writeCbc(enc, "ID", "1")
	writeCbcAttr(enc, "HandlingCode", g.CodTraslado, "listAgencyName", "PE:SUNAT")
	writeCbcAmountAttr(enc, "GrossWeightMeasure", g.PesoBrutoKg.Round(3).String(), "unitCode", "KGM")

	writeStartCac(enc, "ShipmentStage")
	writeCbc(enc, "TransportModeCode", g.ModTraslado)
	writeStartCac(enc, "TransitPeriod")
	writeCbc(enc, "StartDate", g.FechaTraslado.Format("2006-01-02"))
	writeEndCac(enc, "TransitPeriod")

	if g.ModTraslado == sunat.TrasladoPublico {
		writeStartCac(enc, "CarrierParty")
		writeParty(enc, g.TransportistaTipoDoc, g.TransportistaNumDoc, g.TransportistaRazonSocial)
		writeEndCac(enc, "CarrierParty")
	} else if !g.IndicadorM1L && g.CodTraslado != sunat.CodTrasladoEntreEstablecimientos {
		writeStartCac(enc, "DriverPerson")
		writeCbcAttr(enc, "ID", g.ConductorNumDoc, "schemeID", g.ConductorTipoDoc)
		writeCbc(enc, "FirstName", g.ConductorNombres)
		writeCbc(enc, "FamilyName", g.ConductorApellidos)
		writeCbc(enc, "JobTitle", "Principal")
		writeStartCac(enc, "IdentityDocumentReference")
		writeCbc(enc, "ID", g.ConductorLicencia)
		writeEndCac(enc, "IdentityDocumentReference")
		writeEndCac(enc, "DriverPerson")
	}
	writeEndCac(enc, "ShipmentStage")

	if g.ModTraslado == sunat.TrasladoPrivado && !g.IndicadorM1L && g.VehiculoPlaca != "" {
		writeStartCac(enc, "TransportHandlingUnit")
		writeStartCac(enc, "TransportEquipment")
		writeCbc(enc, "ID", g.VehiculoPlaca)
		writeEndCac(enc, "TransportEquipment")
		writeEndCac(enc, "TransportHandlingUnit")
	}

	writeStartCac(enc, "Delivery")
	writeStartCac(enc, "DeliveryAddress")
	writeCbcAttr(enc, "ID", g.LlegadaUbigeo, "schemeAgencyName", "PE:INEI")
	writeStartCac(enc, "AddressLine")
	writeCbc(enc, "Line", g.LlegadaDireccion)
	writeEndCac(enc, "AddressLine")
	writeEndCac(enc, "DeliveryAddress")
	writeStartCac(enc, "Despatch")
	writeStartCac(enc, "DespatchAddress")
	writeCbcAttr(enc, "ID", g.PartidaUbigeo, "schemeAgencyName", "PE:INEI")
	writeStartCac(enc, "AddressLine")
	writeCbc(enc, "Line", g.PartidaDireccion)
	writeEndCac(enc, "AddressLine")
	writeEndCac(enc, "DespatchAddress")
	writeEndCac(enc, "Despatch")
	writeEndCac(enc, "Delivery")
	writeEndCac(enc, "Shipment")

	for i, it := range items {
		writeStartCac(enc, "DespatchLine")
		writeCbc(enc, "ID", strconv.Itoa(i+1))
		writeCbcAmountAttr(enc, "DeliveredQuantity", it.Cantidad.String(), "unitCode", it.Unidad)
		writeStartCac(enc, "OrderLineReference")
		writeCbc(enc, "LineID", strconv.Itoa(i+1))
		writeEndCac(enc, "OrderLineReference")
		writeStartCac(enc, "Item")
		writeCbc(enc, "Description", it.Descripcion)
		if it.Codigo != "" {
			writeStartCac(enc, "SellersItemIdentification")
			writeCbc(enc, "ID", it.Codigo)
			writeEndCac(enc, "SellersItemIdentification")
		}
		writeEndCac(enc, "Item")
		writeEndCac(enc, "DespatchLine")
	}

	return finish(enc, &buf, root)
}

// ── Resumen diario (SummaryDocuments) ─────────────────────────────────────────

func (s *UBLBuilder) buildSummary(doc *entity.FiscalDocument, company *entity.Company) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement("SummaryDocuments", nsSummary)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.0")
	writeCbc(enc, "CustomizationID", "1.1")
	writeCbc(enc, "ID", doc.Numero())
	if doc.FechaReferencia != nil {
		writeCbc(enc, "ReferenceDate", doc.FechaReferencia.Format("2006-01-02"))
	}
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))

	writeAccountingSupplier(enc, company)

	writeStartSac(enc, "SummaryDocumentsLine")
	writeCbc(enc, "LineID", "1")
	writeCbc(enc, "DocumentTypeCode", sunat.DocTipoBoleta)
	writeSacStatus(enc, summaryStatusAdicion)
	writeCbcAmount(enc, "TotalAmount", doc.TotalVenta, doc.Moneda)
	writeStartSac(enc, "BillingPayment")
	writeCbcAmount(enc, "PaidAmount", doc.TotalGravado, doc.Moneda)
	writeCbc(enc, "InstructionID", "01")
	writeEndSac(enc, "BillingPayment")
	writeStartCac(enc, "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", doc.TotalIGV, doc.Moneda)
	writeEndCac(enc, "TaxTotal")
	writeEndSac(enc, "SummaryDocumentsLine")

	return finish(enc, &buf, root)
}

// ── Comunicación de baja (VoidedDocuments) ────────────────────────────────────

func (s *UBLBuilder) buildVoided(doc *entity.FiscalDocument, company *entity.Company) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement("VoidedDocuments", nsVoided)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.0")
	writeCbc(enc, "CustomizationID", "1.0")
	writeCbc(enc, "ID", doc.Numero())
	if doc.FechaReferencia != nil {
		writeCbc(enc, "ReferenceDate", doc.FechaReferencia.Format("2006-01-02"))
	}
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))

	writeAccountingSupplier(enc, company)

	for i, it := range doc.BajaItems {
		writeStartSac(enc, "VoidedDocumentsLine")
		writeCbc(enc, "LineID", strconv.Itoa(i+1))
		writeCbc(enc, "DocumentTypeCode", it.TipoDocumento)
		writeSacText(enc, "DocumentSerialID", it.Serie)
		writeSacText(enc, "DocumentNumberID", it.Correlativo)
		writeSacText(enc, "VoidReasonDescription", it.Motivo)
		writeEndSac(enc, "VoidedDocumentsLine")
	}

	return finish(enc, &buf, root)
}

// ── Comprobante de retención ──────────────────────────────────────────────────

func (s *UBLBuilder) buildRetention(doc *entity.FiscalDocument, company *entity.Company) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := rootElement("Retention", nsRetention)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	writeExtensionsPlaceholder(enc)

	writeCbc(enc, "UBLVersionID", "2.0")
	writeCbc(enc, "CustomizationID", "1.0")
	writeCbc(enc, "ID", doc.Numero())
	writeCbc(enc, "IssueDate", doc.FechaEmision.Format("2006-01-02"))

	writeAccountingSupplier(enc, company)

	writeStartSac(enc, "SUNATRetentionDocumentReference")
	writeCbcAttr(enc, "ID", doc.DocAfectadoNumero, "schemeID", doc.DocAfectadoTipo)
	writeCbcAmount(enc, "TotalInvoiceAmount", doc.TotalVenta, doc.Moneda)
	writeEndSac(enc, "SUNATRetentionDocumentReference")

	writeCbcAmount(enc, "TotalPaid", doc.TotalVenta.Sub(doc.TotalIGV), doc.Moneda)

	return finish(enc, &buf, root)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func rootElement(local, ns string) xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: local},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: ns},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: nsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: nsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: nsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: nsExt},
			{Name: xml.Name{Local: "xmlns:sac"}, Value: nsSac},
		},
	}
}

// writeExtensionsPlaceholder deja un ExtensionContent vacío como primer hijo;
// el firmador inyecta ahí el nodo ds:Signature.
func writeExtensionsPlaceholder(enc *xml.Encoder) {
	start := func(local string) {
		_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "ext:" + local}})
	}
	end := func(local string) {
		_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "ext:" + local}})
	}
	start("UBLExtensions")
	start("UBLExtension")
	start("ExtensionContent")
	end("ExtensionContent")
	end("UBLExtension")
	end("UBLExtensions")
}

func writeSupplier(enc *xml.Encoder, company *entity.Company) {
	writeStartCac(enc, "AccountingSupplierParty")
	writeParty(enc, sunat.IdentidadRUC, company.RUC, company.RazonSocial)
	writeEndCac(enc, "AccountingSupplierParty")
}

func writeCustomer(enc *xml.Encoder, doc *entity.FiscalDocument) {
	writeStartCac(enc, "AccountingCustomerParty")
	writeParty(enc, doc.ClienteTipoDoc, doc.ClienteNumDoc, doc.ClienteRazonSocial)
	writeEndCac(enc, "AccountingCustomerParty")
}

// writeAccountingSupplier variante para resumen/baja/retención (sin Party anidado en CustomerParty).
func writeAccountingSupplier(enc *xml.Encoder, company *entity.Company) {
	writeStartCac(enc, "AccountingSupplierParty")
	writeCbcAttr(enc, "CustomerAssignedAccountID", company.RUC, "schemeID", sunat.IdentidadRUC)
	writeCbc(enc, "AdditionalAccountID", sunat.IdentidadRUC)
	writeStartCac(enc, "Party")
	writeStartCac(enc, "PartyLegalEntity")
	writeCbc(enc, "RegistrationName", company.RazonSocial)
	writeEndCac(enc, "PartyLegalEntity")
	writeEndCac(enc, "Party")
	writeEndCac(enc, "AccountingSupplierParty")
}

func writeParty(enc *xml.Encoder, tipoDoc, numDoc, razonSocial string) {
	writeStartCac(enc, "Party")
	writeStartCac(enc, "PartyIdentification")
	writeCbcAttr(enc, "ID", numDoc, "schemeID", tipoDoc)
	writeEndCac(enc, "PartyIdentification")
	writeStartCac(enc, "PartyLegalEntity")
	writeCbc(enc, "RegistrationName", razonSocial)
	writeEndCac(enc, "PartyLegalEntity")
	writeEndCac(enc, "Party")
}

func writeTaxTotal(enc *xml.Encoder, doc *entity.FiscalDocument) {
	writeStartCac(enc, "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", doc.TotalIGV, doc.Moneda)
	writeStartCac(enc, "TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", doc.TotalGravado, doc.Moneda)
	writeCbcAmount(enc, "TaxAmount", doc.TotalIGV, doc.Moneda)
	writeStartCac(enc, "TaxCategory")
	writeStartCac(enc, "TaxScheme")
	writeCbc(enc, "ID", "1000")
	writeCbc(enc, "Name", "IGV")
	writeCbc(enc, "TaxTypeCode", "VAT")
	writeEndCac(enc, "TaxScheme")
	writeEndCac(enc, "TaxCategory")
	writeEndCac(enc, "TaxSubtotal")
	writeEndCac(enc, "TaxTotal")
}

func writeMonetaryTotal(enc *xml.Encoder, doc *entity.FiscalDocument, name string) {
	writeStartCac(enc, name)
	writeCbcAmount(enc, "LineExtensionAmount", doc.TotalGravado, doc.Moneda)
	writeCbcAmount(enc, "TaxInclusiveAmount", doc.TotalVenta, doc.Moneda)
	writeCbcAmount(enc, "PayableAmount", doc.TotalVenta, doc.Moneda)
	writeEndCac(enc, name)
}

func writeLine(enc *xml.Encoder, n int, it *entity.DocumentItem, moneda, lineName, qtyName string) {
	writeStartCac(enc, lineName)
	writeCbc(enc, "ID", strconv.Itoa(n))
	writeCbcAmountAttr(enc, qtyName, it.Cantidad.String(), "unitCode", it.Unidad)
	writeCbcAmount(enc, "LineExtensionAmount", it.Subtotal, moneda)

	writeStartCac(enc, "TaxTotal")
	writeCbcAmount(enc, "TaxAmount", it.IGV, moneda)
	writeStartCac(enc, "TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", it.Subtotal, moneda)
	writeCbcAmount(enc, "TaxAmount", it.IGV, moneda)
	writeStartCac(enc, "TaxCategory")
	writeCbc(enc, "TaxExemptionReasonCode", it.CodAfectacion)
	writeStartCac(enc, "TaxScheme")
	writeCbc(enc, "ID", "1000")
	writeCbc(enc, "Name", "IGV")
	writeCbc(enc, "TaxTypeCode", "VAT")
	writeEndCac(enc, "TaxScheme")
	writeEndCac(enc, "TaxCategory")
	writeEndCac(enc, "TaxSubtotal")
	writeEndCac(enc, "TaxTotal")

	writeStartCac(enc, "Item")
	writeCbc(enc, "Description", it.Descripcion)
	if it.Codigo != "" {
		writeStartCac(enc, "SellersItemIdentification")
		writeCbc(enc, "ID", it.Codigo)
		writeEndCac(enc, "SellersItemIdentification")
	}
	writeEndCac(enc, "Item")

	writeStartCac(enc, "Price")
	writeCbcAmount(enc, "PriceAmount", it.ValorUnitario, moneda)
	writeEndCac(enc, "Price")

	writeEndCac(enc, lineName)
}

func writeSacStatus(enc *xml.Encoder, code string) {
	writeStartCac(enc, "Status")
	writeCbc(enc, "ConditionCode", code)
	writeEndCac(enc, "Status")
}

func writeCbc(enc *xml.Encoder, local, value string) {
	name := xml.Name{Local: "cbc:" + local}
	_ = enc.EncodeToken(xml.StartElement{Name: name})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

func writeCbcAttr(enc *xml.Encoder, local, value, attrName, attrValue string) {
	name := xml.Name{Local: "cbc:" + local}
	_ = enc.EncodeToken(xml.StartElement{
		Name: name,
		Attr: []xml.Attr{{Name: xml.Name{Local: attrName}, Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

func writeCbcAmount(enc *xml.Encoder, local string, amount decimal.Decimal, moneda string) {
	writeCbcAttr(enc, local, amount.Round(2).StringFixed(2), "currencyID", moneda)
}

func writeCbcAmountAttr(enc *xml.Encoder, local, value, attrName, attrValue string) {
	writeCbcAttr(enc, local, value, attrName, attrValue)
}

func writeStartCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "cac:" + local}})
}

func writeEndCac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "cac:" + local}})
}

func writeStartSac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: "sac:" + local}})
}

func writeEndSac(enc *xml.Encoder, local string) {
	_ = enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: "sac:" + local}})
}

func writeSacText(enc *xml.Encoder, local, value string) {
	name := xml.Name{Local: "sac:" + local}
	_ = enc.EncodeToken(xml.StartElement{Name: name})
	_ = enc.EncodeToken(xml.CharData(value))
	_ = enc.EncodeToken(xml.EndElement{Name: name})
}

func finish(enc *xml.Encoder, buf *bytes.Buffer, root xml.StartElement) ([]byte, error) {
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ billing.XMLBuilder = (*UBLBuilder)(nil)
