// Package sunat contiene catálogos y constantes alineados a los anexos de
// comprobantes de pago electrónicos SUNAT (Perú).
package sunat

// =============================================================================
// Catálogo 01 - Tipos de documento (comprobantes de pago electrónicos)
// =============================================================================

const (
	DocTipoFactura      = "01" // Factura
	DocTipoBoleta       = "03" // Boleta de venta
	DocTipoNotaCredito  = "07" // Nota de crédito
	DocTipoNotaDebito   = "08" // Nota de débito
	DocTipoGuiaRemision = "09" // Guía de remisión remitente
	DocTipoRetencion    = "20" // Comprobante de retención
	DocTipoBaja         = "RA" // Comunicación de baja
	DocTipoResumen      = "RC" // Resumen diario de boletas
)

// ValidDocumentTypeCodes contiene los tipos de documento emitibles por el sistema.
var ValidDocumentTypeCodes = map[string]bool{
	DocTipoFactura: true, DocTipoBoleta: true, DocTipoNotaCredito: true,
	DocTipoNotaDebito: true, DocTipoGuiaRemision: true, DocTipoRetencion: true,
	DocTipoBaja: true, DocTipoResumen: true,
}

// AffectableDocumentTypeCodes tipos que una nota de crédito/débito puede afectar.
var AffectableDocumentTypeCodes = map[string]bool{
	DocTipoFactura: true, DocTipoBoleta: true,
}

// =============================================================================
// Catálogo 09 - Motivos de nota de crédito (13 códigos, conjunto cerrado)
// =============================================================================

// CreditNoteMotives códigos y descripciones del catálogo 09.
var CreditNoteMotives = map[string]string{
	"01": "Anulación de la operación",
	"02": "Anulación por error en el RUC",
	"03": "Corrección por error en la descripción",
	"04": "Descuento global",
	"05": "Descuento por ítem",
	"06": "Devolución total",
	"07": "Devolución por ítem",
	"08": "Bonificación",
	"09": "Disminución en el valor",
	"10": "Otros conceptos",
	"11": "Ajustes de operaciones de exportación",
	"12": "Ajustes afectos al IVAP",
	"13": "Ajustes - montos y/o fechas de pago",
}

// =============================================================================
// Catálogo 10 - Motivos de nota de débito
// =============================================================================

var DebitNoteMotives = map[string]string{
	"01": "Intereses por mora",
	"02": "Aumento en el valor",
	"03": "Penalidades / otros conceptos",
	"10": "Otros conceptos",
}

// =============================================================================
// Catálogo 18 - Modalidad de traslado (guía de remisión)
// =============================================================================

const (
	TrasladoPublico = "01" // Transporte público (transportista contratado)
	TrasladoPrivado = "02" // Transporte privado (vehículo y conductor propios)
)

var ValidTransferModes = map[string]bool{
	TrasladoPublico: true,
	TrasladoPrivado: true,
}

// =============================================================================
// Catálogo 20 - Motivo de traslado (guía de remisión)
// =============================================================================

const (
	// CodTrasladoEntreEstablecimientos exime de datos de conductor/vehículo
	// en modalidad privada (traslado interno de la misma empresa).
	CodTrasladoEntreEstablecimientos = "04"
)

var TransferReasons = map[string]string{
	"01": "Venta",
	"02": "Compra",
	"04": "Traslado entre establecimientos de la misma empresa",
	"08": "Importación",
	"09": "Exportación",
	"13": "Otros",
	"14": "Venta sujeta a confirmación del comprador",
	"18": "Traslado emisor itinerante CP",
	"19": "Traslado a zona primaria",
}

// =============================================================================
// Catálogo 07 - Afectación del IGV (códigos de uso frecuente por línea)
// =============================================================================

const (
	AfectacionGravada   = "10" // Gravado - operación onerosa
	AfectacionExonerada = "20" // Exonerado - operación onerosa
	AfectacionInafecta  = "30" // Inafecto - operación onerosa
	AfectacionGratuita  = "21" // Exonerado - transferencia gratuita
)

var ValidTaxAffectationCodes = map[string]bool{
	AfectacionGravada: true, AfectacionExonerada: true,
	AfectacionInafecta: true, AfectacionGratuita: true,
}

// =============================================================================
// Catálogo 06 - Tipos de documento de identidad
// =============================================================================

const (
	IdentidadDNI = "1" // DNI
	IdentidadRUC = "6" // RUC - obligatorio en facturas
)

var ValidIdentityDocumentCodes = map[string]bool{
	"0": true, IdentidadDNI: true, "4": true, IdentidadRUC: true, "7": true,
}

// DiasMaximosBaja ventana máxima (días calendario) para comunicar la baja de
// un comprobante contada desde su fecha de emisión.
const DiasMaximosBaja = 7
