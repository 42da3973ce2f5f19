package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de envío a SUNAT.
//
//	DRAFT → PENDING → SUBMITTING → (ACCEPTED | REJECTED | ERROR)
//
// REJECTED/ERROR pueden volver a SUBMITTING vía reintento (ERROR hasta el tope
// configurado). VOIDED es terminal y solo alcanzable desde ACCEPTED mediante
// una comunicación de baja.
const (
	EstadoDraft      = "DRAFT"
	EstadoPending    = "PENDING"
	EstadoSubmitting = "SUBMITTING"
	EstadoAccepted   = "ACCEPTED"
	EstadoRejected   = "REJECTED"
	EstadoError      = "ERROR"
	EstadoVoided     = "VOIDED"
)

// CanTransition reporta si el ciclo de vida permite pasar de from a to.
func CanTransition(from, to string) bool {
	switch from {
	case EstadoDraft:
		return to == EstadoPending
	case EstadoPending:
		return to == EstadoSubmitting || to == EstadoError
	case EstadoSubmitting:
		return to == EstadoAccepted || to == EstadoRejected || to == EstadoError
	case EstadoRejected, EstadoError:
		return to == EstadoSubmitting
	case EstadoAccepted:
		return to == EstadoVoided
	}
	return false
}

// FiscalDocument comprobante electrónico (factura, boleta, nota, guía,
// retención, resumen o baja). Inmutable una vez ACCEPTED salvo las rutas de
// artefactos y el paso a VOIDED.
type FiscalDocument struct {
	ID           string
	CompanyID    string
	BranchID     string
	TipoDoc      string // catálogo 01 (o RA/RC)
	Serie        string
	Correlativo  uint64
	Moneda       string // PEN, USD
	FechaEmision time.Time

	// Receptor
	ClienteTipoDoc     string // catálogo 06
	ClienteNumDoc      string
	ClienteRazonSocial string

	// Totales calculados
	TotalGravado decimal.Decimal
	TotalIGV     decimal.Decimal
	TotalVenta   decimal.Decimal

	// Notas de crédito/débito: documento afectado y motivo (catálogos 09/10).
	DocAfectadoTipo   string
	DocAfectadoNumero string // SERIE-CORRELATIVO
	CodMotivo         string
	DesMotivo         string

	// Guía de remisión
	Guia *GuiaRemisionData

	// Resumen diario y baja: fecha de referencia (emisión de los documentos agrupados).
	FechaReferencia *time.Time

	// Comunicación de baja: documentos comunicados (persistidos como JSON).
	BajaItems []BajaItem

	// Boletas: marcada cuando ya fue incluida en un resumen diario (snapshot
	// idempotente; no se vuelve a seleccionar aunque el resumen falle).
	IncluidaEnResumen bool
	ResumenID         string

	// Envío
	SunatStatus string
	TicketSunat string // número de ticket para envíos asíncronos (resumen/baja)
	SunatErrors string // mensajes de rechazo/observación devueltos por SUNAT
	Intentos    int    // reintentos consumidos tras errores transitorios

	// Artefactos
	XMLPath string
	CDRPath string
	PDFPath string
	Hash    string // digest del XML firmado (para el QR)

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Numero representación SERIE-CORRELATIVO del documento.
func (d *FiscalDocument) Numero() string {
	return d.Serie + "-" + formatCorrelativo(d.Correlativo)
}

func formatCorrelativo(n uint64) string {
	s := decimal.NewFromUint64(n).String()
	for len(s) < 8 {
		s = "0" + s
	}
	return s
}

// DocumentItem línea de detalle de un comprobante.
type DocumentItem struct {
	ID           string
	DocumentID   string
	Codigo       string
	Descripcion  string
	Unidad       string // código UNECE (NIU, KGM, ...)
	Cantidad     decimal.Decimal
	ValorUnitario decimal.Decimal
	CodAfectacion string // catálogo 07
	Subtotal     decimal.Decimal
	IGV          decimal.Decimal
	Total        decimal.Decimal
}

// GuiaRemisionData datos propios de la guía de remisión (catálogos 18 y 20).
// Los campos de transportista aplican en modalidad pública; los de conductor y
// vehículo en modalidad privada.
type GuiaRemisionData struct {
	ModTraslado    string // 01 público, 02 privado
	CodTraslado    string // motivo de traslado
	PesoBrutoKg    decimal.Decimal
	FechaTraslado  time.Time
	IndicadorM1L   bool // vehículos menores M1/L: exime conductor/vehículo

	// Transporte público
	TransportistaTipoDoc     string
	TransportistaNumDoc      string
	TransportistaRazonSocial string

	// Transporte privado
	ConductorTipoDoc  string
	ConductorNumDoc   string
	ConductorLicencia string
	ConductorNombres  string
	ConductorApellidos string
	VehiculoPlaca     string

	// Puntos de partida y llegada
	PartidaUbigeo   string
	PartidaDireccion string
	LlegadaUbigeo   string
	LlegadaDireccion string
}

// BajaItem documento incluido en una comunicación de baja.
type BajaItem struct {
	TipoDocumento string
	Serie         string
	Correlativo   string
	Motivo        string
}
