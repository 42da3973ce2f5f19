package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmitDocumentRequest payload de emisión de un comprobante (factura, boleta,
// nota o guía). Las etiquetas validate cubren la etapa estructural; las reglas
// de negocio se evalúan después sobre la entidad.
type EmitDocumentRequest struct {
	BranchID string `json:"branch_id" validate:"required,uuid4"`
	TipoDoc  string `json:"tipo_doc" validate:"required,len=2"`
	Serie    string `json:"serie" validate:"required,min=4,max=11"`
	Moneda   string `json:"moneda" validate:"required,len=3"`

	ClienteTipoDoc     string `json:"cliente_tipo_doc" validate:"omitempty,max=1"`
	ClienteNumDoc      string `json:"cliente_num_doc" validate:"omitempty,max=15"`
	ClienteRazonSocial string `json:"cliente_razon_social" validate:"omitempty,max=200"`

	// Notas de crédito/débito
	DocAfectadoTipo   string `json:"doc_afectado_tipo" validate:"omitempty,len=2"`
	DocAfectadoNumero string `json:"doc_afectado_numero" validate:"omitempty,max=13"`
	CodMotivo         string `json:"cod_motivo" validate:"omitempty,len=2"`
	DesMotivo         string `json:"des_motivo" validate:"omitempty,max=250"`

	Items []EmitItemRequest `json:"items" validate:"omitempty,dive"`
	Guia  *GuiaRequest      `json:"guia,omitempty"`
}

// EmitItemRequest línea de detalle del comprobante.
type EmitItemRequest struct {
	Codigo        string          `json:"codigo" validate:"omitempty,max=30"`
	Descripcion   string          `json:"descripcion" validate:"required,max=500"`
	Unidad        string          `json:"unidad" validate:"omitempty,max=3"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	ValorUnitario decimal.Decimal `json:"valor_unitario"`
	CodAfectacion string          `json:"cod_afectacion" validate:"required,len=2"`
}

// GuiaRequest datos de traslado de la guía de remisión.
type GuiaRequest struct {
	ModTraslado   string          `json:"mod_traslado" validate:"required,len=2"`
	CodTraslado   string          `json:"cod_traslado" validate:"required,len=2"`
	PesoBrutoKg   decimal.Decimal `json:"peso_bruto_kg"`
	FechaTraslado time.Time       `json:"fecha_traslado"`
	IndicadorM1L  bool            `json:"indicador_m1l"`

	TransportistaTipoDoc     string `json:"transportista_tipo_doc" validate:"omitempty,max=1"`
	TransportistaNumDoc      string `json:"transportista_num_doc" validate:"omitempty,max=15"`
	TransportistaRazonSocial string `json:"transportista_razon_social" validate:"omitempty,max=200"`

	ConductorTipoDoc   string `json:"conductor_tipo_doc" validate:"omitempty,max=1"`
	ConductorNumDoc    string `json:"conductor_num_doc" validate:"omitempty,max=15"`
	ConductorLicencia  string `json:"conductor_licencia" validate:"omitempty,max=10"`
	ConductorNombres   string `json:"conductor_nombres" validate:"omitempty,max=100"`
	ConductorApellidos string `json:"conductor_apellidos" validate:"omitempty,max=100"`
	VehiculoPlaca      string `json:"vehiculo_placa" validate:"omitempty,max=8"`

	PartidaUbigeo    string `json:"partida_ubigeo" validate:"omitempty,len=6"`
	PartidaDireccion string `json:"partida_direccion" validate:"omitempty,max=200"`
	LlegadaUbigeo    string `json:"llegada_ubigeo" validate:"omitempty,len=6"`
	LlegadaDireccion string `json:"llegada_direccion" validate:"omitempty,max=200"`
}

// BajaItemRequest documento incluido en una comunicación de baja.
type BajaItemRequest struct {
	TipoDocumento string `json:"tipo_documento" validate:"required,len=2"`
	Serie         string `json:"serie" validate:"required,min=4,max=4"`
	Correlativo   string `json:"correlativo" validate:"required,max=8"`
	Motivo        string `json:"motivo" validate:"required,max=100"`
}

// VoidDocumentsRequest comunicación de baja de documentos aceptados.
type VoidDocumentsRequest struct {
	BranchID        string            `json:"branch_id" validate:"required,uuid4"`
	FechaReferencia time.Time         `json:"fecha_referencia"`
	Items           []BajaItemRequest `json:"items" validate:"required,min=1,dive"`
}

// DailySummaryRequest generación del resumen diario de boletas.
type DailySummaryRequest struct {
	BranchID string    `json:"branch_id" validate:"required,uuid4"`
	Fecha    time.Time `json:"fecha"`
}

// SetCredentialsRequest escritura parcial de credenciales de un ambiente.
type SetCredentialsRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1"`
}

// DocumentResponse vista del comprobante para el caller.
type DocumentResponse struct {
	ID          string `json:"id"`
	TipoDoc     string `json:"tipo_doc"`
	Numero      string `json:"numero"`
	SunatStatus string `json:"sunat_status"`
	Ticket      string `json:"ticket,omitempty"`
	SunatErrors string `json:"sunat_errors,omitempty"`
	XMLPath     string `json:"xml_path,omitempty"`
	CDRPath     string `json:"cdr_path,omitempty"`
	PDFPath     string `json:"pdf_path,omitempty"`
}

// BatchItemResult resultado por documento de una operación batch; un ítem
// fallido no aborta al resto.
type BatchItemResult struct {
	DocumentID string `json:"document_id"`
	Numero     string `json:"numero"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}
