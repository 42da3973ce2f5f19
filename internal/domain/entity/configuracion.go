package entity

import (
	"encoding/json"
	"time"
)

// Tipos de configuración conocidos.
const (
	ConfigTipoFacturacion      = "facturacion"       // tasas de impuesto, flags de emisión
	ConfigTipoServiceEndpoints = "service_endpoints" // overrides de endpoints por servicio
	ConfigTipoArchivos         = "archivos"          // política de retención de artefactos
	ConfigTipoCredenciales     = "credenciales_api"  // credenciales API por ambiente
)

// ConfigurationEntry fila de configuración jerárquica de una empresa.
// La búsqueda cae de (empresa, tipo, ambiente, servicio) a (empresa, tipo,
// "general") y de ahí al default del llamador; nunca falla en silencio.
type ConfigurationEntry struct {
	ID          string
	CompanyID   string
	ConfigType  string
	Ambiente    string // beta | produccion | general
	ServiceType string // facturacion, guias, ... o "" para configuración global del tipo
	Payload     json.RawMessage
	Description string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FacturacionConfig configuración tipada del área de facturación.
type FacturacionConfig struct {
	IGVPorcentaje     float64 `json:"igv_porcentaje"`
	GenerarPDFAuto    bool    `json:"generar_pdf_auto"`
	EnviarAuto        bool    `json:"enviar_auto"`
	Reintentos        int     `json:"reintentos"`
	FormatoPDFDefecto string  `json:"formato_pdf_defecto"`
}

// ArchivosConfig política de retención de artefactos generados.
type ArchivosConfig struct {
	RetencionDias int  `json:"retencion_dias"`
	ComprimirXML  bool `json:"comprimir_xml"`
}

// Defaults de primera siembra.
const (
	DefaultIGVPorcentaje = 18.0
	DefaultReintentos    = 3
	DefaultRetencionDias = 365
)
