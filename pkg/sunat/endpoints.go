package sunat

import "strconv"

// Ambientes de operación frente a SUNAT. Cada empresa opera en exactamente
// uno a la vez, derivado de su flag de producción.
const (
	AmbienteBeta       = "beta"
	AmbienteProduccion = "produccion"
	// AmbienteGeneral agrupa configuración que aplica a ambos ambientes.
	AmbienteGeneral = "general"
)

// Servicios SUNAT conocidos por el resolutor de endpoints.
const (
	ServicioFacturacion = "facturacion"
	ServicioGuias       = "guias"
	ServicioRetenciones = "retenciones"
	ServicioConsultas   = "consultas"
)

// Atributos consultables de un servicio.
const (
	AtributoEndpoint    = "endpoint"
	AtributoWSDL        = "wsdl"
	AtributoAPIEndpoint = "api_endpoint"
	AtributoTimeout     = "timeout"
)

// ServiceEndpoint describe un servicio en un ambiente: URL SOAP, WSDL,
// endpoint REST (solo guías) y timeout en segundos.
type ServiceEndpoint struct {
	Endpoint    string `json:"endpoint"`
	WSDL        string `json:"wsdl"`
	APIEndpoint string `json:"api_endpoint,omitempty"`
	Timeout     int    `json:"timeout"`
}

// defaultEndpoints tabla compilada de endpoints por ambiente y servicio.
// Son los valores de primera instalación; una empresa puede sobreescribirlos
// vía configuración de tipo service_endpoints.
var defaultEndpoints = map[string]map[string]ServiceEndpoint{
	AmbienteBeta: {
		ServicioFacturacion: {
			Endpoint: "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService",
			WSDL:     "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService?wsdl",
			Timeout:  30,
		},
		ServicioGuias: {
			Endpoint:    "https://e-beta.sunat.gob.pe/ol-ti-itemision-guia-gem-beta/billService",
			WSDL:        "https://e-beta.sunat.gob.pe/ol-ti-itemision-guia-gem-beta/billService?wsdl",
			APIEndpoint: "https://api-cpe-beta.sunat.gob.pe/v1/contribuyente/gem",
			Timeout:     30,
		},
		ServicioRetenciones: {
			Endpoint: "https://e-beta.sunat.gob.pe/ol-ti-itemision-otroscpe-gem-beta/billService",
			WSDL:     "https://e-beta.sunat.gob.pe/ol-ti-itemision-otroscpe-gem-beta/billService?wsdl",
			Timeout:  30,
		},
		ServicioConsultas: {
			Endpoint: "https://e-beta.sunat.gob.pe/ol-it-wsconscpegem-beta/billConsultService",
			WSDL:     "https://e-beta.sunat.gob.pe/ol-it-wsconscpegem-beta/billConsultService?wsdl",
			Timeout:  30,
		},
	},
	AmbienteProduccion: {
		ServicioFacturacion: {
			Endpoint: "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService",
			WSDL:     "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService?wsdl",
			Timeout:  60,
		},
		ServicioGuias: {
			Endpoint:    "https://e-guiaremision.sunat.gob.pe/ol-ti-itemision-guia-gem/billService",
			WSDL:        "https://e-guiaremision.sunat.gob.pe/ol-ti-itemision-guia-gem/billService?wsdl",
			APIEndpoint: "https://api-cpe.sunat.gob.pe/v1/contribuyente/gem",
			Timeout:     60,
		},
		ServicioRetenciones: {
			Endpoint: "https://e-factura.sunat.gob.pe/ol-ti-itemision-otroscpe-gem/billService",
			WSDL:     "https://e-factura.sunat.gob.pe/ol-ti-itemision-otroscpe-gem/billService?wsdl",
			Timeout:  60,
		},
		ServicioConsultas: {
			Endpoint: "https://e-factura.sunat.gob.pe/ol-it-wsconscpegem/billConsultService",
			WSDL:     "https://e-factura.sunat.gob.pe/ol-it-wsconscpegem/billConsultService?wsdl",
			Timeout:  60,
		},
	},
}

// DefaultEndpoint devuelve la entrada compilada para (ambiente, servicio).
// Si el par no existe devuelve el cero de ServiceEndpoint; nunca error, para
// que los llamadores no tengan que ramificar por ausencia.
func DefaultEndpoint(ambiente, servicio string) ServiceEndpoint {
	if svcs, ok := defaultEndpoints[ambiente]; ok {
		return svcs[servicio]
	}
	return ServiceEndpoint{}
}

// Attr devuelve el atributo pedido como string ("" si no aplica).
func (e ServiceEndpoint) Attr(atributo string) string {
	switch atributo {
	case AtributoEndpoint:
		return e.Endpoint
	case AtributoWSDL:
		return e.WSDL
	case AtributoAPIEndpoint:
		return e.APIEndpoint
	case AtributoTimeout:
		if e.Timeout == 0 {
			return ""
		}
		return strconv.Itoa(e.Timeout)
	}
	return ""
}
