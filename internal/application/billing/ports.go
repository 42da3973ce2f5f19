package billing

import (
	"context"
	"time"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
)

// Cache puerto de la caché de configuración/credenciales. Las lecturas pueden
// servirse obsoletas hasta el TTL; las invalidaciones son síncronas.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// DeletePrefix elimina todas las claves del namespace (invalidación por empresa).
	DeletePrefix(ctx context.Context, prefix string)
}

// XMLBuilder construye el XML UBL 2.1 del comprobante (sin firma).
type XMLBuilder interface {
	Build(doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, branch *entity.Branch) ([]byte, error)
}

// Signer firma el XML y devuelve el documento con la firma inyectada más el
// digest (para el QR). Un fallo de firma es permanente, nunca se reintenta.
type Signer interface {
	Sign(xmlBytes []byte) (signed []byte, digest string, err error)
}

// SubmitResult resultado de la entrega o consulta al WS SUNAT.
type SubmitResult struct {
	Ticket   string // número de ticket para envíos asíncronos (resumen/baja)
	Accepted bool
	Rejected bool
	Pending  bool   // acuse aún no disponible (seguir consultando)
	Errors   string // observaciones/rechazos devueltos por SUNAT
	CDR      []byte // constancia de recepción (ZIP) cuando hay acuse
}

// Submitter puerto de salida hacia el WS SUNAT. Recibe el XML firmado y el
// nombre del ZIP a entregar; el empaquetado es responsabilidad del adaptador.
// Los errores de red/timeout se devuelven envueltos en domain.ErrTransporte;
// un rechazo de negocio NO es un error de esta interfaz sino Rejected=true en
// el resultado.
type Submitter interface {
	Submit(ctx context.Context, signedXML []byte, zipName, endpoint string, creds entity.CredentialSet) (*SubmitResult, error)
	PollStatus(ctx context.Context, ticket, endpoint string, creds entity.CredentialSet) (*SubmitResult, error)
}

// Prober sonda liviana de conectividad contra un endpoint resuelto. Verifica
// alcanzabilidad, no capacidad de aceptar documentos.
type Prober interface {
	Probe(ctx context.Context, url string, timeout time.Duration) (status int, latency time.Duration, err error)
}

// FileStore almacenamiento de artefactos (XML, CDR, PDF).
type FileStore interface {
	Save(ctx context.Context, relPath string, data []byte) (path string, err error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// PDFRenderer genera la representación impresa del comprobante en el formato
// pedido (A4, A5, 80mm, 50mm).
type PDFRenderer interface {
	Render(ctx context.Context, doc *entity.FiscalDocument, items []*entity.DocumentItem, company *entity.Company, formato string) ([]byte, error)
}

// BillingTxRunner ejecuta fn dentro de una transacción con los repositorios de
// documentos y correlativos atados a ella. La reserva del correlativo y la
// creación del comprobante forman una sola unidad atómica: un crash no puede
// quemar un número sin fila que lo referencie.
type BillingTxRunner interface {
	RunEmision(ctx context.Context, fn func(
		docs repository.DocumentRepository,
		correlativos repository.CorrelativeRepository,
	) error) error
}
