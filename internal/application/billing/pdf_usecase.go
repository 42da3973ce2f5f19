package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// Formatos de representación impresa.
const (
	FormatoA4   = "A4"
	FormatoA5   = "A5"
	Formato80mm = "80mm"
	Formato50mm = "50mm"
)

// formatosPorTipo formatos admitidos por tipo de documento. Las boletas salen
// también en ticket (80/50 mm); facturas y notas en hoja; la guía solo en A4.
var formatosPorTipo = map[string]map[string]bool{
	sunat.DocTipoFactura:      {FormatoA4: true, FormatoA5: true},
	sunat.DocTipoBoleta:       {FormatoA4: true, FormatoA5: true, Formato80mm: true, Formato50mm: true},
	sunat.DocTipoNotaCredito:  {FormatoA4: true, FormatoA5: true},
	sunat.DocTipoNotaDebito:   {FormatoA4: true, FormatoA5: true},
	sunat.DocTipoGuiaRemision: {FormatoA4: true},
	sunat.DocTipoRetencion:    {FormatoA4: true},
}

// PDFUseCase enruta (documento, formato) al pipeline de render correcto y
// persiste la ruta del artefacto resultante.
type PDFUseCase struct {
	docs      repository.DocumentRepository
	companies repository.CompanyRepository
	renderer  PDFRenderer
	files     FileStore
	log       *logger.Logger

	now func() time.Time
}

// NewPDFUseCase construye el despachador de PDFs.
func NewPDFUseCase(docs repository.DocumentRepository, companies repository.CompanyRepository, renderer PDFRenderer, files FileStore, log *logger.Logger) *PDFUseCase {
	return &PDFUseCase{docs: docs, companies: companies, renderer: renderer, files: files, log: log, now: time.Now}
}

// Generate renderiza el PDF del documento en el formato pedido (o el admitido
// por defecto), guarda el artefacto y actualiza la ruta en el documento.
func (uc *PDFUseCase) Generate(ctx context.Context, documentID, formato string) (string, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil || doc == nil {
		return "", domain.ErrNotFound
	}
	permitidos, ok := formatosPorTipo[doc.TipoDoc]
	if !ok {
		return "", fmt.Errorf("%w: el tipo %s no tiene representación impresa", domain.ErrInvalidInput, doc.TipoDoc)
	}
	if formato == "" {
		formato = FormatoA4
	}
	if !permitidos[formato] {
		return "", fmt.Errorf("%w: formato %s no admitido para el tipo %s", domain.ErrInvalidInput, formato, doc.TipoDoc)
	}

	company, err := uc.companies.GetByID(ctx, doc.CompanyID)
	if err != nil || company == nil {
		return "", domain.ErrNotFound
	}
	items, err := uc.docs.GetItems(ctx, doc.ID)
	if err != nil {
		return "", fmt.Errorf("leer líneas del documento: %w", err)
	}

	pdfBytes, err := uc.renderer.Render(ctx, doc, items, company, formato)
	if err != nil {
		return "", fmt.Errorf("renderizar PDF %s: %w", formato, err)
	}

	name := artifactName(company.RUC, doc) + "-" + formato + ".pdf"
	path, err := uc.files.Save(ctx, name, pdfBytes)
	if err != nil {
		return "", fmt.Errorf("guardar PDF: %w", err)
	}

	doc.PDFPath = path
	doc.UpdatedAt = uc.now()
	if err := uc.docs.Update(ctx, doc); err != nil {
		return "", fmt.Errorf("actualizar ruta del PDF: %w", err)
	}
	uc.log.Info().Str("document_id", doc.ID).Str("formato", formato).Msg("PDF generado")
	return path, nil
}
