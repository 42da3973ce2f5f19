package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/validation"
)

// DocumentHandler endpoints de emisión y ciclo de vida de comprobantes.
type DocumentHandler struct {
	emit    *billing.EmitDocumentUseCase
	void    *billing.VoidDocumentsUseCase
	summary *billing.DailySummaryUseCase
	pending *billing.CheckPendingUseCase
	pdf     *billing.PDFUseCase
}

func NewDocumentHandler(
	emit *billing.EmitDocumentUseCase,
	void *billing.VoidDocumentsUseCase,
	summary *billing.DailySummaryUseCase,
	pending *billing.CheckPendingUseCase,
	pdf *billing.PDFUseCase,
) *DocumentHandler {
	return &DocumentHandler{emit: emit, void: void, summary: summary, pending: pending, pdf: pdf}
}

// Emit emite un comprobante (factura, boleta, nota o guía).
// POST /api/documents
func (h *DocumentHandler) Emit(c *fiber.Ctx) error {
	var in dto.EmitDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, res, err := h.emit.Emit(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return mapError(c, err)
	}
	if res != nil && !res.Valid() {
		return validationResponse(c, res)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Status estado actual del comprobante.
// GET /api/documents/:id
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	doc, err := h.emit.Status(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(doc)
}

// Retry re-dispara manualmente un documento en ERROR o re-sondea uno con ticket.
// POST /api/documents/:id/retry
func (h *DocumentHandler) Retry(c *fiber.Ctx) error {
	if err := h.emit.Retry(c.Context(), c.Params("id")); err != nil {
		return mapError(c, err)
	}
	doc, err := h.emit.Status(c.Context(), c.Params("id"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(doc)
}

// Void emite una comunicación de baja sobre documentos aceptados.
// POST /api/documents/bajas
func (h *DocumentHandler) Void(c *fiber.Ctx) error {
	var in dto.VoidDocumentsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, res, err := h.void.Void(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return mapError(c, err)
	}
	if res != nil && !res.Valid() {
		return validationResponse(c, res)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Summary genera el resumen diario de boletas.
// POST /api/documents/resumenes
func (h *DocumentHandler) Summary(c *fiber.Ctx) error {
	var in dto.DailySummaryRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.summary.Generate(c.Context(), GetCompanyID(c), GetUserID(c), in)
	if err != nil {
		return mapError(c, err)
	}
	if doc == nil {
		return c.JSON(fiber.Map{"message": "sin boletas pendientes de resumen para la fecha"})
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// CheckPending barrido batch de acuses pendientes.
// POST /api/documents/pendientes/barrido?minutos=30
func (h *DocumentHandler) CheckPending(c *fiber.Ctx) error {
	minutos := c.QueryInt("minutos", 30)
	results, err := h.pending.Run(c.Context(), time.Duration(minutos)*time.Minute)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(results), "items": results})
}

// GeneratePDF genera la representación impresa en el formato pedido.
// POST /api/documents/:id/pdf?formato=A4
func (h *DocumentHandler) GeneratePDF(c *fiber.Ctx) error {
	path, err := h.pdf.Generate(c.Context(), c.Params("id"), c.Query("formato"))
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"pdf_path": path})
}

func validationResponse(c *fiber.Ctx, res *validation.Resultado) error {
	out := dto.ValidationErrorResponse{Code: "VALIDATION"}
	for _, e := range res.Errores {
		out.Errors = append(out.Errors, dto.FieldErrorDTO{Field: e.Field, Message: e.Message})
	}
	return c.Status(fiber.StatusUnprocessableEntity).JSON(out)
}

// mapError traduce los sentinels del dominio a códigos HTTP.
func mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, validation.ErrValidacion):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrEstadoInvalido):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflicto), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrNoConfigurado):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "NOT_CONFIGURED", Message: err.Error()})
	case errors.Is(err, domain.ErrCredencialesInseguras):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INSECURE_CREDENTIALS", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrTransporte):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "UPSTREAM", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
