package http

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// ConfigurationHandler endpoints de configuración jerárquica de la empresa.
type ConfigurationHandler struct {
	store        *billing.ConfigStore
	correlatives *billing.CorrelativeAuthority
}

func NewConfigurationHandler(store *billing.ConfigStore, correlatives *billing.CorrelativeAuthority) *ConfigurationHandler {
	return &ConfigurationHandler{store: store, correlatives: correlatives}
}

type configEntryView struct {
	ConfigType  string          `json:"config_type"`
	Ambiente    string          `json:"ambiente"`
	ServiceType string          `json:"service_type,omitempty"`
	Payload     json.RawMessage `json:"payload"`
	Description string          `json:"description,omitempty"`
	Active      bool            `json:"active"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func entryView(e *entity.ConfigurationEntry) configEntryView {
	return configEntryView{
		ConfigType:  e.ConfigType,
		Ambiente:    e.Ambiente,
		ServiceType: e.ServiceType,
		Payload:     e.Payload,
		Description: e.Description,
		Active:      e.Active,
		UpdatedAt:   e.UpdatedAt,
	}
}

// Get payload resuelto de una clave de configuración, con fallback jerárquico.
// GET /api/configurations/:tipo?ambiente=general&servicio=
func (h *ConfigurationHandler) Get(c *fiber.Ctx) error {
	ambiente := c.Query("ambiente", sunat.AmbienteGeneral)
	payload := h.store.Get(c.Context(), GetCompanyID(c), c.Params("tipo"), ambiente, c.Query("servicio"), nil)
	if payload == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: "NOT_FOUND", Message: "sin configuración para la clave pedida",
		})
	}
	return c.JSON(fiber.Map{"payload": payload})
}

// setConfigurationRequest escritura de una fila de configuración.
type setConfigurationRequest struct {
	Ambiente    string          `json:"ambiente"`
	ServiceType string          `json:"service_type"`
	Payload     json.RawMessage `json:"payload"`
	Description string          `json:"description"`
}

// Set persiste una fila e invalida la caché de la empresa.
// PUT /api/configurations/:tipo
func (h *ConfigurationHandler) Set(c *fiber.Ctx) error {
	var in setConfigurationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if len(in.Payload) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "payload es obligatorio"})
	}
	if in.Ambiente == "" {
		in.Ambiente = sunat.AmbienteGeneral
	}
	if in.Ambiente != sunat.AmbienteGeneral && !ambienteOperable(in.Ambiente) {
		return badAmbiente(c)
	}
	err := h.store.Set(c.Context(), GetCompanyID(c), c.Params("tipo"), in.Ambiente, in.ServiceType, in.Payload, in.Description)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "configuración guardada"})
}

// GetAll todas las filas de la empresa agrupadas por tipo.
// GET /api/configurations
func (h *ConfigurationHandler) GetAll(c *fiber.Ctx) error {
	grouped, err := h.store.GetAll(c.Context(), GetCompanyID(c))
	if err != nil {
		return mapError(c, err)
	}
	out := make(map[string][]configEntryView, len(grouped))
	for tipo, entries := range grouped {
		views := make([]configEntryView, 0, len(entries))
		for _, e := range entries {
			views = append(views, entryView(e))
		}
		out[tipo] = views
	}
	return c.JSON(out)
}

// CurrentCorrelative último correlativo asignado de la clave (0 si nunca).
// GET /api/correlatives/current?branch_id=&tipo_doc=&serie=
func (h *ConfigurationHandler) CurrentCorrelative(c *fiber.Ctx) error {
	branchID, tipoDoc, serie := c.Query("branch_id"), c.Query("tipo_doc"), c.Query("serie")
	if branchID == "" || tipoDoc == "" || serie == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "branch_id, tipo_doc y serie son obligatorios",
		})
	}
	current, err := h.correlatives.Current(c.Context(), branchID, tipoDoc, serie)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"branch_id": branchID, "tipo_doc": tipoDoc, "serie": serie, "current": current})
}
