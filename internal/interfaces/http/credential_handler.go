package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/application/dto"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// CredentialHandler endpoints de credenciales SUNAT por ambiente. Las
// respuestas nunca devuelven secretos: solo la procedencia de cada campo y si
// está configurado.
type CredentialHandler struct {
	vault     *billing.CredentialVault
	companies repository.CompanyRepository
}

func NewCredentialHandler(vault *billing.CredentialVault, companies repository.CompanyRepository) *CredentialHandler {
	return &CredentialHandler{vault: vault, companies: companies}
}

// credentialFieldView procedencia de un campo resuelto, con el secreto oculto.
type credentialFieldView struct {
	Configurado bool   `json:"configurado"`
	Fuente      string `json:"fuente"`
}

type credentialsView struct {
	Ambiente     string              `json:"ambiente"`
	Completas    bool                `json:"completas"`
	ClientID     credentialFieldView `json:"client_id"`
	ClientSecret credentialFieldView `json:"client_secret"`
	RUCProveedor credentialFieldView `json:"ruc_proveedor"`
	UsuarioSOL   credentialFieldView `json:"usuario_sol"`
	ClaveSOL     credentialFieldView `json:"clave_sol"`
}

func fieldView(v entity.TaggedValue) credentialFieldView {
	return credentialFieldView{Configurado: v.Value != "", Fuente: v.Fuente}
}

func ambienteOperable(ambiente string) bool {
	return ambiente == sunat.AmbienteBeta || ambiente == sunat.AmbienteProduccion
}

func badAmbiente(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Code: "VALIDATION", Message: "ambiente debe ser beta o produccion",
	})
}

// Get procedencia de las credenciales del ambiente.
// GET /api/credentials/:ambiente
func (h *CredentialHandler) Get(c *fiber.Ctx) error {
	ambiente := c.Params("ambiente")
	if !ambienteOperable(ambiente) {
		return badAmbiente(c)
	}
	res, err := h.vault.Get(c.Context(), GetCompanyID(c), ambiente)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(credentialsView{
		Ambiente:     ambiente,
		Completas:    res.Complete(),
		ClientID:     fieldView(res.ClientID),
		ClientSecret: fieldView(res.ClientSecret),
		RUCProveedor: fieldView(res.RUCProveedor),
		UsuarioSOL:   fieldView(res.UsuarioSOL),
		ClaveSOL:     fieldView(res.ClaveSOL),
	})
}

// Set guarda un juego parcial de credenciales del ambiente.
// PUT /api/credentials/:ambiente
func (h *CredentialHandler) Set(c *fiber.Ctx) error {
	ambiente := c.Params("ambiente")
	if !ambienteOperable(ambiente) {
		return badAmbiente(c)
	}
	var in dto.SetCredentialsRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := h.vault.Set(c.Context(), GetCompanyID(c), ambiente, in.Fields); err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "credenciales guardadas"})
}

// TestConnection prueba de conectividad con las credenciales resueltas.
// POST /api/credentials/:ambiente/test
func (h *CredentialHandler) TestConnection(c *fiber.Ctx) error {
	ambiente := c.Params("ambiente")
	if !ambienteOperable(ambiente) {
		return badAmbiente(c)
	}
	company, err := h.companies.GetByID(c.Context(), GetCompanyID(c))
	if err != nil {
		return mapError(c, err)
	}
	result, err := h.vault.TestConnection(c.Context(), company, ambiente)
	if err != nil {
		return mapError(c, err)
	}
	return c.JSON(result)
}

// Copy copia client_id/client_secret del ambiente origen al destino.
// POST /api/credentials/copy  body {"from":"beta","to":"produccion"}
func (h *CredentialHandler) Copy(c *fiber.Ctx) error {
	var in struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if !ambienteOperable(in.From) || !ambienteOperable(in.To) {
		return badAmbiente(c)
	}
	if err := h.vault.Copy(c.Context(), GetCompanyID(c), in.From, in.To); err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "credenciales API copiadas"})
}

// Clear anula client_id/client_secret del ambiente.
// DELETE /api/credentials/:ambiente/api
func (h *CredentialHandler) Clear(c *fiber.Ctx) error {
	ambiente := c.Params("ambiente")
	if !ambienteOperable(ambiente) {
		return badAmbiente(c)
	}
	if err := h.vault.Clear(c.Context(), GetCompanyID(c), ambiente); err != nil {
		return mapError(c, err)
	}
	return c.JSON(fiber.Map{"message": "credenciales API eliminadas"})
}
