package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facturaperu/gestion-api/internal/application/dto"
)

const (
	localCompanyID = "company_id"
	localUserID    = "user_id"
)

// TenantMiddleware resuelve la empresa de la petición desde las cabeceras que
// inyecta el gateway de autenticación (X-Company-ID, X-User-ID). Sin empresa
// no hay petición válida: toda la API es multi-tenant.
func TenantMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		companyID := c.Get("X-Company-ID")
		if companyID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code: "UNAUTHORIZED", Message: "cabecera X-Company-ID requerida",
			})
		}
		c.Locals(localCompanyID, companyID)
		c.Locals(localUserID, c.Get("X-User-ID"))
		return c.Next()
	}
}

// GetCompanyID empresa de la petición ("" si el middleware no corrió).
func GetCompanyID(c *fiber.Ctx) string {
	if v, ok := c.Locals(localCompanyID).(string); ok {
		return v
	}
	return ""
}

// GetUserID usuario de la petición.
func GetUserID(c *fiber.Ctx) string {
	if v, ok := c.Locals(localUserID).(string); ok {
		return v
	}
	return ""
}
