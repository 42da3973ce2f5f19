package http

import (
	"github.com/gofiber/fiber/v2"
)

// RouterDeps handlers que el router necesita cableados.
type RouterDeps struct {
	Documents      *DocumentHandler
	Credentials    *CredentialHandler
	Configurations *ConfigurationHandler
}

// Router registra todas las rutas de la API.
//
// ┌──────────────────────────────────────────────────────────────┐
// │  /api/documents            emisión y ciclo de vida           │
// │  /api/credentials          credenciales SUNAT por ambiente   │
// │  /api/configurations       configuración jerárquica          │
// │  /api/correlatives         consulta de numeración            │
// └──────────────────────────────────────────────────────────────┘
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", TenantMiddleware())

	docs := api.Group("/documents")
	docs.Post("/", deps.Documents.Emit)
	docs.Post("/bajas", deps.Documents.Void)
	docs.Post("/resumenes", deps.Documents.Summary)
	docs.Post("/pendientes/barrido", deps.Documents.CheckPending)
	docs.Get("/:id", deps.Documents.Status)
	docs.Post("/:id/retry", deps.Documents.Retry)
	docs.Post("/:id/pdf", deps.Documents.GeneratePDF)

	creds := api.Group("/credentials")
	creds.Post("/copy", deps.Credentials.Copy)
	creds.Get("/:ambiente", deps.Credentials.Get)
	creds.Put("/:ambiente", deps.Credentials.Set)
	creds.Post("/:ambiente/test", deps.Credentials.TestConnection)
	creds.Delete("/:ambiente/api", deps.Credentials.Clear)

	cfg := api.Group("/configurations")
	cfg.Get("/", deps.Configurations.GetAll)
	cfg.Get("/:tipo", deps.Configurations.Get)
	cfg.Put("/:tipo", deps.Configurations.Set)

	api.Get("/correlatives/current", deps.Configurations.CurrentCorrelative)
}
