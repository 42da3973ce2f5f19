package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrForbidden    = errors.New("acceso denegado")

	// ErrNoConfigurado faltan credenciales o configuración previa; accionable
	// por el usuario, no es un bug del sistema.
	ErrNoConfigurado = errors.New("credenciales o configuración no establecidas")

	// ErrCredencialesInseguras intento de guardar credenciales de prueba en
	// el ambiente de producción; bloquea la escritura.
	ErrCredencialesInseguras = errors.New("credenciales de prueba no permitidas en producción")

	// ErrTransporte fallo transitorio de red/timeout frente a SUNAT; elegible
	// para reintento automático.
	ErrTransporte = errors.New("error transitorio de transporte")

	// ErrEnvioPermanente fallo de firma o datos malformados; no se reintenta.
	ErrEnvioPermanente = errors.New("error permanente de generación o firma")

	// ErrRechazoSunat rechazo de negocio de SUNAT; terminal para el documento
	// pero no es una falla del sistema.
	ErrRechazoSunat = errors.New("documento rechazado por SUNAT")

	// ErrConflicto carrera de concurrencia interna (correlativos); se
	// reintenta una vez antes de exponerse como ErrTransporte.
	ErrConflicto = errors.New("conflicto de concurrencia")

	// ErrEstadoInvalido transición de estado no permitida por el ciclo de vida.
	ErrEstadoInvalido = errors.New("transición de estado no permitida")
)
