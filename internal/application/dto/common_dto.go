package dto

// ErrorResponse error uniforme de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// FieldErrorDTO violación de validación de un campo.
type FieldErrorDTO struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse agrupa todas las violaciones de una petición; el
// caller recibe la lista completa, no solo la primera.
type ValidationErrorResponse struct {
	Code   string          `json:"code"`
	Errors []FieldErrorDTO `json:"errors"`
}
