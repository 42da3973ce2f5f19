// Package validation implementa los motores de reglas por tipo de comprobante.
// Las reglas se evalúan en orden (estructura, catálogos, consistencia entre
// entidades, condicionales cruzados, restricciones temporales) y TODOS los
// fallos se acumulan con la ruta del campo ofensor; nunca fail-fast.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrValidacion error raíz de toda falla de validación (corregible por el usuario).
var ErrValidacion = errors.New("validación fallida")

// FieldError una violación puntual, anclada al campo que la provoca.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Resultado colección de violaciones de una validación.
type Resultado struct {
	Errores []FieldError `json:"errors"`
}

// Add registra una violación sobre field.
func (r *Resultado) Add(field, format string, args ...any) {
	r.Errores = append(r.Errores, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Merge incorpora las violaciones de otro resultado.
func (r *Resultado) Merge(other *Resultado) {
	if other != nil {
		r.Errores = append(r.Errores, other.Errores...)
	}
}

// Valid reporta si no hubo violaciones.
func (r *Resultado) Valid() bool { return len(r.Errores) == 0 }

// AsError devuelve nil si el resultado es válido; si no, un error que envuelve
// ErrValidacion con el detalle de cada campo.
func (r *Resultado) AsError() error {
	if r.Valid() {
		return nil
	}
	var sb strings.Builder
	for i, e := range r.Errores {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(e.Field + ": " + e.Message)
	}
	return fmt.Errorf("%w: %s", ErrValidacion, sb.String())
}

// FieldSet reporta si el resultado contiene una violación sobre field.
func (r *Resultado) FieldSet(field string) bool {
	for _, e := range r.Errores {
		if e.Field == field {
			return true
		}
	}
	return false
}
