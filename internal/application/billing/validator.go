package billing

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/facturaperu/gestion-api/internal/domain/validation"
)

// NewValidator validador estructural con los nombres de campo tomados del tag
// json, para que las rutas de error coincidan con el payload del caller.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// StructuralResult corre la etapa estructural sobre el payload y vuelca cada
// violación al resultado con su ruta de campo.
func StructuralResult(v *validator.Validate, payload any) *validation.Resultado {
	res := &validation.Resultado{}
	err := v.Struct(payload)
	if err == nil {
		return res
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Add("payload", "%s", err.Error())
		return res
	}
	for _, fe := range verrs {
		res.Add(fieldPath(fe), "no cumple la regla %q", fe.Tag())
	}
	return res
}

// fieldPath recorta el nombre del struct raíz del namespace del error.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
