package entity

import (
	"time"

	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// Company representa una empresa/tenant del sistema (multi-tenant, enfoque Perú).
type Company struct {
	ID             string
	RUC            string // RUC de 11 dígitos
	RazonSocial    string
	NombreComercial string
	Direccion      string
	Ubigeo         string // código de 6 dígitos INEI
	ProductionMode bool   // true = produccion, false = beta
	Status         string // active, suspended, inactive
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Environment deriva el ambiente efectivo de la empresa. Exactamente uno a la vez.
func (c *Company) Environment() string {
	if c.ProductionMode {
		return sunat.AmbienteProduccion
	}
	return sunat.AmbienteBeta
}

// Branch sucursal de una empresa. Toda operación que reciba una sucursal debe
// verificar que pertenezca a la empresa referida; una asociación cruzada es un
// error de validación, nunca un fallback silencioso.
type Branch struct {
	ID        string
	CompanyID string
	Codigo    string // código de establecimiento anexo SUNAT (ej: 0000)
	Nombre    string
	Direccion string
	Ubigeo    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
