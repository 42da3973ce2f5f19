package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func TestCanTransition(t *testing.T) {
	permitidas := [][2]string{
		{EstadoDraft, EstadoPending},
		{EstadoPending, EstadoSubmitting},
		{EstadoPending, EstadoError},
		{EstadoSubmitting, EstadoAccepted},
		{EstadoSubmitting, EstadoRejected},
		{EstadoSubmitting, EstadoError},
		{EstadoRejected, EstadoSubmitting},
		{EstadoError, EstadoSubmitting},
		{EstadoAccepted, EstadoVoided},
	}
	for _, p := range permitidas {
		assert.True(t, CanTransition(p[0], p[1]), "%s -> %s debe permitirse", p[0], p[1])
	}

	prohibidas := [][2]string{
		{EstadoDraft, EstadoAccepted},
		{EstadoPending, EstadoAccepted},
		{EstadoAccepted, EstadoSubmitting},
		{EstadoAccepted, EstadoRejected},
		{EstadoVoided, EstadoAccepted},
		{EstadoVoided, EstadoSubmitting},
		{EstadoRejected, EstadoVoided},
	}
	for _, p := range prohibidas {
		assert.False(t, CanTransition(p[0], p[1]), "%s -> %s debe rechazarse", p[0], p[1])
	}
}

func TestNumero(t *testing.T) {
	doc := &FiscalDocument{Serie: "F001", Correlativo: 7}
	assert.Equal(t, "F001-00000007", doc.Numero())

	doc.Correlativo = 12345678
	assert.Equal(t, "F001-12345678", doc.Numero())

	doc.Correlativo = 123456789
	assert.Equal(t, "F001-123456789", doc.Numero(), "más de 8 dígitos no se trunca")
}

func TestCompanyEnvironment(t *testing.T) {
	c := &Company{ProductionMode: false}
	assert.Equal(t, sunat.AmbienteBeta, c.Environment())

	c.ProductionMode = true
	assert.Equal(t, sunat.AmbienteProduccion, c.Environment())
}
