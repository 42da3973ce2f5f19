package sunat

// Credenciales públicas del ambiente beta SUNAT. Sirven como último nivel de
// fallback en beta y están terminantemente prohibidas en producción.
const (
	BetaClientID     = "test-85e5b0ae-255c-4891-a595-0b98c65c9854"
	BetaClientSecret = "test-Hty/M6QshYvPgItX2P0+Kw=="
	BetaRUC          = "20000000001"
	BetaUsuarioSOL   = "MODDATOS"
	BetaClaveSOL     = "moddatos"
)

// betaKnownValues valores de prueba conocidos; cualquier coincidencia en un
// guardado de credenciales de producción es una violación de política.
var betaKnownValues = map[string]bool{
	BetaClientID:     true,
	BetaClientSecret: true,
	BetaRUC:          true,
	BetaUsuarioSOL:   true,
	BetaClaveSOL:     true,
}

// IsBetaTestValue reporta si v pertenece al juego de credenciales de prueba.
func IsBetaTestValue(v string) bool {
	return betaKnownValues[v]
}
