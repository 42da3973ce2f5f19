package entity

import "time"

// Campos reconocidos de un juego de credenciales. Set rechaza cualquier otra clave.
const (
	CredClientID     = "client_id"
	CredClientSecret = "client_secret"
	CredRUCProveedor = "ruc_proveedor"
	CredUsuarioSOL   = "usuario_sol"
	CredClaveSOL     = "clave_sol"
)

// ValidCredentialFields claves admitidas por el almacén de credenciales.
var ValidCredentialFields = map[string]bool{
	CredClientID: true, CredClientSecret: true, CredRUCProveedor: true,
	CredUsuarioSOL: true, CredClaveSOL: true,
}

// CredentialSet credenciales de una empresa para un ambiente (beta o produccion).
type CredentialSet struct {
	CompanyID    string
	Ambiente     string
	ClientID     string
	ClientSecret string
	RUCProveedor string
	UsuarioSOL   string
	ClaveSOL     string
	UpdatedAt    time.Time
}

// Complete reporta si los cinco campos requeridos están presentes.
func (c CredentialSet) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != "" &&
		c.RUCProveedor != "" && c.UsuarioSOL != "" && c.ClaveSOL != ""
}

// Procedencia de cada campo resuelto por el almacén de credenciales. Se expone
// explícitamente para no perder el rastro de qué nivel de fallback respondió.
const (
	FuenteEspecifico  = "especifico"   // fila (empresa, ambiente)
	FuenteSOLGeneral  = "sol_general"  // credenciales SOL generales de la empresa
	FuenteBetaDefecto = "beta_defecto" // constantes públicas de prueba SUNAT
	FuenteVacio       = "vacio"        // ningún nivel tenía valor
)

// TaggedValue valor de credencial junto con el nivel que lo aportó.
type TaggedValue struct {
	Value  string
	Fuente string
}

// ResolvedCredentials resultado de Get del almacén: cada campo con su procedencia.
type ResolvedCredentials struct {
	CompanyID    string
	Ambiente     string
	ClientID     TaggedValue
	ClientSecret TaggedValue
	RUCProveedor TaggedValue
	UsuarioSOL   TaggedValue
	ClaveSOL     TaggedValue
}

// Set devuelve las credenciales planas (sin procedencia) para el transporte.
func (r ResolvedCredentials) Set() CredentialSet {
	return CredentialSet{
		CompanyID:    r.CompanyID,
		Ambiente:     r.Ambiente,
		ClientID:     r.ClientID.Value,
		ClientSecret: r.ClientSecret.Value,
		RUCProveedor: r.RUCProveedor.Value,
		UsuarioSOL:   r.UsuarioSOL.Value,
		ClaveSOL:     r.ClaveSOL.Value,
	}
}

// Complete reporta si los cinco campos resueltos son no vacíos.
func (r ResolvedCredentials) Complete() bool {
	return r.Set().Complete()
}
