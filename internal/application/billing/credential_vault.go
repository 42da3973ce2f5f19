package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// CredentialVault almacén de credenciales SUNAT por (empresa, ambiente). Es la
// única vía de mutación de secretos de la empresa; nadie escribe las filas
// directamente.
//
// Resolución de Get, por campo y en orden:
//
//	client_id / client_secret: fila específica → default beta (solo en beta) → vacío
//	ruc / usuario / clave SOL: fila específica → fila SOL general → default beta (solo en beta) → vacío
//
// Producción no tiene defaults incorporados: lo que falte queda vacío, con la
// procedencia etiquetada para no perder el rastro del nivel que respondió.
type CredentialVault struct {
	repo     repository.CredentialRepository
	cache    Cache
	resolver *EnvironmentResolver
	prober   Prober
	log      *logger.Logger
}

// NewCredentialVault construye el almacén.
func NewCredentialVault(repo repository.CredentialRepository, cache Cache, resolver *EnvironmentResolver, prober Prober, log *logger.Logger) *CredentialVault {
	return &CredentialVault{repo: repo, cache: cache, resolver: resolver, prober: prober, log: log}
}

func credCacheKey(companyID, ambiente string) string {
	return "cred:" + companyID + ":" + ambiente
}

func credCacheNamespace(companyID string) string {
	return "cred:" + companyID + ":"
}

// Get resuelve las credenciales del ambiente con la procedencia de cada campo.
func (v *CredentialVault) Get(ctx context.Context, companyID, ambiente string) (entity.ResolvedCredentials, error) {
	if cached, ok := v.cache.Get(ctx, credCacheKey(companyID, ambiente)); ok {
		var res entity.ResolvedCredentials
		if err := json.Unmarshal(cached, &res); err == nil {
			return res, nil
		}
	}

	especifico, err := v.repo.Get(ctx, companyID, ambiente)
	if err != nil {
		return entity.ResolvedCredentials{}, fmt.Errorf("leer credenciales %s/%s: %w", companyID, ambiente, err)
	}
	general, err := v.repo.Get(ctx, companyID, sunat.AmbienteGeneral)
	if err != nil {
		return entity.ResolvedCredentials{}, fmt.Errorf("leer credenciales SOL generales de %s: %w", companyID, err)
	}

	esBeta := ambiente == sunat.AmbienteBeta
	res := entity.ResolvedCredentials{CompanyID: companyID, Ambiente: ambiente}

	// API (client id/secret): sin fallback a la fila SOL general.
	res.ClientID = resolveField(campo(especifico, func(c *entity.CredentialSet) string { return c.ClientID }), "", esBeta, sunat.BetaClientID)
	res.ClientSecret = resolveField(campo(especifico, func(c *entity.CredentialSet) string { return c.ClientSecret }), "", esBeta, sunat.BetaClientSecret)

	// SOL: cae a la fila general antes del default beta.
	res.RUCProveedor = resolveField(campo(especifico, func(c *entity.CredentialSet) string { return c.RUCProveedor }),
		campo(general, func(c *entity.CredentialSet) string { return c.RUCProveedor }), esBeta, sunat.BetaRUC)
	res.UsuarioSOL = resolveField(campo(especifico, func(c *entity.CredentialSet) string { return c.UsuarioSOL }),
		campo(general, func(c *entity.CredentialSet) string { return c.UsuarioSOL }), esBeta, sunat.BetaUsuarioSOL)
	res.ClaveSOL = resolveField(campo(especifico, func(c *entity.CredentialSet) string { return c.ClaveSOL }),
		campo(general, func(c *entity.CredentialSet) string { return c.ClaveSOL }), esBeta, sunat.BetaClaveSOL)

	if raw, err := json.Marshal(res); err == nil {
		v.cache.Set(ctx, credCacheKey(companyID, ambiente), raw, configCacheTTL)
	}
	return res, nil
}

func campo(set *entity.CredentialSet, get func(*entity.CredentialSet) string) string {
	if set == nil {
		return ""
	}
	return get(set)
}

func resolveField(especifico, solGeneral string, esBeta bool, betaDefault string) entity.TaggedValue {
	switch {
	case especifico != "":
		return entity.TaggedValue{Value: especifico, Fuente: entity.FuenteEspecifico}
	case solGeneral != "":
		return entity.TaggedValue{Value: solGeneral, Fuente: entity.FuenteSOLGeneral}
	case esBeta:
		return entity.TaggedValue{Value: betaDefault, Fuente: entity.FuenteBetaDefecto}
	default:
		return entity.TaggedValue{Fuente: entity.FuenteVacio}
	}
}

// Set valida y persiste un juego parcial de credenciales. En producción
// rechaza cualquier valor del juego de prueba beta y exige RUC, usuario y
// clave SOL no vacíos (en beta son opcionales).
func (v *CredentialVault) Set(ctx context.Context, companyID, ambiente string, fields map[string]string) error {
	if len(fields) == 0 {
		return fmt.Errorf("%w: sin campos que guardar", domain.ErrInvalidInput)
	}
	for k := range fields {
		if !entity.ValidCredentialFields[k] {
			return fmt.Errorf("%w: campo de credencial desconocido %q", domain.ErrInvalidInput, k)
		}
	}

	if ambiente == sunat.AmbienteProduccion {
		for k, val := range fields {
			if val != "" && sunat.IsBetaTestValue(val) {
				return fmt.Errorf("%w: el valor de %s pertenece al juego de prueba beta", domain.ErrCredencialesInseguras, k)
			}
		}
		for _, req := range []string{entity.CredRUCProveedor, entity.CredUsuarioSOL, entity.CredClaveSOL} {
			if fields[req] == "" {
				return fmt.Errorf("%w: %s es obligatorio en producción", domain.ErrInvalidInput, req)
			}
		}
	}

	if err := v.repo.Upsert(ctx, companyID, ambiente, fields); err != nil {
		return fmt.Errorf("guardar credenciales: %w", err)
	}
	v.cache.DeletePrefix(ctx, credCacheNamespace(companyID))
	return nil
}

// HasCredentials true solo si los cinco campos requeridos resuelven no vacíos.
func (v *CredentialVault) HasCredentials(ctx context.Context, companyID, ambiente string) (bool, error) {
	res, err := v.Get(ctx, companyID, ambiente)
	if err != nil {
		return false, err
	}
	return res.Complete(), nil
}

// ProbeResult resultado de la prueba de conectividad.
type ProbeResult struct {
	OK         bool   `json:"ok"`
	Status     int    `json:"status"`
	LatenciaMs int64  `json:"latencia_ms"`
	Detalle    string `json:"detalle,omitempty"`
}

// TestConnection verifica alcanzabilidad del endpoint de facturación del
// ambiente con las credenciales resueltas. No garantiza aceptación de
// documentos, solo que el servicio responde.
func (v *CredentialVault) TestConnection(ctx context.Context, company *entity.Company, ambiente string) (*ProbeResult, error) {
	ok, err := v.HasCredentials(ctx, company.ID, ambiente)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: faltan credenciales en %s", domain.ErrNoConfigurado, ambiente)
	}

	endpoint := v.resolver.ResolveForEnv(ctx, company, ambiente, sunat.ServicioFacturacion, sunat.AtributoEndpoint)
	timeout := v.resolver.TimeoutForEnv(ctx, company, ambiente, sunat.ServicioFacturacion)

	status, latencia, err := v.prober.Probe(ctx, endpoint, timeout)
	if err != nil {
		return &ProbeResult{OK: false, Detalle: err.Error()}, nil
	}
	return &ProbeResult{OK: status < 500, Status: status, LatenciaMs: latencia.Milliseconds()}, nil
}

// Copy transfiere client_id y client_secret (solo la pareja API; nunca los
// campos SOL) del ambiente origen al destino.
func (v *CredentialVault) Copy(ctx context.Context, companyID, fromEnv, toEnv string) error {
	source, err := v.repo.Get(ctx, companyID, fromEnv)
	if err != nil {
		return fmt.Errorf("leer credenciales de origen: %w", err)
	}
	if source == nil || source.ClientID == "" || source.ClientSecret == "" {
		return fmt.Errorf("%w: %s no tiene client_id/client_secret que copiar", domain.ErrNoConfigurado, fromEnv)
	}
	if toEnv == sunat.AmbienteProduccion &&
		(sunat.IsBetaTestValue(source.ClientID) || sunat.IsBetaTestValue(source.ClientSecret)) {
		return fmt.Errorf("%w: no se copian credenciales de prueba a producción", domain.ErrCredencialesInseguras)
	}
	err = v.repo.Upsert(ctx, companyID, toEnv, map[string]string{
		entity.CredClientID:     source.ClientID,
		entity.CredClientSecret: source.ClientSecret,
	})
	if err != nil {
		return fmt.Errorf("copiar credenciales: %w", err)
	}
	v.cache.DeletePrefix(ctx, credCacheNamespace(companyID))
	return nil
}

// Clear anula client_id/client_secret del ambiente; los campos SOL quedan.
func (v *CredentialVault) Clear(ctx context.Context, companyID, ambiente string) error {
	if err := v.repo.ClearAPI(ctx, companyID, ambiente); err != nil {
		return fmt.Errorf("limpiar credenciales API: %w", err)
	}
	v.cache.DeletePrefix(ctx, credCacheNamespace(companyID))
	return nil
}

// ResolveForTransport credenciales planas para el transporte, validando que
// estén completas antes de cualquier llamada remota.
func (v *CredentialVault) ResolveForTransport(ctx context.Context, companyID, ambiente string) (entity.CredentialSet, error) {
	res, err := v.Get(ctx, companyID, ambiente)
	if err != nil {
		return entity.CredentialSet{}, err
	}
	if !res.Complete() {
		return entity.CredentialSet{}, fmt.Errorf("%w: credenciales incompletas en %s", domain.ErrNoConfigurado, ambiente)
	}
	return res.Set(), nil
}
