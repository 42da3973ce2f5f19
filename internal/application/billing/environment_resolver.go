package billing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// EnvironmentResolver resuelve endpoint/WSDL/API/timeout de un servicio SUNAT
// para el ambiente efectivo de la empresa. Sin camino de error: siempre
// devuelve un valor (posiblemente vacío) para que los llamadores no tengan que
// ramificar por ausencia.
type EnvironmentResolver struct {
	configs *ConfigStore
}

// NewEnvironmentResolver construye el resolutor sobre el almacén de configuración.
func NewEnvironmentResolver(configs *ConfigStore) *EnvironmentResolver {
	return &EnvironmentResolver{configs: configs}
}

// Resolve devuelve el atributo pedido para el servicio en el ambiente actual
// de la empresa: primero el override de configuración (tipo service_endpoints),
// si no la tabla compilada de defaults.
func (r *EnvironmentResolver) Resolve(ctx context.Context, company *entity.Company, servicio, atributo string) string {
	return r.ResolveForEnv(ctx, company, company.Environment(), servicio, atributo)
}

// ResolveForEnv igual que Resolve pero con ambiente explícito (lo usa la
// prueba de conectividad de credenciales, que recibe el ambiente del caller).
func (r *EnvironmentResolver) ResolveForEnv(ctx context.Context, company *entity.Company, ambiente, servicio, atributo string) string {
	raw := r.configs.Get(ctx, company.ID, entity.ConfigTipoServiceEndpoints, ambiente, servicio, nil)
	if raw != nil {
		var ep sunat.ServiceEndpoint
		if err := json.Unmarshal(raw, &ep); err == nil {
			if v := ep.Attr(atributo); v != "" {
				return v
			}
		}
	}
	return sunat.DefaultEndpoint(ambiente, servicio).Attr(atributo)
}

// Timeout devuelve el timeout del servicio como duración (30 s si no resuelve).
func (r *EnvironmentResolver) Timeout(ctx context.Context, company *entity.Company, servicio string) time.Duration {
	return r.TimeoutForEnv(ctx, company, company.Environment(), servicio)
}

// TimeoutForEnv timeout con ambiente explícito.
func (r *EnvironmentResolver) TimeoutForEnv(ctx context.Context, company *entity.Company, ambiente, servicio string) time.Duration {
	raw := r.ResolveForEnv(ctx, company, ambiente, servicio, sunat.AtributoTimeout)
	if raw == "" {
		return 30 * time.Second
	}
	var secs int
	if err := json.Unmarshal([]byte(raw), &secs); err != nil || secs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(secs) * time.Second
}
