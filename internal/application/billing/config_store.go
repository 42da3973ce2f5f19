package billing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/internal/domain/repository"
	"github.com/facturaperu/gestion-api/pkg/logger"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

// configCacheTTL las lecturas pueden servirse obsoletas hasta una hora; las
// escrituras invalidan el namespace completo de la empresa antes de retornar.
const configCacheTTL = time.Hour

// ConfigStore configuración jerárquica, cacheada, por empresa. La búsqueda cae
// de la fila específica (ambiente + servicio) a la fila "general" del tipo y
// de ahí al default del llamador; nunca falla en silencio.
type ConfigStore struct {
	repo  repository.ConfigurationRepository
	cache Cache
	log   *logger.Logger

	// seedMu evita que dos lecturas concurrentes del mismo proceso siembren
	// dos veces a la misma empresa; entre procesos guarda el conteo de filas.
	seedMu sync.Mutex
	seeded map[string]bool
}

// NewConfigStore construye el almacén.
func NewConfigStore(repo repository.ConfigurationRepository, cache Cache, log *logger.Logger) *ConfigStore {
	return &ConfigStore{repo: repo, cache: cache, log: log, seeded: make(map[string]bool)}
}

func cacheKey(companyID, configType, ambiente, serviceType string) string {
	return "cfg:" + companyID + ":" + configType + ":" + ambiente + ":" + serviceType
}

func cacheNamespace(companyID string) string {
	return "cfg:" + companyID + ":"
}

// Get devuelve el payload JSON para la clave, con fallback a la fila general
// del tipo y finalmente al default del llamador. Siembra la configuración
// inicial si la empresa no tiene ninguna fila (una sola vez, idempotente).
func (s *ConfigStore) Get(ctx context.Context, companyID, configType, ambiente, serviceType string, def json.RawMessage) json.RawMessage {
	s.ensureSeeded(ctx, companyID)

	key := cacheKey(companyID, configType, ambiente, serviceType)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached
	}

	payload := s.lookup(ctx, companyID, configType, ambiente, serviceType)
	if payload == nil {
		payload = def
	}
	if payload != nil {
		s.cache.Set(ctx, key, payload, configCacheTTL)
	}
	return payload
}

func (s *ConfigStore) lookup(ctx context.Context, companyID, configType, ambiente, serviceType string) json.RawMessage {
	entry, err := s.repo.GetEntry(ctx, companyID, configType, ambiente, serviceType)
	if err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Str("tipo", configType).
			Msg("error leyendo configuración; se usará el fallback")
		return nil
	}
	if entry != nil {
		return entry.Payload
	}
	// Fallback: fila general del tipo (aplica a ambos ambientes).
	if ambiente != sunat.AmbienteGeneral || serviceType != "" {
		general, err := s.repo.GetEntry(ctx, companyID, configType, sunat.AmbienteGeneral, "")
		if err == nil && general != nil {
			return general.Payload
		}
	}
	return nil
}

// Set persiste la fila e invalida el namespace completo de la empresa: otras
// claves pueden haberse resuelto mezclando defaults derivados de esta.
func (s *ConfigStore) Set(ctx context.Context, companyID, configType, ambiente, serviceType string, payload json.RawMessage, description string) error {
	entry := &entity.ConfigurationEntry{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		ConfigType:  configType,
		Ambiente:    ambiente,
		ServiceType: serviceType,
		Payload:     payload,
		Description: description,
		Active:      true,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return err
	}
	s.cache.DeletePrefix(ctx, cacheNamespace(companyID))
	return nil
}

// GetAll devuelve las filas de la empresa agrupadas por tipo de configuración.
func (s *ConfigStore) GetAll(ctx context.Context, companyID string) (map[string][]*entity.ConfigurationEntry, error) {
	s.ensureSeeded(ctx, companyID)
	entries, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]*entity.ConfigurationEntry)
	for _, e := range entries {
		grouped[e.ConfigType] = append(grouped[e.ConfigType], e)
	}
	return grouped, nil
}

// Facturacion configuración tipada de facturación con defaults aplicados.
func (s *ConfigStore) Facturacion(ctx context.Context, companyID string) entity.FacturacionConfig {
	cfg := defaultFacturacion()
	raw := s.Get(ctx, companyID, entity.ConfigTipoFacturacion, sunat.AmbienteGeneral, "", nil)
	if raw != nil {
		if err := json.Unmarshal(raw, &cfg); err != nil {
			s.log.Warn().Err(err).Str("company_id", companyID).Msg("configuración de facturación malformada; se usan defaults")
			cfg = defaultFacturacion()
		}
	}
	if cfg.IGVPorcentaje <= 0 {
		cfg.IGVPorcentaje = entity.DefaultIGVPorcentaje
	}
	if cfg.Reintentos <= 0 {
		cfg.Reintentos = entity.DefaultReintentos
	}
	if cfg.FormatoPDFDefecto == "" {
		cfg.FormatoPDFDefecto = "A4"
	}
	return cfg
}

// Archivos política de retención de artefactos con defaults aplicados.
func (s *ConfigStore) Archivos(ctx context.Context, companyID string) entity.ArchivosConfig {
	cfg := entity.ArchivosConfig{RetencionDias: entity.DefaultRetencionDias, ComprimirXML: true}
	raw := s.Get(ctx, companyID, entity.ConfigTipoArchivos, sunat.AmbienteGeneral, "", nil)
	if raw != nil {
		_ = json.Unmarshal(raw, &cfg)
	}
	if cfg.RetencionDias <= 0 {
		cfg.RetencionDias = entity.DefaultRetencionDias
	}
	return cfg
}

func defaultFacturacion() entity.FacturacionConfig {
	return entity.FacturacionConfig{
		IGVPorcentaje:     entity.DefaultIGVPorcentaje,
		GenerarPDFAuto:    true,
		EnviarAuto:        true,
		Reintentos:        entity.DefaultReintentos,
		FormatoPDFDefecto: "A4",
	}
}

// ensureSeeded crea el juego inicial de configuración si la empresa no tiene
// filas. El conteo hace la operación idempotente entre procesos; el mapa en
// memoria evita reconsultar en cada lectura.
func (s *ConfigStore) ensureSeeded(ctx context.Context, companyID string) {
	s.seedMu.Lock()
	defer s.seedMu.Unlock()
	if s.seeded[companyID] {
		return
	}
	count, err := s.repo.CountByCompany(ctx, companyID)
	if err != nil {
		s.log.Warn().Err(err).Str("company_id", companyID).Msg("no se pudo verificar la siembra de configuración")
		return
	}
	if count > 0 {
		s.seeded[companyID] = true
		return
	}
	if err := s.repo.CreateBatch(ctx, seedEntries(companyID)); err != nil {
		s.log.Error().Err(err).Str("company_id", companyID).Msg("siembra de configuración inicial falló")
		return
	}
	s.log.Info().Str("company_id", companyID).Msg("configuración inicial sembrada")
	s.seeded[companyID] = true
}

// seedEntries juego fijo de primera instalación: tasas, flags de emisión,
// política de archivos y endpoints de ambos ambientes.
func seedEntries(companyID string) []*entity.ConfigurationEntry {
	mk := func(tipo, ambiente, servicio, desc string, payload any) *entity.ConfigurationEntry {
		raw, _ := json.Marshal(payload)
		return &entity.ConfigurationEntry{
			ID: uuid.New().String(), CompanyID: companyID, ConfigType: tipo,
			Ambiente: ambiente, ServiceType: servicio, Payload: raw,
			Description: desc, Active: true,
		}
	}

	entries := []*entity.ConfigurationEntry{
		mk(entity.ConfigTipoFacturacion, sunat.AmbienteGeneral, "",
			"Parámetros de emisión de comprobantes", defaultFacturacion()),
		mk(entity.ConfigTipoArchivos, sunat.AmbienteGeneral, "",
			"Retención de artefactos generados",
			entity.ArchivosConfig{RetencionDias: entity.DefaultRetencionDias, ComprimirXML: true}),
	}
	for _, ambiente := range []string{sunat.AmbienteBeta, sunat.AmbienteProduccion} {
		for _, servicio := range []string{sunat.ServicioFacturacion, sunat.ServicioGuias, sunat.ServicioRetenciones, sunat.ServicioConsultas} {
			ep := sunat.DefaultEndpoint(ambiente, servicio)
			entries = append(entries, mk(entity.ConfigTipoServiceEndpoints, ambiente, servicio,
				"Endpoint SUNAT "+servicio+" ("+ambiente+")", ep))
		}
	}
	return entries
}
