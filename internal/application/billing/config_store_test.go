package billing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func TestConfigStoreSiembra(t *testing.T) {
	ctx := context.Background()

	t.Run("la primera lectura siembra el juego inicial una sola vez", func(t *testing.T) {
		repo := newFakeConfigs()
		store := NewConfigStore(repo, newMemCache(), testLogger())

		_ = store.Facturacion(ctx, testCompanyID)
		n1, _ := repo.CountByCompany(ctx, testCompanyID)
		require.Greater(t, n1, 0, "la siembra debe crear filas")

		_ = store.Facturacion(ctx, testCompanyID)
		_ = store.Archivos(ctx, testCompanyID)
		n2, _ := repo.CountByCompany(ctx, testCompanyID)
		assert.Equal(t, n1, n2, "lecturas posteriores no vuelven a sembrar")
	})

	t.Run("una empresa con filas no se vuelve a sembrar", func(t *testing.T) {
		repo := newFakeConfigs()
		payload, _ := json.Marshal(entity.FacturacionConfig{IGVPorcentaje: 10, Reintentos: 1})
		repo.rows = append(repo.rows, &entity.ConfigurationEntry{
			CompanyID: testCompanyID, ConfigType: entity.ConfigTipoFacturacion,
			Ambiente: sunat.AmbienteGeneral, Payload: payload, Active: true,
		})
		store := NewConfigStore(repo, newMemCache(), testLogger())

		cfg := store.Facturacion(ctx, testCompanyID)
		assert.Equal(t, 10.0, cfg.IGVPorcentaje)

		n, _ := repo.CountByCompany(ctx, testCompanyID)
		assert.Equal(t, 1, n)
	})

	t.Run("la siembra incluye endpoints de ambos ambientes", func(t *testing.T) {
		repo := newFakeConfigs()
		store := NewConfigStore(repo, newMemCache(), testLogger())
		_ = store.Facturacion(ctx, testCompanyID)

		entry, err := repo.GetEntry(ctx, testCompanyID, entity.ConfigTipoServiceEndpoints,
			sunat.AmbienteProduccion, sunat.ServicioGuias)
		require.NoError(t, err)
		require.NotNil(t, entry)

		var ep sunat.ServiceEndpoint
		require.NoError(t, json.Unmarshal(entry.Payload, &ep))
		assert.Contains(t, ep.APIEndpoint, "api-cpe.sunat.gob.pe")
	})
}

func TestConfigStoreFallback(t *testing.T) {
	ctx := context.Background()
	repo := newFakeConfigs()
	payload := json.RawMessage(`{"valor":"general"}`)
	repo.rows = append(repo.rows, &entity.ConfigurationEntry{
		CompanyID: testCompanyID, ConfigType: "politica",
		Ambiente: sunat.AmbienteGeneral, Payload: payload, Active: true,
	})
	store := NewConfigStore(repo, newMemCache(), testLogger())

	t.Run("clave específica ausente cae a la fila general del tipo", func(t *testing.T) {
		got := store.Get(ctx, testCompanyID, "politica", sunat.AmbienteProduccion, sunat.ServicioFacturacion, nil)
		assert.JSONEq(t, `{"valor":"general"}`, string(got))
	})

	t.Run("tipo inexistente devuelve el default del caller", func(t *testing.T) {
		def := json.RawMessage(`{"valor":"defecto"}`)
		got := store.Get(ctx, testCompanyID, "inexistente", sunat.AmbienteGeneral, "", def)
		assert.JSONEq(t, `{"valor":"defecto"}`, string(got))
	})
}

func TestConfigStoreSetInvalidaNamespace(t *testing.T) {
	ctx := context.Background()
	repo := newFakeConfigs()
	cache := newMemCache()
	store := NewConfigStore(repo, cache, testLogger())

	cfg := store.Facturacion(ctx, testCompanyID)
	require.Equal(t, entity.DefaultIGVPorcentaje, cfg.IGVPorcentaje)

	nuevo, _ := json.Marshal(entity.FacturacionConfig{IGVPorcentaje: 10, Reintentos: 2, FormatoPDFDefecto: "A5"})
	require.NoError(t, store.Set(ctx, testCompanyID, entity.ConfigTipoFacturacion,
		sunat.AmbienteGeneral, "", nuevo, "IGV reducido"))

	cfg = store.Facturacion(ctx, testCompanyID)
	assert.Equal(t, 10.0, cfg.IGVPorcentaje, "la escritura debe invalidar la entrada cacheada")
	assert.Equal(t, "A5", cfg.FormatoPDFDefecto)
}

func TestConfigStoreDefaultsMalformados(t *testing.T) {
	ctx := context.Background()
	repo := newFakeConfigs()
	repo.rows = append(repo.rows, &entity.ConfigurationEntry{
		CompanyID: testCompanyID, ConfigType: entity.ConfigTipoFacturacion,
		Ambiente: sunat.AmbienteGeneral, Payload: json.RawMessage(`{"igv_porcentaje":`), Active: true,
	})
	store := NewConfigStore(repo, newMemCache(), testLogger())

	cfg := store.Facturacion(ctx, testCompanyID)
	assert.Equal(t, entity.DefaultIGVPorcentaje, cfg.IGVPorcentaje, "payload malformado cae a defaults")
	assert.Equal(t, entity.DefaultReintentos, cfg.Reintentos)
	assert.Equal(t, "A4", cfg.FormatoPDFDefecto)
}

func TestEnvironmentResolver(t *testing.T) {
	ctx := context.Background()
	company := &entity.Company{ID: testCompanyID, ProductionMode: true}

	t.Run("sin override responde la tabla compilada", func(t *testing.T) {
		repo := newFakeConfigs()
		// Fila neutra para inhibir la siembra y probar el fallback compilado puro.
		repo.rows = append(repo.rows, &entity.ConfigurationEntry{
			CompanyID: testCompanyID, ConfigType: "politica",
			Ambiente: sunat.AmbienteGeneral, Payload: json.RawMessage(`{}`), Active: true,
		})
		resolver := NewEnvironmentResolver(NewConfigStore(repo, newMemCache(), testLogger()))

		endpoint := resolver.Resolve(ctx, company, sunat.ServicioFacturacion, sunat.AtributoEndpoint)
		assert.Contains(t, endpoint, "e-factura.sunat.gob.pe")
	})

	t.Run("el override de configuración gana al default", func(t *testing.T) {
		repo := newFakeConfigs()
		override, _ := json.Marshal(sunat.ServiceEndpoint{Endpoint: "https://interno.acme.pe/ws", Timeout: 5})
		repo.rows = append(repo.rows, &entity.ConfigurationEntry{
			CompanyID: testCompanyID, ConfigType: entity.ConfigTipoServiceEndpoints,
			Ambiente: sunat.AmbienteProduccion, ServiceType: sunat.ServicioFacturacion,
			Payload: override, Active: true,
		})
		resolver := NewEnvironmentResolver(NewConfigStore(repo, newMemCache(), testLogger()))

		endpoint := resolver.Resolve(ctx, company, sunat.ServicioFacturacion, sunat.AtributoEndpoint)
		assert.Equal(t, "https://interno.acme.pe/ws", endpoint)
		assert.Equal(t, 5*time.Second, resolver.Timeout(ctx, company, sunat.ServicioFacturacion))
	})

	t.Run("atributo ausente en el override cae al default", func(t *testing.T) {
		repo := newFakeConfigs()
		override, _ := json.Marshal(sunat.ServiceEndpoint{Endpoint: "https://interno.acme.pe/ws"})
		repo.rows = append(repo.rows, &entity.ConfigurationEntry{
			CompanyID: testCompanyID, ConfigType: entity.ConfigTipoServiceEndpoints,
			Ambiente: sunat.AmbienteProduccion, ServiceType: sunat.ServicioFacturacion,
			Payload: override, Active: true,
		})
		resolver := NewEnvironmentResolver(NewConfigStore(repo, newMemCache(), testLogger()))

		wsdl := resolver.Resolve(ctx, company, sunat.ServicioFacturacion, sunat.AtributoWSDL)
		assert.Contains(t, wsdl, "e-factura.sunat.gob.pe")
	})
}
