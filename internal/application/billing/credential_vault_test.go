package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facturaperu/gestion-api/internal/domain"
	"github.com/facturaperu/gestion-api/internal/domain/entity"
	"github.com/facturaperu/gestion-api/pkg/sunat"
)

func newVaultFixture() (*CredentialVault, *fakeCreds, *memCache) {
	creds := newFakeCreds()
	cache := newMemCache()
	log := testLogger()
	store := NewConfigStore(newFakeConfigs(), newMemCache(), log)
	resolver := NewEnvironmentResolver(store)
	vault := NewCredentialVault(creds, cache, resolver, &fakeProber{status: 200}, log)
	return vault, creds, cache
}

func TestVaultGetProcedencia(t *testing.T) {
	ctx := context.Background()

	t.Run("beta sin filas cae a los defaults de prueba", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		res, err := vault.Get(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)

		assert.Equal(t, sunat.BetaClientID, res.ClientID.Value)
		assert.Equal(t, entity.FuenteBetaDefecto, res.ClientID.Fuente)
		assert.Equal(t, sunat.BetaRUC, res.RUCProveedor.Value)
		assert.Equal(t, entity.FuenteBetaDefecto, res.ClaveSOL.Fuente)
		assert.True(t, res.Complete())
	})

	t.Run("la fila SOL general responde antes que el default beta", func(t *testing.T) {
		vault, creds, _ := newVaultFixture()
		require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteGeneral, map[string]string{
			entity.CredRUCProveedor: "20601030013",
			entity.CredUsuarioSOL:   "USUARIO1",
			entity.CredClaveSOL:     "clave-general",
		}))

		res, err := vault.Get(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)

		assert.Equal(t, "20601030013", res.RUCProveedor.Value)
		assert.Equal(t, entity.FuenteSOLGeneral, res.RUCProveedor.Fuente)
		// client_id/client_secret nunca caen a la fila SOL general.
		assert.Equal(t, entity.FuenteBetaDefecto, res.ClientID.Fuente)
	})

	t.Run("la fila específica del ambiente gana a todo", func(t *testing.T) {
		vault, creds, _ := newVaultFixture()
		require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteGeneral, map[string]string{
			entity.CredClaveSOL: "clave-general",
		}))
		require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteBeta, map[string]string{
			entity.CredClaveSOL: "clave-beta",
		}))

		res, err := vault.Get(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)
		assert.Equal(t, "clave-beta", res.ClaveSOL.Value)
		assert.Equal(t, entity.FuenteEspecifico, res.ClaveSOL.Fuente)
	})

	t.Run("producción sin filas queda vacía, sin defaults", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		res, err := vault.Get(ctx, testCompanyID, sunat.AmbienteProduccion)
		require.NoError(t, err)

		assert.Empty(t, res.ClientID.Value)
		assert.Equal(t, entity.FuenteVacio, res.ClientID.Fuente)
		assert.Equal(t, entity.FuenteVacio, res.ClaveSOL.Fuente)
		assert.False(t, res.Complete())
	})
}

func TestVaultSet(t *testing.T) {
	ctx := context.Background()

	t.Run("campo desconocido se rechaza", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		err := vault.Set(ctx, testCompanyID, sunat.AmbienteBeta, map[string]string{"otro": "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("sin campos se rechaza", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		err := vault.Set(ctx, testCompanyID, sunat.AmbienteBeta, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("producción rechaza valores del juego beta", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		err := vault.Set(ctx, testCompanyID, sunat.AmbienteProduccion, map[string]string{
			entity.CredRUCProveedor: "20601030013",
			entity.CredUsuarioSOL:   "MODDATOS",
			entity.CredClaveSOL:     "clave-real",
		})
		assert.ErrorIs(t, err, domain.ErrCredencialesInseguras)
	})

	t.Run("producción exige los campos SOL completos", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		err := vault.Set(ctx, testCompanyID, sunat.AmbienteProduccion, map[string]string{
			entity.CredRUCProveedor: "20601030013",
		})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("beta admite guardado parcial e invalida la caché", func(t *testing.T) {
		vault, _, cache := newVaultFixture()

		// Primer Get materializa la entrada en caché (defaults beta).
		res, err := vault.Get(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)
		require.Equal(t, entity.FuenteBetaDefecto, res.ClaveSOL.Fuente)
		_, cached := cache.Get(ctx, credCacheKey(testCompanyID, sunat.AmbienteBeta))
		require.True(t, cached)

		require.NoError(t, vault.Set(ctx, testCompanyID, sunat.AmbienteBeta, map[string]string{
			entity.CredClaveSOL: "otra-clave",
		}))

		res, err = vault.Get(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)
		assert.Equal(t, "otra-clave", res.ClaveSOL.Value)
		assert.Equal(t, entity.FuenteEspecifico, res.ClaveSOL.Fuente)
	})
}

func TestVaultCopy(t *testing.T) {
	ctx := context.Background()

	t.Run("copia solo la pareja API", func(t *testing.T) {
		vault, creds, _ := newVaultFixture()
		require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteBeta, map[string]string{
			entity.CredClientID:     "cid-real",
			entity.CredClientSecret: "secreto-real",
			entity.CredClaveSOL:     "clave-beta",
		}))

		require.NoError(t, vault.Copy(ctx, testCompanyID, sunat.AmbienteBeta, sunat.AmbienteProduccion))

		destino, err := creds.Get(ctx, testCompanyID, sunat.AmbienteProduccion)
		require.NoError(t, err)
		require.NotNil(t, destino)
		assert.Equal(t, "cid-real", destino.ClientID)
		assert.Equal(t, "secreto-real", destino.ClientSecret)
		assert.Empty(t, destino.ClaveSOL, "los campos SOL nunca se copian")
	})

	t.Run("sin pareja API en origen no hay nada que copiar", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		err := vault.Copy(ctx, testCompanyID, sunat.AmbienteBeta, sunat.AmbienteProduccion)
		assert.ErrorIs(t, err, domain.ErrNoConfigurado)
	})

	t.Run("valores beta jamás viajan a producción", func(t *testing.T) {
		vault, creds, _ := newVaultFixture()
		require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteBeta, map[string]string{
			entity.CredClientID:     sunat.BetaClientID,
			entity.CredClientSecret: sunat.BetaClientSecret,
		}))
		err := vault.Copy(ctx, testCompanyID, sunat.AmbienteBeta, sunat.AmbienteProduccion)
		assert.ErrorIs(t, err, domain.ErrCredencialesInseguras)
	})
}

func TestVaultClear(t *testing.T) {
	ctx := context.Background()
	vault, creds, _ := newVaultFixture()
	require.NoError(t, creds.Upsert(ctx, testCompanyID, sunat.AmbienteProduccion, map[string]string{
		entity.CredClientID:     "cid",
		entity.CredClientSecret: "secreto",
		entity.CredClaveSOL:     "clave",
	}))

	require.NoError(t, vault.Clear(ctx, testCompanyID, sunat.AmbienteProduccion))

	row, err := creds.Get(ctx, testCompanyID, sunat.AmbienteProduccion)
	require.NoError(t, err)
	assert.Empty(t, row.ClientID)
	assert.Empty(t, row.ClientSecret)
	assert.Equal(t, "clave", row.ClaveSOL, "los campos SOL quedan intactos")
}

func TestVaultTestConnection(t *testing.T) {
	ctx := context.Background()
	company := &entity.Company{ID: testCompanyID, RUC: "20601030013"}

	t.Run("sin credenciales completas no se prueba", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		_, err := vault.TestConnection(ctx, company, sunat.AmbienteProduccion)
		assert.ErrorIs(t, err, domain.ErrNoConfigurado)
	})

	t.Run("beta resuelve con defaults y sondea", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		res, err := vault.TestConnection(ctx, company, sunat.AmbienteBeta)
		require.NoError(t, err)
		assert.True(t, res.OK)
		assert.Equal(t, 200, res.Status)
	})
}

func TestVaultResolveForTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("beta entrega el juego plano completo", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		set, err := vault.ResolveForTransport(ctx, testCompanyID, sunat.AmbienteBeta)
		require.NoError(t, err)
		assert.Equal(t, sunat.BetaRUC, set.RUCProveedor)
		assert.Equal(t, sunat.BetaUsuarioSOL, set.UsuarioSOL)
	})

	t.Run("incompletas se rechazan antes de cualquier llamada", func(t *testing.T) {
		vault, _, _ := newVaultFixture()
		_, err := vault.ResolveForTransport(ctx, testCompanyID, sunat.AmbienteProduccion)
		assert.ErrorIs(t, err, domain.ErrNoConfigurado)
	})
}
