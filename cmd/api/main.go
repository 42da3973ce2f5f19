package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/facturaperu/gestion-api/internal/application/billing"
	"github.com/facturaperu/gestion-api/internal/infrastructure/cache"
	"github.com/facturaperu/gestion-api/internal/infrastructure/filestore"
	infrapdf "github.com/facturaperu/gestion-api/internal/infrastructure/pdf"
	"github.com/facturaperu/gestion-api/internal/infrastructure/postgres"
	infrasunat "github.com/facturaperu/gestion-api/internal/infrastructure/sunat"
	httpRouter "github.com/facturaperu/gestion-api/internal/interfaces/http"
	"github.com/facturaperu/gestion-api/pkg/config"
	"github.com/facturaperu/gestion-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.Log.Level,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	branchRepo := postgres.NewBranchRepository(pool)
	documentRepo := postgres.NewDocumentRepository(pool)
	credentialRepo := postgres.NewCredentialRepository(pool)
	configurationRepo := postgres.NewConfigurationRepository(pool)
	correlativeRepo := postgres.NewCorrelativeRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Caché de configuración y credenciales: Redis si hay dirección,
	// si no la caché en memoria del proceso.
	var appCache billing.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		appCache = cache.NewRedis(client, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("caché Redis habilitada")
	} else {
		appCache = cache.NewMemory()
	}

	configStore := billing.NewConfigStore(configurationRepo, appCache, log)
	resolver := billing.NewEnvironmentResolver(configStore)
	prober := infrasunat.NewHTTPProber()
	vault := billing.NewCredentialVault(credentialRepo, appCache, resolver, prober, log)
	correlatives := billing.NewCorrelativeAuthority(correlativeRepo)

	// Certificado de firma: vacío en development habilita la firma simulada.
	cert, err := infrasunat.LoadCertFromPEM(cfg.SUNAT.CertPath, cfg.SUNAT.CertKeyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cargar certificado de firma")
	}
	if cfg.SUNAT.CertPath == "" {
		log.Warn().Msg("sin certificado configurado: firma simulada, solo para beta")
	}

	xmlBuilder := infrasunat.NewUBLBuilder()
	signer := infrasunat.NewDigitalSignatureService(cert)
	submitter := infrasunat.NewClient(log)
	files := filestore.NewLocal(cfg.SUNAT.ArtifactDir)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator()

	emitUC := billing.NewEmitDocumentUseCase(
		txRunner, documentRepo, companyRepo, branchRepo,
		configStore, vault, resolver,
		xmlBuilder, signer, submitter, files, log,
	)
	voidUC := billing.NewVoidDocumentsUseCase(txRunner, documentRepo, emitUC, log)
	summaryUC := billing.NewDailySummaryUseCase(txRunner, documentRepo, emitUC, log)
	pendingUC := billing.NewCheckPendingUseCase(documentRepo, emitUC, log)
	pdfUC := billing.NewPDFUseCase(documentRepo, companyRepo, pdfGenerator, files, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Documents:      httpRouter.NewDocumentHandler(emitUC, voidUC, summaryUC, pendingUC, pdfUC),
		Credentials:    httpRouter.NewCredentialHandler(vault, companyRepo),
		Configurations: httpRouter.NewConfigurationHandler(configStore, correlatives),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
