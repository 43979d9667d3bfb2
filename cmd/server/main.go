package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	catalogapp "github.com/erp/invoicing/internal/application/catalog"
	identityapp "github.com/erp/invoicing/internal/application/identity"
	invoicingapp "github.com/erp/invoicing/internal/application/invoicing"
	partnerapp "github.com/erp/invoicing/internal/application/partner"
	printingapp "github.com/erp/invoicing/internal/application/printing"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/infrastructure/auth"
	"github.com/erp/invoicing/internal/infrastructure/cache"
	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/event"
	"github.com/erp/invoicing/internal/infrastructure/logger"
	"github.com/erp/invoicing/internal/infrastructure/mail"
	"github.com/erp/invoicing/internal/infrastructure/persistence"
	"github.com/erp/invoicing/internal/infrastructure/printing"
	"github.com/erp/invoicing/internal/infrastructure/realtime"
	"github.com/erp/invoicing/internal/infrastructure/scheduler"
	"github.com/erp/invoicing/internal/infrastructure/storage"
	"github.com/erp/invoicing/internal/infrastructure/telemetry"
	"github.com/erp/invoicing/internal/interfaces/http/handler"
	"github.com/erp/invoicing/internal/interfaces/http/middleware"
	"github.com/erp/invoicing/internal/interfaces/http/router"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const (
	shutdownTimeout     = 30 * time.Second
	sentryFlushTimeout  = 2 * time.Second
	metricsCollectEvery = 5 * time.Minute
)

func main() {
	// A missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "Server error:", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap logger for telemetry setup; replaced once the log exporter exists
	bootLog, err := logger.New(logger.FromConfig(cfg.Log))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, bootLog)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}

	log, err := logger.New(logger.FromConfig(cfg.Log), providers.LogCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting invoicing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.StartProfiler(cfg.Telemetry, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else if profiler.Running() {
		providers.EnableSpanProfiles()
	}

	sentryEnabled := cfg.Sentry.DSN != ""
	if sentryEnabled {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.App.Env,
			Release:          cfg.App.Name + "@" + version,
			EnableTracing:    cfg.Sentry.TracesSampleRate > 0,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
			AttachStacktrace: true,
		}); err != nil {
			log.Warn("Sentry disabled", zap.Error(err))
			sentryEnabled = false
		} else {
			defer sentry.Flush(sentryFlushTimeout)
		}
	}

	// Database
	db, err := persistence.NewDatabase(ctx, &cfg.Database, log, logger.GormLevel(cfg.Log.Level))
	if err != nil {
		return err
	}
	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, providers.MeterFor("invoicing/db"), log); err != nil {
		_ = db.Close()
		return fmt.Errorf("instrument database: %w", err)
	}
	log.Info("Database connected")

	// Redis is optional outside production; in-process stores replace it
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		_ = db.Close()
		return err
	}

	var (
		revocations auth.RevocationStore
		resetTokens auth.ResetTokenStore
	)
	if redisClient != nil {
		revocations = auth.NewRedisRevocationStore(redisClient)
		resetTokens = auth.NewRedisResetTokenStore(redisClient)
	} else {
		revocations = auth.NewInMemoryRevocationStore()
		resetTokens = auth.NewInMemoryResetTokenStore()
	}

	var verifier auth.FederatedVerifier
	if cfg.Firebase.Enabled {
		fv, err := auth.NewFirebaseVerifier(ctx, auth.FirebaseConfig{
			ProjectID:       cfg.Firebase.ProjectID,
			CredentialsFile: cfg.Firebase.CredentialsFile,
		})
		if err != nil {
			return closeAll(log, fmt.Errorf("initialize federated sign-in: %w", err), db, redisClient)
		}
		verifier = fv
		log.Info("Federated sign-in enabled", zap.String("project_id", cfg.Firebase.ProjectID))
	}

	mailer := mail.New(mail.Config{
		APIKey:    cfg.Mail.SendGridAPIKey,
		FromName:  cfg.Mail.FromName,
		FromEmail: cfg.Mail.FromEmail,
	}, log)

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	tenantRepo := persistence.NewGormTenantRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	serviceRepo := persistence.NewGormServiceRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)

	// Services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, revocations, resetTokens, verifier, mailer,
		identityapp.AuthServiceConfig{ResetTokenTTL: cfg.Mail.ResetTokenTTL, ResetURL: cfg.ResetURL()}, log)
	tenantService := identityapp.NewTenantService(tenantRepo, log)
	customerService := partnerapp.NewCustomerService(customerRepo)
	supplierService := partnerapp.NewSupplierService(supplierRepo)
	productService := catalogapp.NewProductService(productRepo)
	serviceService := catalogapp.NewServiceService(serviceRepo)

	resolver := invoicingapp.NewDocumentResolver(productRepo, serviceRepo, customerRepo)
	quoteService := invoicingapp.NewQuoteService(quoteRepo, invoiceRepo, resolver, log)
	invoiceService := invoicingapp.NewInvoiceService(invoiceRepo, paymentRepo, tenantRepo, resolver, log)
	paymentService := invoicingapp.NewPaymentService(paymentRepo)
	dashboardService := invoicingapp.NewDashboardService(quoteRepo, invoiceRepo, paymentRepo, customerRepo)

	var businessMetrics *telemetry.BusinessMetrics
	if providers.Enabled() {
		businessMetrics, err = telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:               providers.MeterFor("invoicing/business"),
			Logger:              log,
			CollectInterval:     metricsCollectEvery,
			ReceivablesProvider: telemetry.NewGormReceivablesMetricsProvider(db.DB),
		})
		if err != nil {
			log.Warn("Business metrics disabled", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(ctx, telemetry.NewGormTenantProvider(db.DB), metricsCollectEvery)
			quoteService.SetBusinessMetrics(businessMetrics)
			invoiceService.SetBusinessMetrics(businessMetrics)
		}
	}

	// Live updates: every committed change reaches the hub through the event bus
	var hubOpts []realtime.Option
	if cfg.Realtime.RedisFanout && redisClient != nil {
		hubOpts = append(hubOpts, realtime.WithBroker(realtime.NewRedisBroker(redisClient, cfg.Realtime.Channel, log)))
	}
	hub := realtime.NewHub(log, hubOpts...)
	registerLiveCollections(hub, liveSources{
		quotes:    quoteService,
		invoices:  invoiceService,
		customers: customerService,
		suppliers: supplierService,
		payments:  paymentService,
	})
	if err := hub.Start(ctx); err != nil {
		return closeAll(log, fmt.Errorf("start live hub: %w", err), db, redisClient)
	}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(hub)
	if err := eventBus.Start(ctx); err != nil {
		return closeAll(log, fmt.Errorf("start event bus: %w", err), db, redisClient)
	}
	authService.SetEventPublisher(eventBus)
	tenantService.SetEventPublisher(eventBus)
	customerService.SetEventPublisher(eventBus)
	supplierService.SetEventPublisher(eventBus)
	productService.SetEventPublisher(eventBus)
	serviceService.SetEventPublisher(eventBus)
	quoteService.SetEventPublisher(eventBus)
	invoiceService.SetEventPublisher(eventBus)

	// Documents
	documentService, pdfRenderer, err := newDocumentService(ctx, cfg, invoiceRepo, tenantRepo, log)
	if err != nil {
		return closeAll(log, err, db, redisClient)
	}

	overdue, err := scheduler.NewOverdueScheduler(invoiceService, cfg.Scheduler, log)
	if err != nil {
		return closeAll(log, fmt.Errorf("create overdue scheduler: %w", err), db, redisClient)
	}
	if err := overdue.Start(ctx); err != nil {
		return closeAll(log, fmt.Errorf("start overdue scheduler: %w", err), db, redisClient)
	}

	// HTTP
	var limiter middleware.Limiter
	var memoryLimiter *middleware.MemoryLimiter
	if cfg.HTTP.RateLimitEnabled {
		if redisClient != nil {
			limiter = middleware.NewRedisLimiter(redisClient, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		} else {
			memoryLimiter = middleware.NewMemoryLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			limiter = memoryLimiter
		}
	}

	engineCfg := router.EngineConfig{
		Logger:      log,
		HTTP:        cfg.HTTP,
		ServiceName: cfg.Telemetry.ServiceName,
		Production:  cfg.App.IsProduction(),
		Tracing:     providers.Enabled(),
		Sentry:      sentryEnabled,
		Limiter:     limiter,
	}
	if providers.Enabled() {
		engineCfg.Meter = providers.MeterFor("invoicing/http")
	}
	engine, err := router.NewEngine(engineCfg)
	if err != nil {
		return closeAll(log, err, db, redisClient)
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("database", db.PingContext)
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	engine.GET("/health", systemHandler.Health)

	apiVersion := "v1"
	jwtAuth := middleware.JWTAuth(middleware.JWTMiddlewareConfig{
		Tokens:          jwtService,
		Revocations:     revocations,
		QueryTokenPaths: []string{router.LiveStreamPath(apiVersion)},
		Logger:          log,
	})
	protected := []gin.HandlerFunc{jwtAuth}
	if profiler != nil && profiler.Running() {
		protected = append(protected, middleware.Profiling())
	}

	r := router.NewRouter(engine, router.WithAPIVersion(apiVersion))
	for _, group := range router.APIGroups(router.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Tenant:    handler.NewTenantHandler(tenantService),
		Customers: handler.NewCustomerHandler(customerService),
		Suppliers: handler.NewSupplierHandler(supplierService),
		Products:  handler.NewProductHandler(productService),
		Services:  handler.NewServiceHandler(serviceService),
		Quotes:    handler.NewQuoteHandler(quoteService),
		Invoices:  handler.NewInvoiceHandler(invoiceService, documentService),
		Payments:  handler.NewPaymentHandler(paymentService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Live:      handler.NewLiveHandler(hub, cfg.Realtime.HeartbeatInterval),
		System:    systemHandler,
	}, protected...) {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
		// WriteTimeout stays zero: it would cut long-lived SSE streams.
		// Handlers are bounded by request contexts instead.
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var result *multierror.Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			result = multierror.Append(result, fmt.Errorf("http server: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Live streams end first so Shutdown does not wait on them
	if err := hub.Stop(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("live hub: %w", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("http shutdown: %w", err))
	}
	if err := overdue.Stop(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("overdue scheduler: %w", err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("event bus: %w", err))
	}
	if memoryLimiter != nil {
		memoryLimiter.Stop()
	}
	businessMetrics.Stop()
	if err := pdfRenderer.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("pdf renderer: %w", err))
	}
	if profiler != nil {
		if err := profiler.Stop(); err != nil {
			result = multierror.Append(result, fmt.Errorf("profiler: %w", err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("telemetry: %w", err))
	}
	if err := closeAll(log, nil, db, redisClient); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		log.Error("Shutdown finished with errors", zap.Error(err))
		return err
	}
	log.Info("Server exited gracefully")
	return nil
}

// newDocumentService builds HTML rendering, optional PDF output and optional PDF archiving
func newDocumentService(
	ctx context.Context,
	cfg *config.Config,
	invoices printingapp.InvoiceFinder,
	tenants printingapp.TenantFinder,
	log *zap.Logger,
) (*printingapp.DocumentService, printing.PDFRenderer, error) {
	renderer, err := printing.NewDocumentRenderer(
		printing.WithQRSize(cfg.Rendering.QRSize),
		printing.WithDefaultTemplate(invoicing.Template(cfg.Rendering.DefaultTemplate)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("load invoice layouts: %w", err)
	}

	var pdf printing.PDFRenderer = printing.DisabledRenderer{}
	if cfg.Rendering.PDFEnabled {
		chrome, err := printing.NewChromedpRenderer(&printing.ChromedpConfig{
			Timeout:  cfg.Rendering.Timeout,
			ExecPath: cfg.Rendering.ChromePath,
			// The container image runs Chrome as root
			NoSandbox: true,
			Logger:    log,
		})
		if err != nil {
			log.Warn("PDF output disabled", zap.Error(err))
		} else {
			pdf = chrome
		}
	}

	documents := printingapp.NewDocumentService(invoices, tenants, renderer, pdf, log)
	documents.SetPayloadEncoding(invoicing.PayloadEncoding(cfg.Compliance.Encoding))

	if cfg.Rendering.ArchiveEnabled && cfg.Storage.Bucket == "" {
		documents.SetArchive(storage.NewMemoryObjectStorage(cfg.App.PublicURL))
		log.Warn("PDF archiving uses process memory; archived documents are lost on restart")
	} else if cfg.Rendering.ArchiveEnabled {
		archive, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			_ = pdf.Close()
			return nil, nil, fmt.Errorf("initialize document archive: %w", err)
		}
		if err := archive.EnsureBucket(ctx); err != nil {
			_ = pdf.Close()
			return nil, nil, fmt.Errorf("prepare document archive: %w", err)
		}
		documents.SetArchive(archive)
		log.Info("PDF archiving enabled", zap.String("bucket", archive.GetBucket()))
	}

	return documents, pdf, nil
}

// closeAll releases the connections opened first and joins their errors with cause
func closeAll(log *zap.Logger, cause error, db *persistence.Database, redisClient *redis.Client) error {
	var result *multierror.Error
	if cause != nil {
		result = multierror.Append(result, cause)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
		result = multierror.Append(result, fmt.Errorf("close database: %w", err))
	}
	return result.ErrorOrNil()
}
