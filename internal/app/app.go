package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/callmaker24/segmentation/config"
	"github.com/callmaker24/segmentation/internal/database"
	"github.com/callmaker24/segmentation/internal/domain"
	httpHandler "github.com/callmaker24/segmentation/internal/http"
	"github.com/callmaker24/segmentation/internal/http/middleware"
	"github.com/callmaker24/segmentation/internal/repository"
	"github.com/callmaker24/segmentation/internal/service"
	"github.com/callmaker24/segmentation/pkg/logger"
	"github.com/callmaker24/segmentation/pkg/ratelimiter"
	"github.com/callmaker24/segmentation/pkg/tracing"
)

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB

	GetCustomerRepository() domain.CustomerRepository
	GetActivityRepository() domain.ActivityRepository
	GetSegmentRepository() domain.SegmentRepository
	GetSegmentationService() domain.SegmentationService

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitDB() error
	InitTracing() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

type shutdownContextKey struct{}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB

	// stops the periodic ocsql connection pool stats recorder
	stopDBStats func()

	// Repositories
	customerRepo domain.CustomerRepository
	activityRepo domain.ActivityRepository
	segmentRepo  domain.SegmentRepository

	// Services
	customerService     *service.CustomerService
	segmentService      *service.SegmentService
	segmentationService *service.SegmentationService
	webhookNotifier     *service.WebhookNotifier
	scheduler           *service.SegmentationScheduler
	rateLimiter         *ratelimiter.RateLimiter

	// HTTP handlers
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown management
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing and the segmentation metric views
func (a *App) InitTracing() error {
	tracingConfig := &a.config.Tracing

	if err := tracing.InitTracing(tracingConfig, service.SegmentationViews...); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if tracingConfig.Enabled {
		a.logger.WithField("trace_exporter", tracingConfig.TraceExporter).
			WithField("metrics_exporter", tracingConfig.MetricsExporter).
			WithField("sampling_rate", tracingConfig.SamplingProbability).
			Info("Tracing initialized successfully")
	}

	return nil
}

// InitDB connects to the database and applies the schema.
// An injected connection only gets the schema applied.
func (a *App) InitDB() error {
	ctx := context.Background()

	if a.db != nil {
		if err := database.InitializeDatabase(ctx, a.db); err != nil {
			return fmt.Errorf("failed to initialize database schema: %w", err)
		}
		return nil
	}

	dbConfig := &a.config.Database
	a.logger.WithFields(map[string]interface{}{
		"host":    dbConfig.Host,
		"port":    dbConfig.Port,
		"user":    dbConfig.User,
		"dbname":  dbConfig.DBName,
		"sslmode": dbConfig.SSLMode,
	}).Info("Connecting to database")

	if err := a.ensureDatabase(); err != nil {
		return err
	}

	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := sql.Open(driverName, database.GetDSN(dbConfig))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.InitializeDatabase(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	database.ConfigurePool(db, dbConfig)

	if a.config.Tracing.Enabled {
		a.stopDBStats = ocsql.RecordStats(db, 5*time.Second)
	}

	a.db = db
	return nil
}

// ensureDatabase creates the segmentation database through the maintenance database
func (a *App) ensureDatabase() error {
	admin, err := sql.Open("postgres", database.GetPostgresDSN(&a.config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer admin.Close()

	if err := database.EnsureDatabaseExists(admin, a.config.Database.DBName); err != nil {
		a.logger.WithField("error", err.Error()).Error("Database check failed")
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	a.logger.Info("Database check completed")
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return errors.New("database is not initialized")
	}

	a.customerRepo = repository.NewCustomerRepository(a.db)
	a.activityRepo = repository.NewActivityRepository(a.db)
	a.segmentRepo = repository.NewSegmentRepository(a.db)

	return nil
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	catalog, err := a.loadCatalog()
	if err != nil {
		return err
	}

	a.segmentService = service.NewSegmentService(a.segmentRepo, a.customerRepo, catalog, a.logger)

	a.webhookNotifier, err = service.NewWebhookNotifier(
		a.config.Segmentation.WebhookURL,
		a.config.Segmentation.WebhookSecret,
		nil,
		a.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize webhook notifier: %w", err)
	}

	a.segmentationService = service.NewSegmentationService(
		a.customerRepo,
		a.activityRepo,
		a.segmentService,
		a.webhookNotifier,
		a.logger,
	)

	a.customerService = service.NewCustomerService(a.customerRepo, a.activityRepo, a.logger)

	if a.config.Segmentation.SchedulerEnabled {
		a.scheduler = service.NewSegmentationScheduler(
			a.customerRepo,
			a.segmentationService,
			a.logger,
			a.config.Segmentation.SchedulerInterval,
		)
	}

	return nil
}

// loadCatalog reads the configured catalog file; without one the built-in catalog is used
func (a *App) loadCatalog() (domain.SegmentCatalog, error) {
	path := a.config.Segmentation.CatalogFile
	if path == "" {
		return domain.DefaultSegmentCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read segment catalog: %w", err)
	}

	catalog, err := domain.ParseSegmentCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse segment catalog %s: %w", path, err)
	}

	a.logger.WithField("file", path).
		WithField("definitions", len(catalog)).
		Info("Segment catalog loaded")
	return catalog, nil
}

// getSecretKey returns the HMAC key verifying API bearer tokens
func (a *App) getSecretKey() ([]byte, error) {
	if a.config.Security.SecretKey == "" {
		return nil, errors.New("secret key is not configured")
	}
	return []byte(a.config.Security.SecretKey), nil
}

// InitHandlers initializes all HTTP handlers and routes
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	if a.rateLimiter == nil {
		a.rateLimiter = ratelimiter.NewRateLimiter()
	}
	a.rateLimiter.SetPolicy(
		httpHandler.EvaluateRateLimitNamespace,
		a.config.Segmentation.EvaluateRateLimit,
		a.config.Segmentation.EvaluateRateWindow,
	)

	rootHandler := httpHandler.NewRootHandler(a.db, a.config.Version, a.logger)
	customerHandler := httpHandler.NewCustomerHandler(a.customerService, a.getSecretKey, a.logger)
	segmentHandler := httpHandler.NewSegmentHandler(a.segmentService, a.getSecretKey, a.logger)
	segmentationHandler := httpHandler.NewSegmentationHandler(
		a.segmentationService,
		a.segmentService,
		a.rateLimiter,
		a.getSecretKey,
		a.logger,
	)

	rootHandler.RegisterRoutes(a.mux)
	customerHandler.RegisterRoutes(a.mux)
	segmentHandler.RegisterRoutes(a.mux)
	segmentationHandler.RegisterRoutes(a.mux)

	return nil
}

// Handler returns the mux wrapped with the server middleware chain
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)

	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}

	return middleware.CORSMiddleware(a.config.Server.CORSAllowOrigin)(handler)
}

// Start starts the segmentation scheduler and the HTTP server
func (a *App) Start() error {
	handler := a.Handler()

	if a.scheduler != nil {
		a.scheduler.Start(a.shutdownCtx)
	}

	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).Info(fmt.Sprintf("Server starting on %s", addr))

	a.serverMu.Lock()
	if a.serverStarted != nil {
		select {
		case <-a.serverStarted:
		default:
			close(a.serverStarted)
		}
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// Shutdown stops the scheduler, drains in-flight requests and releases resources
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources()
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	if shutdownErr == nil {
		requestsDone := make(chan struct{})
		go func() {
			a.requestWg.Wait()
			close(requestsDone)
		}()

		select {
		case <-requestsDone:
		case <-shutdownCtx.Done():
			a.logger.WithField("active_requests", a.getActiveRequestCount()).
				Warn("Shutdown timeout reached, forcing shutdown")
			shutdownErr = fmt.Errorf("shutdown timeout exceeded")
		}
	}

	if cleanupErr := a.cleanupResources(); cleanupErr != nil && shutdownErr == nil {
		shutdownErr = cleanupErr
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources handles cleanup of database and other resources
func (a *App) cleanupResources() error {
	if a.rateLimiter != nil {
		a.rateLimiter.Stop()
	}

	if a.stopDBStats != nil {
		a.stopDBStats()
		a.stopDBStats = nil
	}

	if a.db != nil {
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}

	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created.
// Returns false if ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting segmentation application")

	steps := []func() error{
		a.InitTracing,
		a.InitDB,
		a.InitRepositories,
		a.InitServices,
		a.InitHandlers,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

// GetConfig returns the app's configuration
func (a *App) GetConfig() *config.Config {
	return a.config
}

// GetLogger returns the app's logger
func (a *App) GetLogger() logger.Logger {
	return a.logger
}

// GetMux returns the app's HTTP multiplexer
func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

// GetDB returns the app's database connection
func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetCustomerRepository() domain.CustomerRepository {
	return a.customerRepo
}

func (a *App) GetActivityRepository() domain.ActivityRepository {
	return a.activityRepo
}

func (a *App) GetSegmentRepository() domain.SegmentRepository {
	return a.segmentRepo
}

func (a *App) GetSegmentationService() domain.SegmentationService {
	if a.segmentationService == nil {
		return nil
	}
	return a.segmentationService
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of active requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
}

// GetShutdownContext returns the context cancelled when shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks active requests and rejects new ones once shutdown starts
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		atomic.AddInt64(&a.activeRequests, 1)
		a.requestWg.Add(1)
		defer func() {
			atomic.AddInt64(&a.activeRequests, -1)
			a.requestWg.Done()
		}()

		ctx := context.WithValue(r.Context(), shutdownContextKey{}, a.shutdownCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
