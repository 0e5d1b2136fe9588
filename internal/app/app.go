// Package app assembles the products service: configuration, storage,
// product routes and the HTTP pipeline in front of them.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tair/eshoplite-products/internal/config"
	"github.com/tair/eshoplite-products/internal/product"
	producthttp "github.com/tair/eshoplite-products/internal/product/delivery/http"
	"github.com/tair/eshoplite-products/internal/product/events"
	"github.com/tair/eshoplite-products/internal/product/repository"
	"github.com/tair/eshoplite-products/pkg/database"
	"github.com/tair/eshoplite-products/pkg/logger"
	"github.com/tair/eshoplite-products/pkg/problem"
)

const shutdownTimeout = 10 * time.Second

// DatabaseOpener opens the products database
type DatabaseOpener func(database.Config) (*gorm.DB, error)

type options struct {
	openDatabase   DatabaseOpener
	registry       *prometheus.Registry
	publisher      events.Publisher
	redisClient    *redis.Client
	tracerProvider trace.TracerProvider
}

// Option customises App construction
type Option func(*options)

// WithDatabaseOpener replaces database.Open
func WithDatabaseOpener(open DatabaseOpener) Option {
	return func(o *options) { o.openDatabase = open }
}

// WithRegistry sets the Prometheus registry behind /metrics
func WithRegistry(registry *prometheus.Registry) Option {
	return func(o *options) { o.registry = registry }
}

// WithPublisher sets the product event publisher instead of building one from
// the Kafka settings
func WithPublisher(publisher events.Publisher) Option {
	return func(o *options) { o.publisher = publisher }
}

// WithRedisClient sets the product cache client instead of building one from
// the Redis settings
func WithRedisClient(client *redis.Client) Option {
	return func(o *options) { o.redisClient = client }
}

// WithTracerProvider sets the provider used for HTTP server spans
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// App is the products service
type App struct {
	cfg         *config.Config
	db          *gorm.DB
	sqlDB       *sql.DB
	initializer *repository.Initializer
	router      *mux.Router
	handler     http.Handler
	closers     []func() error
}

// New validates cfg, opens the products database and assembles the request
// pipeline. Nothing is bound to the network until Run.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{openDatabase: database.Open}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	a := &App{cfg: cfg}
	if err := a.openStorage(o.openDatabase); err != nil {
		a.Close()
		return nil, err
	}

	handler, err := product.InitializeHTTPHandler(a.db, a.cacheOptions(o.redisClient), a.publisher(o.publisher), o.registry)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize product handler: %w", err)
	}

	a.router = a.buildRouter(handler, o.registry)
	a.handler = a.buildPipeline(a.router, o.tracerProvider)

	logger.Logger.Info().
		Str("environment", string(cfg.Environment)).
		Str("provider", providerOrDefault(cfg.Database.Provider)).
		Bool("schema_routes", cfg.Environment.IsDevelopment()).
		Msg("Products service assembled")

	return a, nil
}

func (a *App) openStorage(open DatabaseOpener) error {
	db, err := open(database.Config{
		Provider:         a.cfg.Database.Provider,
		ConnectionString: a.cfg.ConnectionStrings.ProductsContext,
		MaxOpenConns:     a.cfg.Database.MaxOpenConns,
		ConnMaxLifetime:  a.cfg.Database.ConnMaxLifetime,
		SlowThreshold:    a.cfg.Database.SlowThreshold,
		LogLevel:         a.cfg.Database.LogLevel,
	})
	if err != nil {
		return fmt.Errorf("failed to open products database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	a.db = db
	a.sqlDB = sqlDB
	a.closers = append(a.closers, sqlDB.Close)
	a.initializer = repository.NewInitializer(db)
	return nil
}

func (a *App) cacheOptions(client *redis.Client) product.CacheOptions {
	if client == nil && a.cfg.Redis.Addr != "" {
		client = redis.NewClient(&redis.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)
		logger.Logger.Info().Str("addr", a.cfg.Redis.Addr).Msg("Product cache enabled")
	}
	return product.CacheOptions{Client: client, TTL: a.cfg.Redis.TTL}
}

func (a *App) publisher(publisher events.Publisher) events.Publisher {
	if publisher != nil {
		return publisher
	}
	if len(a.cfg.Kafka.Brokers) == 0 {
		return events.NopPublisher{}
	}

	kafka, err := events.NewKafkaPublisher(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
	if err != nil {
		logger.Logger.Warn().
			Err(err).
			Strs("brokers", a.cfg.Kafka.Brokers).
			Msg("Kafka unavailable, product events disabled")
		return events.NopPublisher{}
	}
	a.closers = append(a.closers, kafka.Close)
	return kafka
}

// buildRouter registers the route table. Schema routes exist only in
// development; elsewhere the schema path falls to the NotFound problem.
func (a *App) buildRouter(handler *producthttp.ProductHandler, registry *prometheus.Registry) *mux.Router {
	router := mux.NewRouter()
	router.NotFoundHandler = problem.NotFoundHandler()
	router.MethodNotAllowedHandler = problem.MethodNotAllowedHandler()

	if a.cfg.Environment.IsDevelopment() {
		producthttp.RegisterSchemaRoutes(router)
	}

	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, a.sqlDB)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})).Methods(http.MethodGet)

	return router
}

// buildPipeline wraps the router. HTTPS redirection and static files sit
// directly in front of route dispatch so every request passes them.
func (a *App) buildPipeline(router http.Handler, tp trace.TracerProvider) http.Handler {
	return Chain(router,
		CORSMiddleware(a.cfg.HTTP.AllowedOrigins),
		problem.RecoveryMiddleware,
		RequestIDMiddleware(),
		TracingMiddleware(a.cfg.ServiceName+"-http-request", tp),
		LoggingMiddleware,
		HTTPSRedirectMiddleware(a.cfg.HTTP.HTTPSPort),
		StaticFilesMiddleware(a.cfg.HTTP.StaticDir),
	)
}

// Handler returns the assembled request pipeline
func (a *App) Handler() http.Handler {
	return a.handler
}

// DB returns the products database
func (a *App) DB() *gorm.DB {
	return a.db
}

// EnsureStorage creates the products schema and seed data when absent.
// It is safe to call on every start.
func (a *App) EnsureStorage(ctx context.Context) error {
	if err := a.initializer.EnsureCreated(ctx); err != nil {
		return fmt.Errorf("failed to ensure products storage: %w", err)
	}
	logger.Info(ctx).Msg("Products storage ready")
	return nil
}

// Run serves HTTP, and HTTPS when certificates are configured, until ctx is
// cancelled or a listener fails. Servers are shut down gracefully.
func (a *App) Run(ctx context.Context) error {
	servers := []*http.Server{a.newServer(a.cfg.HTTP.Port)}
	if a.cfg.HTTP.TLSEnabled() {
		servers = append(servers, a.newServer(a.cfg.HTTP.HTTPSPort))
	}

	errCh := make(chan error, len(servers))
	for i, srv := range servers {
		tls := i > 0
		go func(srv *http.Server) {
			logger.Logger.Info().
				Str("addr", srv.Addr).
				Bool("tls", tls).
				Msg("HTTP server started")

			var err error
			if tls {
				err = srv.ListenAndServeTLS(a.cfg.HTTP.CertFile, a.cfg.HTTP.KeyFile)
			} else {
				err = srv.ListenAndServe()
			}
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("server %s failed: %w", srv.Addr, err)
			}
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Logger.Info().Msg("Shutting down server...")
	case runErr = <-errCh:
		logger.Logger.Error().Err(runErr).Msg("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			runErr = errors.Join(runErr, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
		}
	}
	return runErr
}

func (a *App) newServer(port int) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort("", strconv.Itoa(port)),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
		IdleTimeout:  a.cfg.HTTP.IdleTimeout,
	}
}

// Close releases the database, cache and event connections
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func providerOrDefault(p string) string {
	if p == "" {
		return database.ProviderSQLite
	}
	return p
}
