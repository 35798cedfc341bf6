package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claimlab/apiserver/config"
	"github.com/claimlab/apiserver/internal/auth"
	"github.com/claimlab/apiserver/internal/db"
	"github.com/claimlab/apiserver/internal/handlers"
	"github.com/claimlab/apiserver/internal/metrics"
	"github.com/claimlab/apiserver/internal/mq"
	"github.com/claimlab/apiserver/internal/services"
	"github.com/claimlab/apiserver/internal/storage"
	"github.com/claimlab/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server wraps the HTTP server and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.ClaimEvents
	tls        bool
	certFile   string
	keyFile    string
	logger     *zap.Logger
}

// New opens the database, receipt storage and event bus named by cfg and
// builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("receipt storage: %w", err)
	}
	receipts := storage.NewReceipts(backend)
	if receipts.Configured() {
		if err := receipts.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure bucket %s: %w", receipts.Bucket(), err)
		}
	}

	broker, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("event bus: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	var events *mq.ClaimEvents
	var publisher services.EventPublisher
	if broker != nil {
		events = mq.NewClaimEvents(broker, cfg.MQ.EventsChannel, logger)
		publisher = instrumentedPublisher{next: events, collector: collector}
	}

	userRepo := store.NewUserRepository(dbConn)
	deps := handlers.Deps{
		Issuer:          auth.NewIssuer(userRepo),
		Validator:       auth.NewValidator(),
		UserService:     services.NewUserService(userRepo),
		ClaimService:    services.NewClaimService(store.NewClaimRepository(dbConn), receipts, publisher, logger),
		CategoryService: services.NewCategoryService(store.NewCategoryRepository(dbConn)),
		DB:              dbConn,
		Driver:          cfg.Database.Driver,
		SecureCookies:   cfg.TLSEnabled(),
		Logins:          collector,
		StartedAt:       time.Now(),
		Logger:          logger,
	}

	router := NewRouter(deps, collector, registry, logger)

	logger.Info("server configured",
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.String("mq_backend", cfg.MQ.Backend),
		zap.Bool("tls", cfg.TLSEnabled()),
	)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:   router,
		db:       dbConn,
		events:   events,
		tls:      cfg.TLSEnabled(),
		certFile: cfg.TLSCert,
		keyFile:  cfg.TLSKey,
		logger:   logger,
	}, nil
}

// NewRouter builds the chi router with the shared middleware stack.
func NewRouter(deps handlers.Deps, collector *metrics.Collector, gatherer prometheus.Gatherer, logger *zap.Logger) *chi.Mux {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(logger, collector),
		middleware.Recoverer,
		cors.Handler(cors.Options{
			AllowOriginFunc:  func(_ *http.Request, _ string) bool { return true },
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	router.NotFound(handlers.NotFound)
	router.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))

	handlers.Mount(router, deps)
	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start serves HTTPS when both certificate files exist and HTTP otherwise.
// It returns nil after Shutdown.
func (s *Server) Start() error {
	var err error
	if s.tls {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr), zap.String("scheme", "https"))
		err = s.httpServer.ListenAndServeTLS(s.certFile, s.keyFile)
	} else {
		s.logger.Info("listening", zap.String("addr", s.httpServer.Addr), zap.String("scheme", "http"))
		err = s.httpServer.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, then closes the event bus and database.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.events != nil {
		if closeErr := s.events.Close(); closeErr != nil {
			s.logger.Warn("close event bus", zap.Error(closeErr))
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
