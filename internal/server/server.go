package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"path"
	"time"

	"preset-shop/internal/auth"
	"preset-shop/internal/config"
	"preset-shop/internal/database"
	"preset-shop/internal/metrics"
	custommiddleware "preset-shop/internal/middleware"
	"preset-shop/internal/repository"
	"preset-shop/internal/service"
	"preset-shop/internal/storage"
	"preset-shop/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies are the resources the server is built on. Redis is optional; without it auth routes are not rate limited.
type Dependencies struct {
	DB      *sql.DB
	Redis   *redis.Client
	Files   *storage.FileStore
	// Metrics is optional; nil disables instrumentation and /metrics
	Metrics *metrics.Metrics
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Dependencies
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Dependencies) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	if deps.Metrics != nil {
		router.Use(deps.Metrics.Middleware)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/api/health", healthHandler(deps.DB, logger))
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics.Handler())
	}

	// Repositories
	admins := repository.NewAdminRepository(deps.DB)
	customers := repository.NewCustomerRepository(deps.DB)
	categories := repository.NewCategoryRepository(deps.DB)
	presets := repository.NewPresetRepository(deps.DB)
	purchases := repository.NewPurchaseRepository(deps.DB)
	products := repository.NewProductRepository(deps.DB)

	// Services
	tokens := auth.NewTokenIssuer(cfg.JWT)
	hasher := auth.NewBcryptHasher(cfg.JWT.BcryptCost)
	authService := service.NewAuthService(admins, customers, hasher, tokens, deps.Metrics, logger)
	purchaseService := service.NewPurchaseService(presets, purchases, deps.Metrics, logger)
	categoryService := service.NewCategoryService(categories, logger)
	presetService := service.NewPresetService(presets, deps.Files, logger)
	productService := service.NewProductService(products, deps.Files, logger)

	authenticate := custommiddleware.AuthMiddleware(tokens, logger)

	var authLimit func(http.Handler) http.Handler
	if deps.Redis != nil {
		authLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window(),
			KeyPrefix:         "rate_limit:auth",
		}, logger)
	}

	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, authLimit)
	transport.NewPurchaseHandler(purchaseService, deps.Files, deps.Metrics, logger).RegisterRoutes(router, authenticate)
	transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(router, authenticate)
	transport.NewPresetHandler(presetService, logger).RegisterRoutes(router, authenticate)
	transport.NewProductHandler(productService, logger).RegisterRoutes(router, authenticate)

	// Only image folders are public; preset files go through the download route
	for _, folder := range storage.PublicFolders {
		prefix := path.Join(storage.UploadsPrefix, folder)
		router.Handle(prefix+"/*", http.StripPrefix(prefix, deps.Files.PublicHandler(folder)))
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  time.Minute,
			WriteTimeout: 5 * time.Minute,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}
}

func healthHandler(db *sql.DB, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := database.Health(r.Context(), db)

		status, code := "healthy", http.StatusOK
		if health["status"] != "up" {
			logger.Warn("Database health check failed", zap.String("error", health["error"]))
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, code, map[string]string{
			"status":    status,
			"database":  health["status"],
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Close releases the database and Redis connections
func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close Redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
