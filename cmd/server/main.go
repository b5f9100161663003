package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appadvance "github.com/agrifin/backend/internal/application/advance"
	"github.com/agrifin/backend/internal/infrastructure/cache"
	"github.com/agrifin/backend/internal/infrastructure/config"
	"github.com/agrifin/backend/internal/infrastructure/creditscore"
	"github.com/agrifin/backend/internal/infrastructure/liquiditypool"
	"github.com/agrifin/backend/internal/infrastructure/logger"
	"github.com/agrifin/backend/internal/infrastructure/persistence"
	"github.com/agrifin/backend/internal/interfaces/http/handler"
	"github.com/agrifin/backend/internal/interfaces/http/middleware"
	"github.com/agrifin/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//	@title			AgriFin Advance API
//	@version		1.0
//	@description	Cash advance lifecycle service for agricultural delivery orders

//	@host		localhost:8080
//	@BasePath	/api/v1

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting AgriFin Advance Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Run schema migrations
	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to migrate database schema", zap.Error(err))
	}
	log.Info("Database schema up to date")

	// Initialize repositories
	contractRepo := persistence.NewGormAdvanceContractRepository(db.DB)
	historyRepo := persistence.NewGormAdvanceStatusHistoryRepository(db.DB)
	ledgerRepo := persistence.NewGormAdvanceLedgerRepository(db.DB)
	orderRepo := persistence.NewGormDeliveryOrderRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize the contract read cache (memory or redis per config)
	cacheFactory := cache.NewContractCacheFactory(cfg.Cache, cfg.Redis, cache.WithLogger(log))
	contractCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize contract cache", zap.Error(err))
	}
	defer func() {
		if err := contractCache.Close(); err != nil {
			log.Error("Error closing contract cache", zap.Error(err))
		}
	}()
	log.Info("Contract cache initialized",
		zap.String("backend", cfg.Cache.Backend),
		zap.Duration("ttl", cfg.Cache.ContractTTL),
	)

	// Initialize collaborator clients
	creditClient := creditscore.NewClient(cfg.Collaborators)
	poolClient := liquiditypool.NewClient(cfg.Collaborators)
	log.Info("Collaborator clients initialized",
		zap.String("credit_scoring_url", cfg.Collaborators.CreditScoringURL),
		zap.String("liquidity_pool_url", cfg.Collaborators.LiquidityPoolURL),
	)

	// Initialize application services
	termsService := appadvance.NewTermsService(contractRepo, orderRepo, creditClient, log)
	advanceService := appadvance.NewAdvanceService(
		contractRepo,
		historyRepo,
		ledgerRepo,
		txScope,
		termsService,
		poolClient,
		creditClient,
		contractCache,
		log,
	)
	advanceService.SetCacheTTL(cfg.Cache.ContractTTL)

	// Initialize HTTP handlers
	advanceHandler := handler.NewAdvanceHandler(advanceService, termsService)
	systemHandler := handler.NewSystemHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Advance domain (quotes, contracts, lifecycle operations)
	advanceRoutes := router.NewDomainGroup("advance", "/advances")
	advanceRoutes.POST("", advanceHandler.RequestAdvance)
	advanceRoutes.POST("/quote", advanceHandler.Quote)
	advanceRoutes.GET("/:id", advanceHandler.GetAdvance)
	advanceRoutes.POST("/:id/transition", advanceHandler.Transition)
	advanceRoutes.POST("/:id/disburse", advanceHandler.Disburse)
	advanceRoutes.POST("/:id/repayments", advanceHandler.Repay)
	advanceRoutes.POST("/:id/default", advanceHandler.MarkDefaulted)

	// Farmer-scoped views
	farmerRoutes := router.NewDomainGroup("farmer", "/farmers")
	farmerRoutes.GET("/:id/advances", advanceHandler.ListFarmerAdvances)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/health", systemHandler.Health)
	systemRoutes.GET("/ping", systemHandler.Ping)

	// Register all domain groups
	r.Register(advanceRoutes).
		Register(farmerRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
