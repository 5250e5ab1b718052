package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/verdantleaf/quote_api/internal/cache"
	"github.com/verdantleaf/quote_api/internal/config"
	"github.com/verdantleaf/quote_api/internal/database"
	"github.com/verdantleaf/quote_api/internal/handler"
	"github.com/verdantleaf/quote_api/internal/middleware"
	"github.com/verdantleaf/quote_api/internal/repository"
	"github.com/verdantleaf/quote_api/internal/service"
	"github.com/verdantleaf/quote_api/internal/worker"
	"github.com/verdantleaf/quote_api/pkg/copper"
	"github.com/verdantleaf/quote_api/pkg/githubstore"
)

// main is the application entrypoint for the quoting API.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting quote api")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 3c. Initialize session cache
	sessionCache := cache.NewSessionCache(redisClient, cfg.Pricing.SessionTTL)

	// 4. Initialize external clients
	var copperClient *copper.Client
	if cfg.Copper.AccessToken != "" {
		copperClient = copper.NewClient(copper.Config{
			BaseURL:        cfg.Copper.BaseURL,
			AccessToken:    cfg.Copper.AccessToken,
			UserEmail:      cfg.Copper.UserEmail,
			ActivityTypeID: cfg.Copper.ActivityTypeID,
		})
		log.Info().Msg("Copper CRM client configured")
	} else {
		log.Warn().Msg("Copper CRM not configured - activities will queue without delivery")
	}

	var githubClient *githubstore.Client
	if cfg.GitHub.Token != "" && cfg.GitHub.Owner != "" && cfg.GitHub.Repo != "" {
		githubClient = githubstore.NewClient(githubstore.Config{
			BaseURL: cfg.GitHub.BaseURL,
			Token:   cfg.GitHub.Token,
			Owner:   cfg.GitHub.Owner,
			Repo:    cfg.GitHub.Repo,
			Branch:  cfg.GitHub.Branch,
		})
		log.Info().Msg("GitHub catalog publishing configured")
	}

	// 5. Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	zoneRepo := repository.NewZoneRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	adminRepo := repository.NewAdminUserRepository(db)

	// 6. Initialize services
	authSvc := service.NewAuthService(clientRepo)
	adminAuthSvc := service.NewAdminAuthService(adminRepo)
	clientSvc := service.NewClientService(clientRepo)
	catalogSvc := service.NewCatalogService(catalogRepo, zoneRepo)
	sessionSvc := service.NewSessionService(sessionCache, catalogSvc)
	exportSvc := service.NewExportService(&cfg.Export)

	var crm service.CRMClient
	if copperClient != nil {
		crm = copperClient
	}
	quoteSvc := service.NewQuoteService(quoteRepo, activityRepo, sessionSvc, catalogSvc, crm, exportSvc, cfg.Worker.ActivityMaxAttempts)

	var publisher service.SnapshotPublisher
	if githubClient != nil {
		publisher = githubClient
	}
	mgmtSvc := service.NewCatalogManagementService(catalogRepo, zoneRepo, catalogSvc, publisher, cfg.GitHub.Path)

	// 6a. Load the initial catalog snapshot. A failed first load is fatal:
	// serving quotes against an empty catalog would reject every request anyway.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := catalogSvc.Reload(loadCtx); err != nil {
		loadCancel()
		log.Error().Err(err).Msg("initial catalog load failed")
		fmt.Fprintf(os.Stderr, "initial catalog load failed: %v\n", err)
		os.Exit(1)
	}
	loadCancel()

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:            handler.NewHealthHandler(catalogSvc),
		Quote:             handler.NewQuoteHandler(quoteSvc, exportSvc),
		Catalog:           handler.NewCatalogHandler(catalogSvc),
		Session:           handler.NewSessionHandler(sessionSvc, quoteSvc),
		Auth:              handler.NewAuthHandler(adminAuthSvc),
		Client:            handler.NewClientHandler(clientSvc),
		CatalogManagement: handler.NewCatalogManagementHandler(mgmtSvc),
	}

	// 8. Initialize middleware
	authMw := middleware.NewAuthMiddleware(authSvc)
	jwtMw := middleware.NewJWTMiddleware()

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, authMw, jwtMw)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewCatalogSyncWorker(catalogSvc, cfg.Worker.CatalogSyncInterval).Start(ctx)
	if copperClient != nil {
		go worker.NewActivityRetryWorker(quoteSvc, activityRepo, quoteRepo, cfg.Worker.ActivityRetryInterval, cfg.Worker.ActivityMaxAttempts).Start(ctx)
	}

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health            *handler.HealthHandler
	Quote             *handler.QuoteHandler
	Catalog           *handler.CatalogHandler
	Session           *handler.SessionHandler
	Auth              *handler.AuthHandler
	Client            *handler.ClientHandler
	CatalogManagement *handler.CatalogManagementHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, authMiddleware *middleware.AuthMiddleware, jwtMiddleware *middleware.JWTMiddleware) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	// Catalog reads (protected with client API key)
	catalog := router.Group("/v1/catalog")
	catalog.Use(authMiddleware.Handle())
	{
		catalog.GET("/products", handlers.Catalog.GetProducts)
		catalog.GET("/tiers", handlers.Catalog.GetTiers)
		catalog.GET("/zones", handlers.Catalog.GetZones)
	}

	// One-shot quote computation (protected with client API key)
	router.POST("/v1/quote", authMiddleware.Handle(), handlers.Quote.ComputeQuote)

	// Quote sessions (protected with client API key)
	sessions := router.Group("/v1/sessions")
	sessions.Use(authMiddleware.Handle())
	{
		sessions.POST("", handlers.Session.CreateSession)
		sessions.GET("/:id", handlers.Session.GetSession)
		sessions.DELETE("/:id", handlers.Session.DeleteSession)
		sessions.POST("/:id/lines", handlers.Session.AddLine)
		sessions.PUT("/:id/lines/:productKey", handlers.Session.UpdateLine)
		sessions.DELETE("/:id/lines/:productKey", handlers.Session.RemoveLine)
		sessions.PUT("/:id/region", handlers.Session.SetRegion)
		sessions.PUT("/:id/options", handlers.Session.SetOptions)
		sessions.PUT("/:id/customer", handlers.Session.SetCustomer)
		sessions.POST("/:id/finalize", handlers.Session.Finalize)
	}

	// Finalized quotes and exports (protected with client API key)
	quotes := router.Group("/v1/quotes")
	quotes.Use(authMiddleware.Handle())
	{
		quotes.GET("", handlers.Quote.ListQuotes)
		quotes.GET("/:id", handlers.Quote.GetQuote)
		quotes.GET("/:id/email", handlers.Quote.GetQuoteEmail)
		quotes.GET("/:id/document", handlers.Quote.GetQuoteDocument)
		quotes.GET("/:id/pdf", handlers.Quote.GetQuotePDF)
	}

	// Admin routes
	admin := router.Group("/v1/admin")
	admin.POST("/auth/login", handlers.Auth.Login)
	admin.Use(jwtMiddleware.Handle())
	{
		// Client Management
		admin.POST("/clients", handlers.Client.CreateClient)
		admin.GET("/clients", handlers.Client.ListClients)
		admin.GET("/clients/:clientId", handlers.Client.GetClient)
		admin.PUT("/clients/:clientId", handlers.Client.UpdateClient)
		admin.POST("/clients/:clientId/regenerate", handlers.Client.RegenerateKey)

		// Product Management
		admin.GET("/products", handlers.CatalogManagement.ListProducts)
		admin.POST("/products", handlers.CatalogManagement.CreateProduct)
		admin.PUT("/products/:key", handlers.CatalogManagement.UpdateProduct)
		admin.DELETE("/products/:key", handlers.CatalogManagement.DeleteProduct)

		// Tier Management
		admin.GET("/tiers", handlers.CatalogManagement.ListTiers)
		admin.PUT("/tiers", handlers.CatalogManagement.UpsertTier)
		admin.DELETE("/tiers/:threshold", handlers.CatalogManagement.DeleteTier)

		// Zone Management
		admin.GET("/zones", handlers.CatalogManagement.ListZones)
		admin.PUT("/zones", handlers.CatalogManagement.UpsertZone)
		admin.DELETE("/zones/:key", handlers.CatalogManagement.DeleteZone)

		// Region Mapping
		admin.PUT("/regions", handlers.CatalogManagement.SetRegion)
		admin.DELETE("/regions/:regionCode", handlers.CatalogManagement.DeleteRegion)
	}
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
