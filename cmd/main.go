package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/tesseract-hub/tour-service/internal/cache"
	"github.com/tesseract-hub/tour-service/internal/config"
	"github.com/tesseract-hub/tour-service/internal/events"
	"github.com/tesseract-hub/tour-service/internal/handlers"
	"github.com/tesseract-hub/tour-service/internal/health"
	"github.com/tesseract-hub/tour-service/internal/limits"
	"github.com/tesseract-hub/tour-service/internal/middleware"
	"github.com/tesseract-hub/tour-service/internal/models"
	"github.com/tesseract-hub/tour-service/internal/repository"
	"github.com/tesseract-hub/tour-service/internal/services"
)

// @title Virtual Tour API
// @version 1.0
// @description 360° virtual tour management service for Tesseract Hub applications
// @contact.name Tesseract Hub Team
// @contact.email dev@tesseract-hub.com
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8092
// @BasePath /
// @schemes http https
func main() {
	// Check if running health check
	if len(os.Args) > 1 && os.Args[1] == "health" {
		resp, err := http.Get("http://localhost:8092/livez")
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.NewConfig()

	// Set Gin mode
	gin.SetMode(cfg.Server.Mode)

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	// Initialize database
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Run database migrations
	if err := runMigrations(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	// Initialize NATS events publisher (non-blocking, events are best-effort)
	publisher, err := events.NewPublisher(cfg.NATS.URL, logger)
	if err != nil {
		log.Printf("WARNING: Failed to initialize events publisher: %v (events won't be published)", err)
		publisher = nil
	} else if publisher != nil {
		log.Println("✓ NATS events publisher initialized")
	}

	// Initialize Redis client (graceful degradation if unavailable)
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opt, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Printf("WARNING: Failed to parse Redis URL: %v (caching degraded to in-memory)", err)
		} else {
			redisClient = redis.NewClient(opt)
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Printf("WARNING: Failed to connect to Redis: %v (caching degraded to in-memory)", err)
				redisClient = nil
			} else {
				log.Println("✓ Redis connection established")
			}
		}
	}

	// Resolve the active tier
	tier := limits.FromConfig(cfg.Tier)
	log.Printf("✓ Tier %q active (tours=%d scenes=%d hotspots=%d)", cfg.Tier.Name,
		cfg.Tier.MaxTours, cfg.Tier.MaxScenesPerTour, cfg.Tier.MaxHotspotsPerScene)

	// Initialize dependencies
	docCache := cache.NewTourCache(redisClient)

	tourRepo := repository.NewTourRepository(db)
	sceneRepo := repository.NewSceneRepository(db)
	hotspotRepo := repository.NewHotspotRepository(db)

	tourService := services.NewTourService(tourRepo, tier, publisher, docCache, logger)
	sceneService := services.NewSceneService(tourRepo, sceneRepo, tier, publisher, docCache, logger)
	hotspotService := services.NewHotspotService(tourRepo, sceneRepo, hotspotRepo, tier, publisher, docCache, logger)
	exportService := services.NewExportService(tourRepo, sceneRepo, hotspotRepo, tourService, tier, publisher, logger)
	publicService := services.NewPublicService(tourRepo, docCache, logger)

	tourHandler := handlers.NewTourHandler(tourService)
	sceneHandler := handlers.NewSceneHandler(sceneService)
	hotspotHandler := handlers.NewHotspotHandler(hotspotService)
	exportHandler := handlers.NewExportHandler(exportService)
	publicHandler := handlers.NewPublicHandler(publicService)

	// Initialize health checker
	healthChecker := health.NewHealthChecker(db, cfg.App.Version)

	// Initialize Gin router
	router := setupRouter(tourHandler, sceneHandler, hotspotHandler, exportHandler, publicHandler, healthChecker, cfg, logger)

	// Mark service as ready
	healthChecker.SetReady(true)

	// Start server
	serverAddr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("🚀 Tour Service starting on %s", serverAddr)
	log.Printf("🏥 Health endpoints: /health, /livez, /readyz")
	log.Printf("📊 Metrics available at http://%s/metrics", serverAddr)
	log.Printf("🌐 Public viewer API available at http://%s/api/v1/public/tours", serverAddr)

	// Graceful shutdown handling
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		if publisher != nil {
			publisher.Close()
		}
		os.Exit(0)
	}()

	if err := router.Run(serverAddr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

// initializeDatabase establishes database connection
func initializeDatabase(dbConfig config.DatabaseConfig) (*gorm.DB, error) {
	dsn := dbConfig.DSN()

	// TranslateError lets the repositories detect unique constraint
	// violations as gorm.ErrDuplicatedKey.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connection established successfully")
	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *gorm.DB) error {
	log.Println("🔄 Running database migrations...")

	if err := db.AutoMigrate(
		&models.Tour{},
		&models.Scene{},
		&models.Hotspot{},
	); err != nil {
		log.Printf("⚠️  AutoMigrate warning: %v", err)
		// Don't fail - the table may already exist with slightly different schema
	}

	log.Println("✅ Database migrations completed successfully")
	return nil
}

// setupRouter configures the Gin router with middleware and routes
func setupRouter(tourHandler *handlers.TourHandler, sceneHandler *handlers.SceneHandler, hotspotHandler *handlers.HotspotHandler, exportHandler *handlers.ExportHandler, publicHandler *handlers.PublicHandler, healthChecker *health.HealthChecker, cfg *config.Config, logger *logrus.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(middleware.SetupCORS())
	router.Use(health.MetricsMiddleware()) // Prometheus metrics middleware

	// Health and observability endpoints (no auth required)
	router.GET("/health", healthChecker.HealthHandler)
	router.GET("/livez", healthChecker.LivezHandler)
	router.GET("/readyz", healthChecker.ReadyzHandler)
	router.GET("/metrics", health.MetricsHandler())

	// All API routes resolve the caller's identity; anonymous requests are
	// allowed through and rejected per-operation by the service layer.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(cfg.Auth.JWTSecret, logger))
	{
		// ========================================
		// Public viewer routes (read-only, anonymous allowed)
		// ========================================
		publicV1 := v1.Group("/public")
		{
			publicV1.GET("/tours/:idOrSlug", publicHandler.Get)
		}

		// Tour endpoints
		tours := v1.Group("/tours")
		{
			tours.POST("", tourHandler.Create)
			tours.GET("", tourHandler.List)
			tours.POST("/import", exportHandler.Import)
			tours.POST("/validate", exportHandler.Validate)
			tours.GET("/:id", tourHandler.Get)
			tours.PUT("/:id", tourHandler.Update)
			tours.DELETE("/:id", tourHandler.Delete)
			tours.GET("/:id/export", exportHandler.Export)

			// Scene collection endpoints nested under a tour
			tours.POST("/:id/scenes", sceneHandler.Create)
			tours.GET("/:id/scenes", sceneHandler.List)
			tours.PUT("/:id/scenes/reorder", sceneHandler.Reorder)
			tours.PUT("/:id/default-scene", sceneHandler.SetDefault)
		}

		// Scene endpoints
		scenes := v1.Group("/scenes")
		{
			scenes.GET("/:id", sceneHandler.Get)
			scenes.PUT("/:id", sceneHandler.Update)
			scenes.DELETE("/:id", sceneHandler.Delete)

			// Hotspot collection endpoints nested under a scene
			scenes.POST("/:id/hotspots", hotspotHandler.Create)
			scenes.GET("/:id/hotspots", hotspotHandler.List)
			scenes.PUT("/:id/hotspots/reorder", hotspotHandler.Reorder)
		}

		// Hotspot endpoints
		hotspots := v1.Group("/hotspots")
		{
			hotspots.GET("/:id", hotspotHandler.Get)
			hotspots.PUT("/:id", hotspotHandler.Update)
			hotspots.DELETE("/:id", hotspotHandler.Delete)
		}
	}

	return router
}
