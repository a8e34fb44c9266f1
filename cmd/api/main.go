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

	_ "refurbstock/api/swagger" // swagger docs
	"refurbstock/internal/config"
	"refurbstock/internal/database"
	"refurbstock/internal/handler"
	"refurbstock/internal/logger"
	"refurbstock/internal/media"
	"refurbstock/internal/middleware"
	"refurbstock/internal/repository"
	"refurbstock/internal/service"
	"refurbstock/internal/storage"
	"refurbstock/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/crypto/bcrypt"
)

// @title           Refurbstock API
// @version         1.0
// @description     Inventory and user management for a device refurbishment workshop.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	for _, w := range cfg.Warnings {
		log.Warn("Config value ignored", "detail", w)
	}

	gin.SetMode(cfg.GinMode)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.DSN(), log)
	if err != nil {
		log.Fatal("Database connection failed", "error", err)
	}
	log.Info("Connected to database")

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	// Asset hosting
	var assets storage.AssetHost
	switch cfg.AssetBackend {
	case "gcs":
		gcs, err := storage.NewGCS(ctx, cfg.GCSBucket, "refurbstock", cfg.GCSCredentialsFile)
		if err != nil {
			log.Fatal("GCS client failed", "error", err)
		}
		defer func() { _ = gcs.Close() }()
		assets = gcs
	default:
		disk, err := storage.NewDisk(cfg.AssetDiskPath, cfg.AssetPublicURL)
		if err != nil {
			log.Fatal("Asset directory unavailable", "path", cfg.AssetDiskPath, "error", err)
		}
		router.Static(cfg.AssetPublicURL, disk.Root())
		assets = disk
	}
	normalizer := media.NewNormalizer(cfg.ImageMaxDimension, cfg.MaxUploadBytes)

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(log)
	go wsHub.Run(ctx)
	if cfg.RedisAddress != "" {
		relay, err := websocket.NewRedisRelay(log, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisChannel)
		if err != nil {
			log.Fatal("Redis relay failed", "error", err)
		}
		if err := relay.Start(wsHub); err != nil {
			log.Fatal("Redis relay failed", "error", err)
		}
		defer func() { _ = relay.Stop() }()
		wsHub.SetRelay(relay)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	permRepo := repository.NewPermissionRepository(db)
	productRepo := repository.NewProductRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	warehouseRepo := repository.NewWarehouseRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	statsRepo := repository.NewStatisticsRepository(db)

	tokens := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	authService, err := service.NewAuthService(userRepo, permRepo, tokens, cfg.PrivilegedRole, bcrypt.DefaultCost, log)
	if err != nil {
		log.Fatal("Auth service misconfigured", "error", err)
	}
	activityService := service.NewActivityService(repository.NewActivityRepository(db))
	roleService := service.NewRoleService(txManager, roleRepo, userRepo, permRepo, activityService, cfg.PrivilegedRole, log)
	permService := service.NewPermissionService(txManager, roleRepo, permRepo, activityService, log)
	userService := service.NewUserService(txManager, userRepo, roleRepo, assets, normalizer, activityService, bcrypt.DefaultCost, log)
	productService := service.NewProductService(txManager, productRepo, movementRepo, assets, normalizer, activityService, wsHub, log)
	warehouseService := service.NewWarehouseService(txManager, warehouseRepo, activityService, log)
	deviceService := service.NewDeviceService(txManager, deviceRepo, activityService, log)
	dashboardService := service.NewDashboardService(productRepo, movementRepo, statsRepo)

	// Seed the privileged role and the first account
	adminRole, err := roleService.EnsurePrivilegedRole(ctx)
	if err != nil {
		log.Fatal("Failed to seed privileged role", "error", err)
	}
	if err := userService.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdminUsername, cfg.BootstrapAdminPassword, adminRole.ID); err != nil {
		log.Fatal("Failed to seed bootstrap account", "error", err)
	}

	gate := middleware.NewGate(authService, log)

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", websocket.ServeWs(wsHub, authService))

	// API Routing
	api := router.Group("/api")
	handler.NewAuthHandler(authService, gate).RegisterRoutes(api)
	handler.NewRoleHandler(roleService, gate).RegisterRoutes(api)
	handler.NewPermissionHandler(permService, gate).RegisterRoutes(api)
	handler.NewUserHandler(userService, gate).RegisterRoutes(api)
	handler.NewProductHandler(productService, gate).RegisterRoutes(api)
	handler.NewWarehouseHandler(warehouseService, gate).RegisterRoutes(api)
	handler.NewDeviceHandler(deviceService, gate).RegisterRoutes(api)
	handler.NewActivityHandler(activityService, gate).RegisterRoutes(api)
	handler.NewDashboardHandler(dashboardService, gate).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown", "error", err)
		}
	}()

	log.Info("Server listening", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Server failed", "error", err)
	}
}
