package main

import (
	"fmt"
	"log"
	"net/http"

	"clipdeck/internal/api"
	"clipdeck/internal/api/handlers"
	"clipdeck/internal/api/middleware"
	"clipdeck/internal/engine/sharelinks"
	"clipdeck/internal/pkg/logger"
	"clipdeck/internal/platform/auth"
	"clipdeck/internal/platform/config"
	"clipdeck/internal/platform/database"
	"clipdeck/internal/platform/repositories"
	"clipdeck/internal/platform/storage"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)
	middleware.Configure(cfg.RateLimit)

	// Database Connections
	globalDB, err := database.NewGlobalDB(cfg.Database.Global)
	if err != nil {
		log.Fatalf("Failed to connect to global DB: %v", err)
	}
	defer globalDB.Close()

	tenantDBPool := database.NewTenantDBPool(cfg.Database.Tenant)
	defer tenantDBPool.CloseAll()

	// Object storage backend
	var store storage.ObjectStore
	switch cfg.Storage.Mode {
	case "s3":
		store, err = storage.NewMinioStore(cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
	default:
		store, err = storage.NewLocalStore(cfg.Storage.LocalBase)
		if err != nil {
			log.Fatalf("Failed to prepare local storage: %v", err)
		}
	}

	// Repositories on the global DB
	groupRepo := repositories.NewClientGroupRepository(globalDB)
	userRepo := repositories.NewUserRepository(globalDB)
	shareRepo := sharelinks.NewRepository(globalDB)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)

	// Handlers. Tenant-scoped handlers resolve their repositories from the
	// request context.
	authHandler := handlers.NewAuthHandler(userRepo, groupRepo, tokenSvc)
	workspaceHandler := handlers.NewWorkspaceHandler()
	folderHandler := handlers.NewFolderHandler()
	videoHandler := handlers.NewVideoHandler(store)
	streamHandler := handlers.NewStreamHandler(store, cfg.Storage.SignedURLTTL)
	analyticsHandler := handlers.NewAnalyticsHandler()
	shareHandler := handlers.NewShareHandler(shareRepo, groupRepo, tenantDBPool, store, cfg.Storage.SignedURLTTL)
	healthHandler := handlers.NewHealthHandler(globalDB)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(groupRepo, tenantDBPool)

	// Router
	deps := &api.Dependencies{
		AuthHandler:      authHandler,
		WorkspaceHandler: workspaceHandler,
		FolderHandler:    folderHandler,
		VideoHandler:     videoHandler,
		StreamHandler:    streamHandler,
		AnalyticsHandler: analyticsHandler,
		ShareHandler:     shareHandler,
		HealthHandler:    healthHandler,
		AuthMiddleware:   authMiddleware,
		TenantMiddleware: tenantMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
