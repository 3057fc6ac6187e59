package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openroad/driveadmin/internal/audit"
	"github.com/openroad/driveadmin/internal/auth"
	"github.com/openroad/driveadmin/internal/bulk"
	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/database"
	auditdb "github.com/openroad/driveadmin/internal/database/audit"
	"github.com/openroad/driveadmin/internal/database/records"
	"github.com/openroad/driveadmin/internal/demo"
	http_controllers "github.com/openroad/driveadmin/internal/http"
	"github.com/openroad/driveadmin/internal/protect"
	"github.com/openroad/driveadmin/internal/query"
	"github.com/openroad/driveadmin/internal/scheduler"
	"github.com/openroad/driveadmin/internal/schema"
	"github.com/openroad/driveadmin/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until an interrupt or termination signal
// arrives, then shuts down within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Shutdown callback first so background workers drain before the
	// listener closes
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole application together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting DriveAdmin v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	var demoMiddleware *demo.Middleware
	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled - write operations will be blocked")
		demoMiddleware = demo.NewMiddleware(true)
		if err := demo.Seed(db.DB); err != nil {
			log.Fatalf("Failed to seed demo data: %v", err)
		}
	}

	registry := schema.NewRegistry()
	recordsRepo := records.NewRepository(db.DB, registry)
	queryEngine := query.NewEngine(db.DB, registry, cfg.Records.PageSize, cfg.Records.MaxPageSize)
	policy := protect.NewPolicy(registry)
	coordinator := bulk.NewCoordinator(recordsRepo, policy, cfg.Records.BulkWorkers)

	auditRepo := auditdb.NewRepository(db.DB)
	auditor := audit.NewService(auditRepo)

	// Task queue and the retention scheduler that feeds it
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var cleanupScheduler *scheduler.AuditCleanupScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromAppConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(auditRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		cleanupScheduler = scheduler.NewAuditCleanupScheduler(taskClient, cfg.Audit)
		if err := cleanupScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start audit cleanup scheduler: %v", err)
		}
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(db.DB, cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}
		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)

		if cfg.Auth.SessionSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.SessionSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.SessionSecret)
			}
		} else {
			secret, err := auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			csrfSecret, _ = hex.DecodeString(secret)
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasAdmins, _ := authService.HasAdministrators()
		if !hasAdmins {
			log.Printf("No administrators found. POST /setup to create the owner account.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		Registry:       registry,
		Records:        recordsRepo,
		QueryEngine:    queryEngine,
		Policy:         policy,
		Bulk:           coordinator,
		Auditor:        auditor,
		AuditRepo:      auditRepo,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthConfig:     cfg.Auth,
		CSRFSecret:     csrfSecret,
		DemoMiddleware: demoMiddleware,
		PageSize:       cfg.Records.PageSize,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if cleanupScheduler != nil {
			cleanupScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
