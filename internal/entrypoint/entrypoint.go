// Package entrypoint wires the application together and runs the HTTP server.
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

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/covers"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/books"
	"github.com/mrlokans/librarium/internal/database/categories"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/database/members"
	"github.com/mrlokans/librarium/internal/database/users"
	http_controllers "github.com/mrlokans/librarium/internal/http"
	"github.com/mrlokans/librarium/internal/scheduler"
	"github.com/mrlokans/librarium/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then drains it
// within the configured shutdown timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run builds every component from configuration and serves requests.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Librarium v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	loanRepo := loans.NewRepository(db.DB, cfg.Loans.PeriodDays)
	bookRepo := books.NewRepository(db.DB)
	memberRepo := members.NewRepository(db.DB)
	categoryRepo := categories.NewRepository(db.DB)

	coverStorage, err := covers.NewStorage(cfg.Covers.Dir)
	if err != nil {
		log.Fatalf("Failed to initialize cover storage: %v", err)
	}

	// Task queue for overdue notices
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueNoticeQueue(tasks.LogNotifier{}),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic overdue scan
	var overdueScanner *scheduler.OverdueScanner
	if cfg.OverdueScan.Enabled {
		var enqueuer scheduler.NoticeEnqueuer
		if taskClient != nil {
			enqueuer = taskClient
		}
		interval := time.Duration(cfg.OverdueScan.IntervalMinutes) * time.Minute
		overdueScanner = scheduler.NewOverdueScanner(loanRepo, enqueuer, interval)
		if err := overdueScanner.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start overdue scanner: %v", err)
		}
	} else {
		log.Printf("Overdue scanner: disabled")
	}

	// Authentication
	var authService *auth.Service
	var authMiddleware *auth.Middleware
	var sessionManager *auth.SessionManager
	var authController *auth.Controller
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		authService = auth.NewService(users.NewRepository(db.DB), cfg.Auth)

		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatalf("Failed to get SQL DB for sessions: %v", err)
		}
		sessionManager, err = auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}

		authMiddleware = auth.NewMiddleware(authService, sessionManager, cfg.Auth)
		authController = auth.NewController(authService, sessionManager, memberRepo)

		if cfg.Auth.CSRFSecret != "" {
			csrfSecret, err = hex.DecodeString(cfg.Auth.CSRFSecret)
			if err != nil {
				// Not hex, use as raw bytes
				csrfSecret = []byte(cfg.Auth.CSRFSecret)
			}
		} else {
			csrfSecret, err = auth.GenerateCSRFSecret()
			if err != nil {
				log.Fatalf("Failed to generate CSRF secret: %v", err)
			}
			log.Printf("Generated CSRF secret (set AUTH_CSRF_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers()
		if !hasUsers {
			log.Printf("No users found. POST /api/auth/register or run create-admin to add one.")
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
		authMiddleware = auth.NewMiddleware(nil, nil, cfg.Auth)
	}

	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		LoanStore:      loanRepo,
		BookStore:      bookRepo,
		MemberStore:    memberRepo,
		CategoryStore:  categoryRepo,
		CoverStorage:   coverStorage,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		AuthController: authController,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if overdueScanner != nil {
			overdueScanner.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
