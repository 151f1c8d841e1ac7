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

	"github.com/mrlokans/ebookshelf/internal/audit"
	"github.com/mrlokans/ebookshelf/internal/auth"
	"github.com/mrlokans/ebookshelf/internal/catalog"
	"github.com/mrlokans/ebookshelf/internal/config"
	"github.com/mrlokans/ebookshelf/internal/database"
	"github.com/mrlokans/ebookshelf/internal/database/books"
	"github.com/mrlokans/ebookshelf/internal/database/profiles"
	"github.com/mrlokans/ebookshelf/internal/database/ratings"
	"github.com/mrlokans/ebookshelf/internal/database/shares"
	"github.com/mrlokans/ebookshelf/internal/gateway"
	http_controllers "github.com/mrlokans/ebookshelf/internal/http"
	"github.com/mrlokans/ebookshelf/internal/scheduler"
	"github.com/mrlokans/ebookshelf/internal/session"
	"github.com/mrlokans/ebookshelf/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		// service connections
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	// Wait for interrupt signal to gracefully shutdown the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Ebookshelf v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories
	booksRepo := books.NewRepository(db.DB)
	ratingsRepo := ratings.NewRepository(db.DB)
	profilesRepo := profiles.NewRepository(db.DB)
	sharesRepo := shares.NewRepository(db.DB)

	// Auth gateway and the session store projected from it
	gw := gateway.New(db.DB, cfg.Auth.BcryptCost)
	sessionStore := session.NewStore(gw, profilesRepo)
	defer sessionStore.Close()

	// Catalog store: mirror the database once at startup, then keep the
	// mirror current via refresh-after-write and the cron scheduler
	catalogStore := catalog.NewStore(booksRepo, ratingsRepo, sharesRepo, cfg.Catalog.DefaultCoverURL)
	if err := catalogStore.Refresh(); err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Catalog loaded with %d books", len(catalogStore.Books()))

	// Create auditor for recording book downloads
	auditor := audit.NewAuditor(cfg.Shares.AuditDir)

	// Get underlying SQL DB for session store
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	// Initialize session manager
	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}

	// Create auth middleware
	authMiddleware := auth.NewMiddleware(sessionManager, profilesRepo)

	// Rate limiter for login attempts
	rateLimiter := auth.NewRateLimiter(auth.RateLimitConfig{
		MaxAttempts:     cfg.Auth.MaxLoginAttempts,
		WindowDuration:  cfg.Auth.RateLimitWindow,
		LockoutDuration: cfg.Auth.LockoutDuration,
	})
	defer rateLimiter.Stop()

	// Generate or use configured CSRF secret
	var csrfSecret []byte
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

	if count, err := profilesRepo.CountProfiles(); err == nil && count == 0 {
		log.Printf("No users found. Register via POST /api/auth/register.")
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
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
			tasks.NewCleanupShareActivitiesQueue(sharesRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		// Enqueue a retention sweep on boot; subsequent sweeps ride on
		// the queue's retry cadence.
		if _, err := taskClient.Add(tasks.CleanupShareActivitiesTask{
			RetentionDays: cfg.Shares.RetentionDays,
		}).Save(); err != nil {
			log.Printf("WARNING: Failed to enqueue share cleanup task: %v", err)
		}
	}

	// Periodic catalog refresh
	var refreshScheduler *scheduler.CatalogRefreshScheduler
	if cfg.Catalog.RefreshEnabled {
		refreshScheduler = scheduler.NewCatalogRefreshScheduler(catalogStore, cfg.Catalog.RefreshSchedule)
		if err := refreshScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start catalog refresh scheduler: %v", err)
		}
	}

	// Build router configuration with all dependencies
	routerCfg := http_controllers.RouterConfig{
		Database:       db,
		SessionStore:   sessionStore,
		CatalogStore:   catalogStore,
		UserDirectory:  profilesRepo,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		RateLimiter:    rateLimiter,
		Auditor:        auditor,
		CSRFSecret:     csrfSecret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		if refreshScheduler != nil {
			refreshScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
