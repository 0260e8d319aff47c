package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "passkeeper/docs"
	"passkeeper/internal/config"
	"passkeeper/internal/cryptox"
	"passkeeper/internal/handlers"
	"passkeeper/internal/logging"
	"passkeeper/internal/middleware"
	"passkeeper/internal/repositories"
	"passkeeper/internal/routes"
	"passkeeper/internal/services"
	"passkeeper/internal/utils"
)

// Services is the service graph behind the HTTP layer.
type Services struct {
	Accounts    services.AccountService
	Credentials services.CredentialService
	Images      services.ImageService
}

func NewServices(
	cfg *config.Config,
	db *sql.DB,
	repos repositories.Manager,
	notifier services.Notifier,
	gen services.ImageGenerator,
	log logging.Logger,
) (*Services, error) {
	sealer, err := cryptox.NewSealer(cfg.Vault.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("vault key: %w", err)
	}
	auth := services.NewAuthService(cfg.JWT)
	lockouts := services.NewLockoutService(db, repos, cfg.Auth, log)

	return &Services{
		Accounts:    services.NewAccountService(db, repos, auth, lockouts, notifier, cfg, log),
		Credentials: services.NewCredentialService(db, repos, sealer, cfg.Auth, log),
		Images:      services.NewImageService(gen, log),
	}, nil
}

func NewRouter(svc *Services, log logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		handlers.NewAuthHandler(svc.Accounts, log),
		handlers.NewUserHandler(svc.Accounts, log),
		handlers.NewPasswordHandler(svc.Credentials, log),
		handlers.NewImageHandler(svc.Images, log),
		svc.Accounts,
		log,
	)
	return router
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func Run() error {
	cfg := config.LoadConfig()
	log := logging.New(os.Stdout, cfg.Server.LogLevel)
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn(ctx, "close database", "error", err)
		}
	}()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	repos := repositories.NewPostgresManager()
	if cfg.Database.RunMigrations {
		if err := repos.RunMigrations(ctx, db); err != nil {
			return err
		}
		log.Info(ctx, "migrations applied")
	}

	// === Services ===
	notifier := services.NewEmailService(cfg.Email, log)
	images := utils.NewImageClient(cfg.Image.APIKey, cfg.Image.BaseURL, cfg.Image.Model, cfg.Image.Size, cfg.Image.Timeout)
	svc, err := NewServices(cfg, db, repos, notifier, images, log)
	if err != nil {
		return err
	}

	// === Run ===
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           NewRouter(svc, log),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "server started", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
