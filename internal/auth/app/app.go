package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/campusfound/campusfound/internal/auth/http"
	"github.com/campusfound/campusfound/internal/auth/revocation"
	"github.com/campusfound/campusfound/internal/auth/service"
	"github.com/campusfound/campusfound/internal/auth/store"
	"github.com/campusfound/campusfound/internal/auth/store/drivers/sqlite"
	"github.com/campusfound/campusfound/pkg/jwtx"
	"github.com/campusfound/campusfound/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	codec    *jwtx.Codec
	registry revocation.Registry

	userService    *service.UserService
	sessionService *service.SessionService
	sweeper        *service.Sweeper

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	weakSecret, err := cfg.Validate()
	if err != nil {
		return nil, err
	}
	if weakSecret {
		// Never log the secret itself, only its length.
		app.logger.Warn("signing secret shorter than recommended",
			"length", len(cfg.SigningSecret), "recommended", minSecretLength)
	}

	codec, err := jwtx.NewCodec([]byte(cfg.SigningSecret), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initRegistry()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.sweeper.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeper.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRegistry selects the revocation backend: in-process by default, Redis
// when an address is configured so peers see each other's revocations.
func (app *Application) initRegistry() {
	if app.cfg.RedisAddr == "" {
		app.registry = revocation.NewMemory(app.codec, app.cfg.RefreshTTL)
		app.logger.Info("revocation registry: in-memory")
		return
	}

	client := redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
	app.registry = revocation.NewRedis(client, app.codec, app.cfg.RefreshTTL)
	app.logger.Info("revocation registry: redis", "addr", app.cfg.RedisAddr)
}

func (app *Application) initServices() {
	app.userService = &service.UserService{Users: app.db.Users()}

	app.sessionService = &service.SessionService{
		Codec:      app.codec,
		Registry:   app.registry,
		Users:      app.db.Users(),
		Issuer:     app.cfg.Issuer,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.sweeper = service.NewSweeper(app.registry, app.logger, app.cfg.SweepInterval)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.registry, app.logger)

	router.UserService = app.userService
	router.SessionService = app.sessionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
