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

	httpapi "github.com/aussiebroadwan/iothub/internal/relay/http"
	"github.com/aussiebroadwan/iothub/internal/relay/mqtt"
	"github.com/aussiebroadwan/iothub/internal/relay/secrets"
	"github.com/aussiebroadwan/iothub/internal/relay/service"
	"github.com/aussiebroadwan/iothub/pkg/slogx"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cognitoidentityprovider"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the relay service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	secretSource secrets.Source
	publisher    mqtt.Publisher

	// Services
	relayService *service.RelayService
	resetService *service.ResetService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "iothub-relay",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Region and credentials come from the environment/instance profile.
	sess, err := session.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS session: %w", err)
	}

	app.secretSource = secrets.NewParameterStore(sess)
	app.publisher = &mqtt.PahoPublisher{
		Logger:     app.logger,
		AckTimeout: cfg.PublishTimeout,
	}

	app.initServices(sess)
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.logger.Info("relay service starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down relay service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.logger.Info("relay service stopped")
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices(sess *session.Session) {
	app.relayService = &service.RelayService{
		Secrets:   app.secretSource,
		Publisher: app.publisher,
		Names: service.SecretNames{
			BrokerHost: app.cfg.BrokerParam,
			Username:   app.cfg.UsernameParam,
			Password:   app.cfg.PasswordParam,
		},
		Logger: app.logger,
	}

	app.resetService = &service.ResetService{
		Client:     cognitoidentityprovider.New(sess),
		UserPoolID: app.cfg.UserPoolID,
		Logger:     app.logger,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.secretSource,
		app.cfg.BrokerParam,
		app.logger,
	)

	router.RelayService = app.relayService
	router.ResetService = app.resetService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
