// Package server wires the FudBi components together and runs them: the HTTP
// API, the websocket feed, the outbox relay with its notification consumer and
// the gRPC health endpoint. Everything stops on SIGINT/SIGTERM.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fudbi/fudbi/internal/logging"
	"github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/identity"
	"github.com/fudbi/fudbi/internal/server/notify"
	"github.com/fudbi/fudbi/internal/server/repositories/repomanager"
	"github.com/fudbi/fudbi/internal/server/rest"
	"github.com/fudbi/fudbi/internal/server/services"

	gs "github.com/fudbi/fudbi/internal/server/grpc"
)

const (
	channelBrokerSize   = 256
	healthProbeInterval = 10 * time.Second
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	broker      notify.Broker
	hub         *notify.Hub
	relay       *notify.Relay
	dispatcher  *notify.Dispatcher
	env         *rest.Env
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close()
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	mailer, err := newMailer(c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}
	pusher, err := newPusher(ctx, c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}
	broker, err := newBroker(ctx, c, logger)
	if err != nil {
		_ = rm.Close()
		return nil, err
	}

	repos := rm.Repositories()
	hub := notify.NewHub(c.CORSOrigin, logger)
	dispatcher := notify.NewDispatcher(repos.Users, repos.PushTokens, mailer, pusher, hub, c.EmailFanoutCap, c.AppURL, logger)
	relay := notify.NewRelay(repos.Outbox, broker, c.OutboxPollInterval, c.OutboxBatchSize, c.OutboxMaxAttempts, logger)

	provider := identity.NewLocalProvider(repos.Identities, c.ConfirmationCodeTTL)
	sessions := services.NewJWTSessionStore(repos.Sessions, c.SecretKey, c.SessionTTL)

	env := &rest.Env{
		Auth:          services.NewAuthService(rm, provider, sessions, mailer, c.ConfirmationCodeTTL, logger),
		Posts:         services.NewPostService(rm, c.PageSize, logger),
		Pickups:       services.NewPickupService(rm, logger),
		Stats:         services.NewStatsService(rm),
		Media:         services.NewMediaService(c),
		Notifications: services.NewNotificationService(rm),
		Sessions:      sessions,
		Feed:          hub,
		Store:         rm,
		Logger:        logger.With("module", "http"),
		SessionTTL:    c.SessionTTL,
		CookieSecure:  c.CookieSecure,
	}

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		broker:      broker,
		hub:         hub,
		relay:       relay,
		dispatcher:  dispatcher,
		env:         env,
	}, nil
}

func newMailer(c *config.Config, logger logging.Logger) (notify.Mailer, error) {
	if c.SMTPHost == "" {
		return notify.NewLogMailer(logger), nil
	}
	m, err := notify.NewSMTPMailer(c.SMTPHost, c.SMTPPort, c.SMTPUser, c.SMTPPassword, c.MailFrom)
	if err != nil {
		return nil, fmt.Errorf("smtp mailer error: %w", err)
	}
	return m, nil
}

func newPusher(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Pusher, error) {
	if c.TelegramToken == "" {
		return notify.NopPusher{}, nil
	}
	p, err := notify.NewTelegramPusher(ctx, c.TelegramToken, logger)
	if err != nil {
		return nil, fmt.Errorf("telegram pusher error: %w", err)
	}
	return p, nil
}

func newBroker(ctx context.Context, c *config.Config, logger logging.Logger) (notify.Broker, error) {
	if c.AMQPURL == "" {
		return notify.NewChannelBroker(channelBrokerSize, logger), nil
	}
	b, err := notify.NewAMQPBroker(ctx, c.AMQPURL, logger)
	if err != nil {
		return nil, fmt.Errorf("amqp broker error: %w", err)
	}
	return b, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCHealthAddr, app.logger, app.repomanager, healthProbeInterval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	rest.SetupRoutes(ctx, router, app.env, app.config)

	srv := &http.Server{
		Addr:         app.config.HTTPAddr,
		Handler:      router,
		ReadTimeout:  app.config.HTTPReadTimeout,
		WriteTimeout: app.config.HTTPWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startConsumer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.broker.Consume(ctx, app.dispatcher.Dispatch); err != nil && ctx.Err() == nil {
		app.logger.Error(ctx, "notification consumer stopped", "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or a component fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	start := func(fn func(ctx context.Context, cancelFunc context.CancelFunc)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(ctx, cancelFunc)
		}()
	}

	start(func(ctx context.Context, _ context.CancelFunc) { app.hub.Run(ctx) })
	start(func(ctx context.Context, _ context.CancelFunc) { app.relay.Run(ctx) })
	start(app.startConsumer)
	start(app.startHTTPServer)
	start(app.startGRPCServer)

	wg.Wait()

	if err := app.broker.Close(); err != nil {
		app.logger.Error(context.Background(), "broker close error", "error", err)
	}
	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
