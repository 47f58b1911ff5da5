package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"duplex-server/pkg/config"
	http_server "duplex-server/pkg/http"
	"duplex-server/pkg/messaging"
	"duplex-server/pkg/metrics"
	"duplex-server/pkg/session"
	"duplex-server/pkg/version"
)

var (
	logger     = logrus.New()
	appConfig  *config.Config
	sessions   *session.Manager
	publisher  *messaging.AMQPPublisher
	httpServer *http_server.Server

	// Context for graceful shutdown
	rootCtx    context.Context
	rootCancel context.CancelFunc
)

func main() {
	// Set up logger with basic configuration (will be updated after config is loaded)
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339Nano,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	logger.SetOutput(os.Stdout)

	rootCtx, rootCancel = context.WithCancel(context.Background())
	defer rootCancel()

	if err := initialize(); err != nil {
		logger.WithError(err).Fatal("Failed to initialize application")
	}

	sessions.Start()
	httpServer.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.WithField("signal", sig.String()).Info("Received shutdown signal, cleaning up...")

	shutdown()
}

// initialize loads configuration and builds every component
func initialize() error {
	var err error
	appConfig, err = config.Load(logger)
	if err != nil {
		return err
	}
	if err := appConfig.ApplyLogging(logger); err != nil {
		return err
	}

	logger.WithField("version", version.Version).Info("Starting duplex server")

	metrics.StartMetrics(logger, appConfig.HTTP.EnableMetrics)

	sessions = session.NewManager(session.ManagerConfig{
		IdleTimeout:     appConfig.Session.IdleTimeout,
		CleanupInterval: appConfig.Session.CleanupInterval,
		MaxSessions:     appConfig.Session.MaxSessions,
		Defaults: session.Config{
			BargeIn:   appConfig.BargeIn,
			Discourse: appConfig.Discourse,
			Duplex:    appConfig.Duplex,
		},
	}, logger)

	httpServer = http_server.NewServer(logger, &http_server.Config{
		Port:           appConfig.HTTP.Port,
		EnableMetrics:  appConfig.HTTP.EnableMetrics,
		ReadTimeout:    appConfig.HTTP.ReadTimeout,
		WriteTimeout:   appConfig.HTTP.WriteTimeout,
		AllowedOrigins: appConfig.HTTP.AllowedOrigins,
		RateLimit:      &appConfig.HTTP.RateLimit,
	}, sessions)

	if appConfig.Messaging.Enabled {
		initMessaging()
	} else {
		logger.Info("AMQP event publishing is disabled by configuration")
	}

	logStartupConfig()
	return nil
}

// initMessaging wires the AMQP publisher into the session manager. A broker
// that is down at startup is retried in the background so the HTTP surface
// comes up regardless.
func initMessaging() {
	mc := appConfig.Messaging
	publisher = messaging.NewAMQPPublisher(messaging.Config{
		URL:              mc.AMQPUrl,
		Exchange:         mc.Exchange,
		ExchangeType:     mc.ExchangeType,
		RoutingKeyPrefix: mc.RoutingKeyPrefix,
		ReconnectDelay:   mc.ReconnectDelay,
		PublishTimeout:   mc.PublishTimeout,
		Breaker:          &mc.Breaker,
	}, logger)

	publisher.Start()
	sessions.SetPublisher(publisher)
	httpServer.SetBroker(publisher)

	go connectPublisher(mc.ReconnectDelay)
}

func connectPublisher(delay time.Duration) {
	for {
		ctx, cancel := context.WithTimeout(rootCtx, 10*time.Second)
		err := publisher.Connect(ctx)
		cancel()
		if err == nil {
			return
		}
		logger.WithError(err).WithField("retry_in", delay.String()).Warn("Failed to connect to AMQP broker")

		select {
		case <-rootCtx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func logStartupConfig() {
	logger.WithFields(logrus.Fields{
		"http_port":         appConfig.HTTP.Port,
		"metrics_enabled":   appConfig.HTTP.EnableMetrics,
		"language":          appConfig.BargeIn.Language,
		"session_idle":      appConfig.Session.IdleTimeout.String(),
		"max_sessions":      appConfig.Session.MaxSessions,
		"rate_limit":        appConfig.HTTP.RateLimit.Enabled,
		"messaging_enabled": appConfig.Messaging.Enabled,
		"amqp_exchange":     appConfig.Messaging.Exchange,
	}).Info("Configuration loaded")
}

// shutdown stops the components in reverse dependency order
func shutdown() {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), appConfig.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	rootCancel()

	// HTTP first so no new sessions or streams arrive
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Error shutting down HTTP server")
		} else {
			logger.Info("HTTP server shut down successfully")
		}
	}

	// Closing sessions emits session_closed, which still reaches the publisher
	if sessions != nil {
		sessions.Shutdown()
		logger.Info("Session manager shut down")
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Error("Error closing AMQP publisher")
		} else {
			logger.Info("AMQP publisher closed")
		}
	}

	logger.Info("Application shut down gracefully")
}
