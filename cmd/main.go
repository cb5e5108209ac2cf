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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ukydev/fleet-ledger/internal/config"
	"github.com/ukydev/fleet-ledger/internal/db"
	"github.com/ukydev/fleet-ledger/internal/events"
	"github.com/ukydev/fleet-ledger/internal/fleet"
	"github.com/ukydev/fleet-ledger/internal/handlers"
	"github.com/ukydev/fleet-ledger/internal/middleware"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags applies command line overrides on top of cfg.
func parseFlags(cfg config.Config, args []string) (config.Config, error) {
	flagSet := pflag.NewFlagSet("fleet-ledger", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	flagSet.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the JSON data files")
	flagSet.StringVar(&cfg.StoreBackend, "store", cfg.StoreBackend, "storage backend: file or mongo")
	flagSet.StringVar(&cfg.MQTTBroker, "mqtt-broker", cfg.MQTTBroker, "MQTT broker URL for fleet events (disabled when empty)")
	flagSet.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL for fleet events (disabled when empty)")
	flagSet.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flagSet.IntVar(&cfg.RateLimitPerMinute, "rate-limit", cfg.RateLimitPerMinute, "requests per minute per client (0 disables)")
	if err := flagSet.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// app holds everything that needs closing on shutdown.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{}

	var store db.Store
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.closers = append(a.closers, func() { client.Disconnect(context.Background()) })
		store = db.NewMongoStore(client.Database(cfg.MongoDB), logger)
		logger.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")
	default:
		store = db.NewFileStore(cfg.DataDir, logger)
		logger.WithField("data_dir", cfg.DataDir).Info("Using file store")
	}

	var publishers []events.Publisher
	if cfg.MQTTBroker != "" {
		mqttPublisher, err := events.NewMQTTPublisher(events.MQTTOptions{
			Broker:      cfg.MQTTBroker,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
		}
		a.closers = append(a.closers, mqttPublisher.Close)
		publishers = append(publishers, mqttPublisher)
		logger.WithField("broker", cfg.MQTTBroker).Info("Publishing fleet events over MQTT")
	}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(events.NATSOptions{
			URL:           cfg.NATSURL,
			Name:          cfg.MQTTClientID,
			SubjectPrefix: cfg.NATSSubjectPrefix,
		})
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.closers = append(a.closers, natsPublisher.Close)
		publishers = append(publishers, natsPublisher)
		logger.WithField("url", cfg.NATSURL).Info("Publishing fleet events over NATS")
	}

	service := fleet.NewService(store, events.Multi(publishers...), logger)
	mux := http.NewServeMux()
	handlers.NewFleetHandler(service, logger).Routes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	a.handler = middleware.Chain(mux,
		middleware.RequestLogger(logger),
		middleware.Metrics,
		middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitPerMinute, time.Minute),
	)
	return a, nil
}

func run(args []string) error {
	cfg, err := parseFlags(config.Load(), args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
