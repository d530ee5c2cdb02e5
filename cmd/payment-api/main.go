package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"paystack-checkout/internal/config"
	"paystack-checkout/internal/gateway"
	"paystack-checkout/internal/kafka"
	"paystack-checkout/internal/payment"
	"paystack-checkout/internal/store"
	"paystack-checkout/internal/telemetry"
	"paystack-checkout/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	if err := run(ctx, cfg, metrics, log, tracer); err != nil {
		log.Error("payment-api error", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) error {
	if cfg.SecretKey == "" {
		log.Warn("PAYSTACK_SECRET_KEY is not set; gateway calls will fail and no webhook will verify")
	}

	transactions, closeStore, err := store.Open(ctx, cfg.StoreConfig, log)
	if err != nil {
		return fmt.Errorf("failed to open transaction store: %w", err)
	}
	defer closeStore()

	var publisher webhook.Publisher
	if cfg.Broker != "" {
		if err := kafka.EnsureTopic(ctx, cfg.Broker, cfg.Topic); err != nil {
			log.Warn("failed to ensure payment events topic", zap.String("topic", cfg.Topic), zap.Error(err))
		}
		producer := kafka.NewProducer([]string{cfg.Broker}, cfg.Topic)
		defer producer.Close()
		publisher = producer
		log.Info("forwarding webhook events", zap.String("broker", cfg.Broker), zap.String("topic", cfg.Topic))
	}

	gw := gateway.NewClient(gateway.Config{
		SecretKey: cfg.SecretKey,
		BaseURL:   cfg.BaseURL,
		Timeout:   cfg.Timeout,
	}, metrics, tracer)

	intake := webhook.NewIntake(transactions, publisher, metrics, log, tracer)
	uc := payment.NewUseCase(gw, intake, transactions, payment.Options{
		WebhookSecret:      cfg.SecretKey,
		DefaultCallbackURL: cfg.DefaultCallbackURL(),
	}, metrics, log, tracer)
	ctrl := payment.NewController(uc, log, tracer)

	app := payment.NewApp(payment.ServerConfig{
		AllowedOrigin: cfg.AllowedOrigin,
		RoutePrefix:   cfg.RoutePrefix,
	}, ctrl, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("payment-api listening",
			zap.String("addr", cfg.Addr()),
			zap.String("prefix", cfg.RoutePrefix),
			zap.String("frontend_url", cfg.FrontendURL),
		)
		return app.Listen(cfg.Addr())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down payment-api...")
		return app.Shutdown()
	})

	return g.Wait()
}
