package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"paystack-checkout/internal/config"
	"paystack-checkout/internal/kafka"
	"paystack-checkout/internal/models"
	"paystack-checkout/internal/store"
	"paystack-checkout/internal/telemetry"
)

// auditor mirrors payment events from Kafka into a transaction store.
type auditor struct {
	store   store.TransactionStore
	metrics *telemetry.Metrics
	log     *zap.Logger
	tracer  trace.Tracer
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	if cfg.Broker == "" {
		panic("KAFKA_BROKER must be set for the event consumer")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, tracer, meter, shutdown, err := telemetry.Setup(ctx, "event-consumer", cfg.OTLPEndpoint)
	if err != nil {
		panic("failed to initialize telemetry: " + err.Error())
	}
	defer shutdown(context.Background())

	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		panic("failed to create metrics: " + err.Error())
	}

	if err := run(ctx, cfg, metrics, log, tracer); err != nil {
		log.Error("event consumer error", zap.Error(err))
	}
	log.Info("shutting down event consumer...")
}

func run(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) error {
	transactions, closeStore, err := store.Open(ctx, cfg.StoreConfig, log)
	if err != nil {
		return fmt.Errorf("failed to open transaction store: %w", err)
	}
	defer closeStore()

	if err := kafka.EnsureTopic(ctx, cfg.Broker, cfg.Topic); err != nil {
		log.Warn("failed to ensure payment events topic", zap.String("topic", cfg.Topic), zap.Error(err))
	}

	consumer := kafka.NewConsumer([]string{cfg.Broker}, cfg.Topic, cfg.GroupID)
	defer consumer.Close()

	a := &auditor{store: transactions, metrics: metrics, log: log, tracer: tracer}

	log.Info("event consumer started",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return consumer.Listen(gctx, a.process)
	})
	return g.Wait()
}

func (a *auditor) process(ctx context.Context, ev models.WebhookEvent) error {
	ctx, span := a.tracer.Start(ctx, "ProcessPaymentEvent",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("webhook.event_type", ev.EventType),
			attribute.String("payment.reference", ev.Reference),
		),
	)
	defer span.End()

	a.metrics.EventsConsumed.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", ev.EventType)))

	if ev.EventType != models.EventChargeSuccess {
		a.log.Info("payment event observed",
			zap.String("event_type", ev.EventType),
			zap.String("reference", ev.Reference),
		)
		span.SetStatus(codes.Ok, "")
		return nil
	}

	rec := models.RecordFromEvent(ev, time.Now().UTC())
	if err := a.store.Upsert(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetStatus(codes.Ok, "")
	a.log.Info("payment event recorded",
		zap.String("reference", ev.Reference),
		zap.String("amount", rec.Amount.String()),
		zap.String("customer_email", ev.CustomerEmail),
	)
	return nil
}
