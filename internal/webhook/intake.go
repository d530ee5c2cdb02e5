package webhook

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"paystack-checkout/internal/models"
	"paystack-checkout/internal/telemetry"
)

// Store is the subset of the transaction store intake writes to.
type Store interface {
	Upsert(ctx context.Context, rec models.TransactionRecord) error
}

// Publisher forwards verified events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

type Intake struct {
	store     Store
	publisher Publisher
	metrics   *telemetry.Metrics
	log       *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewIntake builds an Intake. publisher may be nil.
func NewIntake(store Store, publisher Publisher, metrics *telemetry.Metrics, log *zap.Logger, tracer trace.Tracer) *Intake {
	return &Intake{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		log:       log,
		tracer:    tracer,
		now:       time.Now,
	}
}

// Handle applies a verified event. charge.success upserts a record keyed by
// reference, charge.failed is only logged, anything else is ignored.
func (in *Intake) Handle(ctx context.Context, ev models.WebhookEvent) error {
	ctx, span := in.tracer.Start(ctx, "HandleWebhookEvent",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("webhook.event_type", ev.EventType),
			attribute.String("payment.reference", ev.Reference),
		),
	)
	defer span.End()

	in.metrics.WebhooksReceived.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", ev.EventType)))

	switch ev.EventType {
	case models.EventChargeSuccess:
		rec := models.RecordFromEvent(ev, in.now().UTC())
		if err := in.store.Upsert(ctx, rec); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("failed to record transaction %s: %w", ev.Reference, err)
		}
		in.metrics.TransactionsRecorded.Add(ctx, 1)
		in.log.Info("payment successful",
			zap.String("reference", ev.Reference),
			zap.String("amount", rec.Amount.String()),
			zap.String("customer_email", ev.CustomerEmail),
			zap.String("status", ev.Status),
		)

	case models.EventChargeFailed:
		in.log.Warn("payment failed", zap.String("reference", ev.Reference))

	default:
		in.log.Info("unhandled webhook event", zap.String("event_type", ev.EventType))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	in.forward(ctx, ev)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (in *Intake) forward(ctx context.Context, ev models.WebhookEvent) {
	if in.publisher == nil {
		return
	}
	if err := in.publisher.Publish(ctx, ev.Reference, ev); err != nil {
		in.log.Error("failed to forward webhook event",
			zap.String("reference", ev.Reference),
			zap.Error(err),
		)
		return
	}
	in.metrics.EventsPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", ev.EventType)))
}
