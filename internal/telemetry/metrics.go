package telemetry

import (
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	TransactionsInitialized metric.Int64Counter
	TransactionsVerified    metric.Int64Counter
	GatewayDuration         metric.Float64Histogram

	WebhooksReceived     metric.Int64Counter
	SignatureRejected    metric.Int64Counter
	TransactionsRecorded metric.Int64Counter

	EventsPublished metric.Int64Counter
	EventsConsumed  metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	initialized, err := meter.Int64Counter("transactions_initialized_total",
		metric.WithDescription("Total checkout transactions initialized with the gateway"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, err
	}

	verified, err := meter.Int64Counter("transactions_verified_total",
		metric.WithDescription("Total transaction verifications requested"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, err
	}

	gatewayDuration, err := meter.Float64Histogram("gateway_request_duration_seconds",
		metric.WithDescription("Duration of requests to the payment gateway"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, err
	}

	webhooks, err := meter.Int64Counter("webhooks_received_total",
		metric.WithDescription("Total verified webhook events received"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	rejected, err := meter.Int64Counter("webhook_signature_rejected_total",
		metric.WithDescription("Total webhook deliveries rejected for a bad signature"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	recorded, err := meter.Int64Counter("transactions_recorded_total",
		metric.WithDescription("Total transaction records written from webhooks"),
		metric.WithUnit("{transaction}"),
	)
	if err != nil {
		return nil, err
	}

	published, err := meter.Int64Counter("payment_events_published_total",
		metric.WithDescription("Total payment events published to Kafka"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	consumed, err := meter.Int64Counter("payment_events_consumed_total",
		metric.WithDescription("Total payment events consumed from Kafka"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		TransactionsInitialized: initialized,
		TransactionsVerified:    verified,
		GatewayDuration:         gatewayDuration,
		WebhooksReceived:        webhooks,
		SignatureRejected:       rejected,
		TransactionsRecorded:    recorded,
		EventsPublished:         published,
		EventsConsumed:          consumed,
	}, nil
}
