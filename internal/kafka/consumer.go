package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"

	"paystack-checkout/internal/models"
)

// EventHandler processes one payment event. Returning an error stops Listen
// before the offset is committed, so the event is redelivered to the group
// when the consumer restarts.
type EventHandler func(ctx context.Context, ev models.WebhookEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  messageReader
	groupID string
	topic   string
	tracer  trace.Tracer
}

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})

	return newConsumerWithReader(reader, topic, groupID)
}

func newConsumerWithReader(r messageReader, topic, groupID string) *Consumer {
	return &Consumer{
		reader:  r,
		groupID: groupID,
		topic:   topic,
		tracer:  otel.Tracer("kafka/consumer"),
	}
}

// Listen blocks until ctx is cancelled, the reader fails or the handler
// returns an error. Messages that are not valid payment events are committed
// and skipped.
func (c *Consumer) Listen(ctx context.Context, handler EventHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		carrier := &kafkaHeaderCarrier{headers: &msg.Headers}
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, carrier)

		msgCtx, span := c.tracer.Start(msgCtx, fmt.Sprintf("receive %s", c.topic),
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				semconv.MessagingSystemKafka,
				semconv.MessagingDestinationName(c.topic),
				attribute.String("messaging.kafka.message.key", string(msg.Key)),
				attribute.Int("messaging.kafka.partition", msg.Partition),
				attribute.Int64("messaging.kafka.offset", msg.Offset),
				attribute.String("messaging.kafka.consumer.group", c.groupID),
			),
		)

		var ev models.WebhookEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "undecodable payment event")
			span.End()
		} else if err := handler(msgCtx, ev); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return fmt.Errorf("failed to handle message at offset %d: %w", msg.Offset, err)
		} else {
			span.SetStatus(codes.Ok, "")
			span.End()
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit offset: %w", err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
