package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// EventPartitions bounds consumer parallelism. Events are keyed by
	// reference, so every delivery of one transaction lands on one partition.
	EventPartitions = 3
	// EventRetention keeps forwarded webhook events long enough to rebuild a
	// store by replaying the topic from the first offset.
	EventRetention = 7 * 24 * time.Hour
)

// eventTopicConfig describes the payment events topic.
func eventTopicConfig(topic string) kafka.TopicConfig {
	return kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     EventPartitions,
		ReplicationFactor: 1,
		ConfigEntries: []kafka.ConfigEntry{
			{ConfigName: "retention.ms", ConfigValue: strconv.FormatInt(EventRetention.Milliseconds(), 10)},
			{ConfigName: "cleanup.policy", ConfigValue: "delete"},
		},
	}
}

// EnsureTopic creates the payment events topic through the cluster
// controller. A topic that already exists is left as is.
func EnsureTopic(ctx context.Context, broker, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", broker)
	if err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get controller: %w", err)
	}

	controllerConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to connect to controller: %w", err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(eventTopicConfig(topic))
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("failed to create payment events topic %s: %w", topic, err)
	}

	return nil
}
