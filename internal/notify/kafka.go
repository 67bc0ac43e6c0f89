package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	domainerrors "notarius/pkg/domain-errors"
)

// KafkaNotifier publishes messages to a Kafka topic, keyed by meeting so
// downstream consumers see one meeting's notifications in order.
type KafkaNotifier struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

// NewKafkaNotifier connects to the brokers and ensures the topic exists.
// Topic creation is idempotent; an already-exists response is not an error.
func NewKafkaNotifier(ctx context.Context, brokers []string, topic string, logger *slog.Logger) (*KafkaNotifier, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("kafka ping: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 3, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, res := range resp {
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			client.Close()
			return nil, fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}

	return &KafkaNotifier{client: client, topic: topic, logger: logger}, nil
}

func (n *KafkaNotifier) Send(ctx context.Context, msg Message) error {
	value, err := json.Marshal(msg)
	if err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeFatal, "marshal notification")
	}
	record := &kgo.Record{
		Topic: n.topic,
		Key:   []byte(msg.MeetingID.String()),
		Value: value,
	}
	if err := n.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeTransient, "produce notification")
	}
	n.logger.DebugContext(ctx, "notification produced",
		"topic", n.topic,
		"kind", msg.Kind,
		"meeting_id", msg.MeetingID,
		"recipient", msg.Recipient)
	return nil
}

func (n *KafkaNotifier) Close() {
	n.client.Close()
}
