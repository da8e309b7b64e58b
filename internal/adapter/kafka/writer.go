package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/store-tier-service/internal/config"
	"github.com/couchcryptid/store-tier-service/internal/domain"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes classified store snapshots to a Kafka topic, one message
// per store keyed by store id. It implements pipeline.SnapshotPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and writes every store in a single WriteMessages call.
// All messages of one call share a snapshot_id header.
func (w *Writer) Publish(ctx context.Context, stores []domain.ClassifiedStore) error {
	if len(stores) == 0 {
		return nil
	}
	snapshotID := uuid.NewString()
	msgs := make([]kafkago.Message, len(stores))
	for i := range stores {
		msg, err := serializeToMessage(stores[i], snapshotID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d store messages: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot published", "topic", w.writer.Topic, "snapshot_id", snapshotID, "stores", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ClassifiedStore into a Kafka message.
func serializeToMessage(store domain.ClassifiedStore, snapshotID string) (kafkago.Message, error) {
	data, err := json.Marshal(store)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize store %d: %w", store.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(store.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tier", Value: []byte(store.Tier)},
			{Key: "classified_at", Value: []byte(store.ClassifiedAt.Format(time.RFC3339))},
			{Key: "snapshot_id", Value: []byte(snapshotID)},
		},
	}, nil
}
