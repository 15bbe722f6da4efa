package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/forecast-geofilter/internal/config"
	"github.com/couchcryptid/forecast-geofilter/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer used by Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces point forecasts to a Kafka topic, one message per point.
type Publisher struct {
	writer    messageWriter
	logger    *slog.Logger
	batchSize int
}

// NewPublisher creates a Kafka producer for the configured point-forecast topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger, batchSize: 500}
}

// Publish serializes each point of the document and writes them in batches.
// Points sharing a location and valid time share a key, so they land on the
// same partition.
func (p *Publisher) Publish(ctx context.Context, source string, doc domain.PointDocument) (int, error) {
	sent := 0
	for start := 0; start < len(doc.Data); start += p.batchSize {
		end := min(start+p.batchSize, len(doc.Data))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, point := range doc.Data[start:end] {
			msg, err := serializeToMessage(source, doc.Meta, point)
			if err != nil {
				return sent, err
			}
			msgs = append(msgs, msg)
		}
		if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
			return sent, fmt.Errorf("publish %s: %w", source, err)
		}
		sent += len(msgs)
		p.logger.Debug("published batch", "source", source, "messages", len(msgs))
	}
	return sent, nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// pointMessage is the published value: one point with the document's meta.
type pointMessage struct {
	Meta domain.PointMeta `json:"meta"`
	domain.PointForecast
}

// serializeToMessage marshals a point forecast into a Kafka message.
func serializeToMessage(source string, meta domain.PointMeta, point domain.PointForecast) (kafkago.Message, error) {
	data, err := json.Marshal(pointMessage{Meta: meta, PointForecast: point})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize point forecast: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(point.MessageKey()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(source)},
			{Key: "issuance_time", Value: []byte(point.Times.IssuanceTime)},
			{Key: "unit_system", Value: []byte(meta.UnitSystem)},
		},
	}, nil
}
