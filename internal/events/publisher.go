// Package events publishes esignature status changes to downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/theunits/units/internal/core/signature"
)

const (
	EventStatusChanged = "lease.esignature.status_changed"
	schemaVersion      = "1.0"
)

// Envelope is the wire format of every published event.
type Envelope struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	OccurredAt    string                 `json:"occurred_at"`
	SchemaVersion string                 `json:"schema_version"`
	PartitionKey  string                 `json:"partition_key"`
	Data          signature.StatusChange `json:"data"`
}

func newEnvelope(change signature.StatusChange, now time.Time) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventStatusChanged,
		OccurredAt:    now.UTC().Format(time.RFC3339),
		SchemaVersion: schemaVersion,
		PartitionKey:  strconv.FormatInt(change.LeaseID, 10),
		Data:          change,
	}
}

// messageWriter is the subset of *kafka.Writer used for publishing.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes status changes keyed by lease id so that events for
// one lease stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	nowFn  func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		topic = EventStatusChanged
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
		topic: topic,
		nowFn: time.Now,
	}, nil
}

func (p *KafkaPublisher) PublishStatusChange(ctx context.Context, change signature.StatusChange) error {
	now := p.nowFn()
	env := newEnvelope(change, now)
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(env.PartitionKey),
		Value: payload,
		Time:  now.UTC(),
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// LoggingPublisher records status changes in the log when no broker is
// configured.
type LoggingPublisher struct {
	logger *slog.Logger
}

func NewLoggingPublisher(logger *slog.Logger) *LoggingPublisher {
	return &LoggingPublisher{logger: logger}
}

func (p *LoggingPublisher) PublishStatusChange(ctx context.Context, change signature.StatusChange) error {
	p.logger.InfoContext(ctx, "event published",
		"event_type", EventStatusChanged,
		"esignature_id", change.EsignatureID,
		"lease_id", change.LeaseID,
		"from", string(change.From),
		"to", string(change.To),
		"trigger", string(change.Trigger),
	)
	return nil
}

func (p *LoggingPublisher) Close() error {
	return nil
}
