package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, userID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    userID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishMemberProvisioned publishes club.member.provisioned events.
func (p *EventPublisher) PublishMemberProvisioned(ctx context.Context, event domain.MemberProvisionedEvent) error {
	payload := struct {
		UserID               string         `json:"user_id"`
		Email                string         `json:"email"`
		Document             string         `json:"document"`
		Role                 domain.Role    `json:"role"`
		Method               string         `json:"method"`
		RequiresConfirmation bool           `json:"requires_confirmation"`
		ProvisionedAt        time.Time      `json:"provisioned_at"`
		Metadata             map[string]any `json:"metadata,omitempty"`
	}{
		UserID:               event.UserID,
		Email:                event.Email,
		Document:             event.Document,
		Role:                 event.Role,
		Method:               event.Method,
		RequiresConfirmation: event.RequiresConfirmation,
		ProvisionedAt:        event.ProvisionedAt.UTC(),
		Metadata:             event.Metadata,
	}

	return p.publish(ctx, event.EventID, "member.provisioned", event.UserID, event.ProvisionedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
