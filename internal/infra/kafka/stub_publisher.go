package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments without brokers.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishMemberProvisioned logs club.member.provisioned events.
func (p *StubPublisher) PublishMemberProvisioned(_ context.Context, event domain.MemberProvisionedEvent) error {
	at := event.ProvisionedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", "member.provisioned"),
		zap.String("user_id", event.UserID),
		zap.String("method", event.Method),
		zap.String("role", string(event.Role)),
		zap.Bool("requires_confirmation", event.RequiresConfirmation),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
