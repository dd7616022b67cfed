package port

import (
	"context"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

// EventPublisher emits domain events for downstream consumers.
type EventPublisher interface {
	PublishMemberProvisioned(ctx context.Context, event domain.MemberProvisionedEvent) error
}
