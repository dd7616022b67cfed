package port

import (
	"context"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

// RowSource performs the one bulk read that seeds a table mirror. A limit of
// zero means unbounded.
type RowSource interface {
	FetchRows(ctx context.Context, table string, limit int) ([]domain.Row, error)
}

// Subscription is a live feed of change events for one table. Events() is
// closed when the subscription ends; Unsubscribe is idempotent.
type Subscription interface {
	Events() <-chan domain.ChangeEvent
	Unsubscribe() error
}

// ChangeStream hands out per-table subscriptions over the realtime transport.
// Delivery order is whatever the transport provides; subscribers must not
// assume sequence numbers or exactly-once delivery.
type ChangeStream interface {
	Subscribe(ctx context.Context, channel, table string) (Subscription, error)
}
