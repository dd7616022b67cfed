package kafka

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

// StaticChangeStream stands in for the consumer-group stream when no brokers
// are configured. Subscriptions never emit events, so a mirror opened against
// it keeps serving its bulk-read snapshot.
type StaticChangeStream struct {
	logger *zap.Logger
}

// NewStaticChangeStream builds the broker-less change stream.
func NewStaticChangeStream(logger *zap.Logger) *StaticChangeStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaticChangeStream{logger: logger}
}

// Subscribe hands out a subscription that stays silent until unsubscribed.
func (s *StaticChangeStream) Subscribe(_ context.Context, channel, table string) (port.Subscription, error) {
	s.logger.Info("static table subscription opened, no live events",
		zap.String("channel", channel),
		zap.String("table", table),
	)
	return &staticSubscription{events: make(chan domain.ChangeEvent)}, nil
}

type staticSubscription struct {
	events chan domain.ChangeEvent
	once   sync.Once
}

func (s *staticSubscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

func (s *staticSubscription) Unsubscribe() error {
	s.once.Do(func() {
		close(s.events)
	})
	return nil
}

var _ port.ChangeStream = (*StaticChangeStream)(nil)
