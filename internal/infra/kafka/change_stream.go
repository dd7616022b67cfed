package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
	"github.com/feder102/handball-agrupacion-api/internal/infra/config"
)

// changeMessage is the wire shape published on the table changes topic by the
// database capture pipeline.
type changeMessage struct {
	EventType string     `json:"eventType"`
	Schema    string     `json:"schema"`
	Table     string     `json:"table"`
	New       domain.Row `json:"new"`
	Old       domain.Row `json:"old"`
}

// TableChangeStream consumes the table changes topic through a consumer group
// and fans events out to per-table subscriptions. Each subscription owns a
// bounded channel; a subscriber that falls behind loses events rather than
// stalling the claim loop.
type TableChangeStream struct {
	group  sarama.ConsumerGroup
	topic  string
	buffer int
	logger *zap.Logger

	mu   sync.Mutex
	subs map[string][]*subscription
}

// NewTableChangeStream constructs the consumer-group backed change stream.
func NewTableChangeStream(cfg config.KafkaSettings, buffer int, logger *zap.Logger) (*TableChangeStream, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = 64
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_5_0_0
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer group: %w", err)
	}

	return &TableChangeStream{
		group:  group,
		topic:  cfg.TableChangesTopic,
		buffer: buffer,
		logger: logger,
		subs:   make(map[string][]*subscription),
	}, nil
}

// Run consumes the change topic until the context is cancelled. Rebalances
// restart the claim loop; real errors are logged and retried by Consume.
func (s *TableChangeStream) Run(ctx context.Context) error {
	go func() {
		for err := range s.group.Errors() {
			s.logger.Warn("table change consumer error", zap.Error(err))
		}
	}()

	for {
		if err := s.group.Consume(ctx, []string{s.topic}, s); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			s.logger.Error("consume table changes", zap.Error(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close shuts down the consumer group.
func (s *TableChangeStream) Close() error {
	return s.group.Close()
}

// Subscribe registers a live feed for one table. The channel name is kept for
// logging only; routing happens by table.
func (s *TableChangeStream) Subscribe(_ context.Context, channel, table string) (port.Subscription, error) {
	if table == "" {
		return nil, fmt.Errorf("table is required")
	}

	sub := &subscription{
		stream:  s,
		channel: channel,
		table:   table,
		events:  make(chan domain.ChangeEvent, s.buffer),
	}

	s.mu.Lock()
	s.subs[table] = append(s.subs[table], sub)
	s.mu.Unlock()

	s.logger.Info("table subscription opened",
		zap.String("channel", channel),
		zap.String("table", table),
	)

	return sub, nil
}

func (s *TableChangeStream) unsubscribe(sub *subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	remaining := s.subs[sub.table][:0]
	for _, candidate := range s.subs[sub.table] {
		if candidate != sub {
			remaining = append(remaining, candidate)
		}
	}
	if len(remaining) == 0 {
		delete(s.subs, sub.table)
	} else {
		s.subs[sub.table] = remaining
	}

	close(sub.events)
}

// HandleMessage decodes one topic message and dispatches it to subscribers.
func (s *TableChangeStream) HandleMessage(msg *sarama.ConsumerMessage) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	var decoded changeMessage
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		return fmt.Errorf("decode table change: %w", err)
	}

	event := domain.ChangeEvent{
		Type:   domain.ChangeType(decoded.EventType),
		Schema: decoded.Schema,
		Table:  decoded.Table,
		New:    decoded.New,
		Old:    decoded.Old,
	}

	switch event.Type {
	case domain.ChangeInsert, domain.ChangeUpdate, domain.ChangeDelete:
	default:
		return fmt.Errorf("unknown change type %q", decoded.EventType)
	}

	s.dispatch(event)
	return nil
}

func (s *TableChangeStream) dispatch(event domain.ChangeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subs[event.Table] {
		select {
		case sub.events <- event:
		default:
			s.logger.Warn("subscription buffer full, dropping event",
				zap.String("channel", sub.channel),
				zap.String("table", sub.table),
				zap.String("event_type", string(event.Type)),
			)
		}
	}
}

// Setup implements sarama.ConsumerGroupHandler.
func (s *TableChangeStream) Setup(sarama.ConsumerGroupSession) error { return nil }

// Cleanup implements sarama.ConsumerGroupHandler.
func (s *TableChangeStream) Cleanup(sarama.ConsumerGroupSession) error { return nil }

// ConsumeClaim implements sarama.ConsumerGroupHandler.
func (s *TableChangeStream) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := s.HandleMessage(msg); err != nil {
			s.logger.Warn("skipping malformed table change",
				zap.Error(err),
				zap.Int64("offset", msg.Offset),
			)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}

type subscription struct {
	stream  *TableChangeStream
	channel string
	table   string
	events  chan domain.ChangeEvent
	once    sync.Once
}

// Events returns the bounded event feed; closed on unsubscribe.
func (s *subscription) Events() <-chan domain.ChangeEvent {
	return s.events
}

// Unsubscribe detaches from the stream. Safe to call more than once.
func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.stream.unsubscribe(s)
	})
	return nil
}

var _ port.ChangeStream = (*TableChangeStream)(nil)
var _ sarama.ConsumerGroupHandler = (*TableChangeStream)(nil)
