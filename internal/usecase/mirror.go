package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

// TableMirror keeps a local projection of one remote table consistent with
// its change stream: one bulk read to seed, then live events applied in
// delivery order. Each screen owns one mirror; mirrors never share state.
//
// The closed guard is checked before every mutation, so events still in the
// subscription buffer when Close is called can never touch the projection.
type TableMirror struct {
	source  port.RowSource
	stream  port.ChangeStream
	logger  *zap.Logger
	channel string
	table   string
	limit   int

	mu         sync.RWMutex
	projection domain.Projection
	closed     bool
	sub        port.Subscription
}

// NewTableMirror builds a mirror for one channel/table pair.
func NewTableMirror(source port.RowSource, stream port.ChangeStream, channel, table string, logger *zap.Logger) *TableMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableMirror{
		source:  source,
		stream:  stream,
		logger:  logger,
		channel: channel,
		table:   table,
	}
}

// WithFetchLimit caps the seeding bulk read. Zero means unbounded.
func (m *TableMirror) WithFetchLimit(limit int) *TableMirror {
	m.limit = limit
	return m
}

// Open seeds the projection with one bulk read and starts consuming live
// events. A failed bulk read leaves the projection empty and is reported
// once; the live subscription is still attempted. Subscription failures are
// returned and not retried here.
func (m *TableMirror) Open(ctx context.Context) error {
	rows, err := m.source.FetchRows(ctx, m.table, m.limit)
	if err != nil {
		m.logger.Warn("bulk read failed, projection starts empty",
			zap.String("table", m.table),
			zap.Error(err),
		)
	} else {
		m.mu.Lock()
		if !m.closed {
			m.projection.Seed(rows)
		}
		m.mu.Unlock()
	}

	sub, err := m.stream.Subscribe(ctx, m.channel, m.table)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", m.table, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return sub.Unsubscribe()
	}
	m.sub = sub
	m.mu.Unlock()

	go m.consume(sub)

	return nil
}

func (m *TableMirror) consume(sub port.Subscription) {
	for event := range sub.Events() {
		m.apply(event)
	}
}

// apply is the single mutation path for the projection.
func (m *TableMirror) apply(event domain.ChangeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}

	m.projection.Apply(event)
}

// Rows returns the current projection contents, newest insert first.
func (m *TableMirror) Rows() []domain.Row {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projection.Rows()
}

// Len reports the current projection size.
func (m *TableMirror) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projection.Len()
}

// Close releases the subscription and freezes the projection. Safe to call
// multiple times and safe after a partially failed Open.
func (m *TableMirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		return sub.Unsubscribe()
	}
	return nil
}
