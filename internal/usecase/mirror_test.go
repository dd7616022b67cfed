package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
	"github.com/feder102/handball-agrupacion-api/internal/core/port"
)

type stubRowSource struct {
	rows    []domain.Row
	err     error
	calls   int
	table   string
	limit   int
	limited bool
}

func (s *stubRowSource) FetchRows(_ context.Context, table string, limit int) ([]domain.Row, error) {
	s.calls++
	s.table = table
	s.limit = limit
	s.limited = limit > 0
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

type stubSubscription struct {
	events       chan domain.ChangeEvent
	unsubscribes int
}

func newStubSubscription() *stubSubscription {
	return &stubSubscription{events: make(chan domain.ChangeEvent, 16)}
}

func (s *stubSubscription) Events() <-chan domain.ChangeEvent { return s.events }

func (s *stubSubscription) Unsubscribe() error {
	s.unsubscribes++
	close(s.events)
	return nil
}

type stubChangeStream struct {
	sub     *stubSubscription
	err     error
	channel string
	table   string
}

func (s *stubChangeStream) Subscribe(_ context.Context, channel, table string) (port.Subscription, error) {
	s.channel = channel
	s.table = table
	if s.err != nil {
		return nil, s.err
	}
	return s.sub, nil
}

func waitForRows(t *testing.T, mirror *TableMirror, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mirror.Len() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d rows, got %d", want, mirror.Len())
}

func TestTableMirrorSeedsFromBulkRead(t *testing.T) {
	source := &stubRowSource{rows: []domain.Row{{"id": "a"}, {"id": "b"}}}
	stream := &stubChangeStream{sub: newStubSubscription()}

	mirror := NewTableMirror(source, stream, "socios_feed", "socios", nil)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mirror.Close()

	if source.calls != 1 {
		t.Fatalf("expected one bulk read, got %d", source.calls)
	}
	if stream.channel != "socios_feed" || stream.table != "socios" {
		t.Fatalf("unexpected subscription target %s/%s", stream.channel, stream.table)
	}
	if mirror.Len() != 2 {
		t.Fatalf("expected 2 seeded rows, got %d", mirror.Len())
	}
}

func TestTableMirrorBulkReadFailureStillSubscribes(t *testing.T) {
	source := &stubRowSource{err: errors.New("connection refused")}
	sub := newStubSubscription()
	stream := &stubChangeStream{sub: sub}

	mirror := NewTableMirror(source, stream, "pagos_feed", "pagos", nil)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mirror.Close()

	if mirror.Len() != 0 {
		t.Fatalf("expected empty projection, got %d rows", mirror.Len())
	}

	sub.events <- domain.ChangeEvent{
		Type:  domain.ChangeInsert,
		Table: "pagos",
		New:   domain.Row{"id": "p1"},
	}
	waitForRows(t, mirror, 1)
}

func TestTableMirrorSubscribeFailure(t *testing.T) {
	source := &stubRowSource{rows: []domain.Row{{"id": "a"}}}
	stream := &stubChangeStream{err: errors.New("broker unavailable")}

	mirror := NewTableMirror(source, stream, "socios_feed", "socios", nil)
	if err := mirror.Open(context.Background()); err == nil {
		t.Fatal("expected subscription error")
	}

	// A partially opened mirror still closes cleanly.
	if err := mirror.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestTableMirrorAppliesLiveEvents(t *testing.T) {
	source := &stubRowSource{rows: []domain.Row{{"id": float64(1), "nombre": "Ana"}}}
	sub := newStubSubscription()
	stream := &stubChangeStream{sub: sub}

	mirror := NewTableMirror(source, stream, "socios_feed", "socios", nil)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mirror.Close()

	sub.events <- domain.ChangeEvent{
		Type:  domain.ChangeInsert,
		Table: "socios",
		New:   domain.Row{"id": float64(2), "nombre": "Luis"},
	}
	waitForRows(t, mirror, 2)

	rows := mirror.Rows()
	if rows[0]["nombre"] != "Luis" {
		t.Fatalf("expected newest row first, got %v", rows[0])
	}

	sub.events <- domain.ChangeEvent{
		Type:  domain.ChangeUpdate,
		Table: "socios",
		New:   domain.Row{"id": float64(1), "nombre": "Ana María"},
	}
	sub.events <- domain.ChangeEvent{
		Type:  domain.ChangeDelete,
		Table: "socios",
		Old:   domain.Row{"id": float64(2)},
	}
	waitForRows(t, mirror, 1)

	rows = mirror.Rows()
	if rows[0]["nombre"] != "Ana María" {
		t.Fatalf("expected updated row to survive, got %v", rows[0])
	}
}

func TestTableMirrorCloseFreezesProjection(t *testing.T) {
	source := &stubRowSource{rows: []domain.Row{{"id": "a"}}}
	sub := newStubSubscription()
	stream := &stubChangeStream{sub: sub}

	mirror := NewTableMirror(source, stream, "socios_feed", "socios", nil)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}

	if err := mirror.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if sub.unsubscribes != 1 {
		t.Fatalf("expected one unsubscribe, got %d", sub.unsubscribes)
	}

	// An event that was already buffered when Close ran must not land.
	mirror.apply(domain.ChangeEvent{
		Type:  domain.ChangeInsert,
		Table: "socios",
		New:   domain.Row{"id": "late"},
	})
	if mirror.Len() != 1 {
		t.Fatalf("projection mutated after close: %d rows", mirror.Len())
	}

	// Close is idempotent.
	if err := mirror.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if sub.unsubscribes != 1 {
		t.Fatalf("unsubscribe ran again on second close")
	}
}

func TestTableMirrorFetchLimit(t *testing.T) {
	source := &stubRowSource{}
	stream := &stubChangeStream{sub: newStubSubscription()}

	mirror := NewTableMirror(source, stream, "cuotas_feed", "cuotas_socios", nil).WithFetchLimit(50)
	if err := mirror.Open(context.Background()); err != nil {
		t.Fatalf("open: %v", err)
	}
	defer mirror.Close()

	if !source.limited || source.limit != 50 {
		t.Fatalf("expected bulk read limited to 50, got %d", source.limit)
	}
}
