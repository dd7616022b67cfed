package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"go.uber.org/zap/zaptest"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

func testStream(t *testing.T, buffer int) *TableChangeStream {
	t.Helper()
	return &TableChangeStream{
		topic:  "club.table_changes",
		buffer: buffer,
		logger: zaptest.NewLogger(t),
		subs:   make(map[string][]*subscription),
	}
}

func TestHandleMessageDispatchesToTableSubscribers(t *testing.T) {
	stream := testStream(t, 4)

	sub, err := stream.Subscribe(context.Background(), "socios_feed", "socios")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	other, err := stream.Subscribe(context.Background(), "pagos_feed", "pagos")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	msg := &sarama.ConsumerMessage{
		Value: []byte(`{"eventType":"INSERT","schema":"public","table":"socios","new":{"id":"s1","nombre":"Ana"}}`),
	}
	if err := stream.HandleMessage(msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	select {
	case event := <-sub.Events():
		if event.Type != domain.ChangeInsert || event.New["nombre"] != "Ana" {
			t.Fatalf("unexpected event %+v", event)
		}
	default:
		t.Fatal("subscriber received nothing")
	}

	select {
	case event := <-other.Events():
		t.Fatalf("event leaked to another table: %+v", event)
	default:
	}
}

func TestHandleMessageRejectsUnknownChangeType(t *testing.T) {
	stream := testStream(t, 4)

	msg := &sarama.ConsumerMessage{
		Value: []byte(`{"eventType":"TRUNCATE","table":"socios"}`),
	}
	if err := stream.HandleMessage(msg); err == nil {
		t.Fatal("expected unknown change type error")
	}
}

func TestHandleMessageRejectsMalformedPayload(t *testing.T) {
	stream := testStream(t, 4)

	msg := &sarama.ConsumerMessage{Value: []byte(`{`)}
	if err := stream.HandleMessage(msg); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDispatchDropsWhenBufferFull(t *testing.T) {
	stream := testStream(t, 1)

	sub, err := stream.Subscribe(context.Background(), "socios_feed", "socios")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	first := domain.ChangeEvent{Type: domain.ChangeInsert, Table: "socios", New: domain.Row{"id": "1"}}
	second := domain.ChangeEvent{Type: domain.ChangeInsert, Table: "socios", New: domain.Row{"id": "2"}}

	stream.dispatch(first)
	stream.dispatch(second)

	got := <-sub.Events()
	if id, _ := domain.RowIdentifier(got.New); id != "1" {
		t.Fatalf("expected first event retained, got %s", id)
	}

	select {
	case event := <-sub.Events():
		t.Fatalf("overflow event was not dropped: %+v", event)
	default:
	}
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	stream := testStream(t, 4)

	sub, err := stream.Subscribe(context.Background(), "socios_feed", "socios")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	// A second call must be a no-op rather than a double close.
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("second unsubscribe: %v", err)
	}

	if _, open := <-sub.Events(); open {
		t.Fatal("events channel still open after unsubscribe")
	}

	// Dispatch after unsubscribe must not panic on the closed channel.
	stream.dispatch(domain.ChangeEvent{Type: domain.ChangeInsert, Table: "socios", New: domain.Row{"id": "3"}})
}
