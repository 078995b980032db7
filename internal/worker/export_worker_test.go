package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

// channelSource feeds events from a channel, mimicking the AMQP consumer.
type channelSource struct {
	events chan *amqp.TransactionEventMessage
}

func (s *channelSource) ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEventMessage) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-s.events:
			if !ok {
				return errors.New("message channel closed")
			}
			if err := handler(msg); err != nil {
				continue
			}
		}
	}
}

func TestExportWorkerHandleEvent(t *testing.T) {
	exporter := export.NewMemoryExporter()
	w := NewExportWorker(nil, exporter, testLogger())

	msg := &amqp.TransactionEventMessage{
		TransactionID: "t1",
		UserID:        "u1",
		Action:        amqp.ActionCreated,
		Category:      "Groceries",
		AmountCents:   -5000,
	}
	if err := w.HandleEvent(context.Background(), msg); err != nil {
		t.Fatalf("handle event: %v", err)
	}

	events := exporter.Events()
	if len(events) != 1 || events[0].TransactionID != "t1" {
		t.Fatalf("unexpected exported events: %+v", events)
	}
}

type failingExporter struct{ err error }

func (e *failingExporter) Export(context.Context, *amqp.TransactionEventMessage) error {
	return e.err
}

func TestExportWorkerHandleEventPropagatesFailure(t *testing.T) {
	wantErr := errors.New("sheet unavailable")
	w := NewExportWorker(nil, &failingExporter{err: wantErr}, testLogger())

	err := w.HandleEvent(context.Background(), &amqp.TransactionEventMessage{TransactionID: "t1"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected exporter error to propagate, got %v", err)
	}
}

func TestExportWorkerRunConsumesUntilCancelled(t *testing.T) {
	exporter := export.NewMemoryExporter()
	source := &channelSource{events: make(chan *amqp.TransactionEventMessage, 2)}
	w := NewExportWorker(source, exporter, testLogger())

	source.events <- &amqp.TransactionEventMessage{TransactionID: "t1", Action: amqp.ActionCreated}
	source.events <- &amqp.TransactionEventMessage{TransactionID: "t2", Action: amqp.ActionDeleted}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for len(exporter.Events()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("timed out, exported %d events", len(exporter.Events()))
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v, want nil on cancellation", err)
		}
	case <-deadline:
		t.Fatal("Run did not stop after cancellation")
	}

	events := exporter.Events()
	if events[0].TransactionID != "t1" || events[1].TransactionID != "t2" {
		t.Fatalf("unexpected event order: %+v", events)
	}
}
