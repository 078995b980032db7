package export

import (
	"context"
	"sync"

	"fintrack/internal/amqp"
)

// MemoryExporter records exported events in memory. Used in tests and when
// no spreadsheet is configured.
type MemoryExporter struct {
	mu     sync.Mutex
	events []amqp.TransactionEventMessage
}

func NewMemoryExporter() *MemoryExporter {
	return &MemoryExporter{}
}

func (e *MemoryExporter) Export(_ context.Context, msg *amqp.TransactionEventMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, *msg)
	return nil
}

// Events returns a copy of everything exported so far.
func (e *MemoryExporter) Events() []amqp.TransactionEventMessage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]amqp.TransactionEventMessage, len(e.events))
	copy(out, e.events)
	return out
}
