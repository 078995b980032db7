// Package worker runs the background consumers that mirror transaction
// changes to the export target.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/export"
	"fintrack/internal/log"
)

// EventSource delivers transaction change events to a handler until the
// context is cancelled. Satisfied by the AMQP client.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(*amqp.TransactionEventMessage) error) error
}

// reconnectDelay is how long the worker waits before re-entering the consume
// loop after it fails.
const reconnectDelay = 5 * time.Second

// ExportWorker consumes transaction events and hands them to the exporter.
// Handler errors propagate back to the broker as nack/requeue, so a flaky
// export target retries rather than losing rows.
type ExportWorker struct {
	source   EventSource
	exporter export.TransactionExporter
	logger   *log.Logger
}

func NewExportWorker(source EventSource, exporter export.TransactionExporter, logger *log.Logger) *ExportWorker {
	return &ExportWorker{
		source:   source,
		exporter: exporter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent exports a single transaction event.
func (w *ExportWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEventMessage) error {
	if err := w.exporter.Export(ctx, msg); err != nil {
		w.logger.ErrorContext(ctx, "Failed to export transaction event",
			log.FieldTransactionID, msg.TransactionID,
			log.FieldOperation, msg.Action,
			log.FieldError, err.Error())
		return err
	}
	return nil
}

// Run consumes events until the context is cancelled, re-entering the
// consume loop after transient failures.
func (w *ExportWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for {
			err := w.source.ConsumeTransactionEvents(ctx, func(msg *amqp.TransactionEventMessage) error {
				return w.HandleEvent(ctx, msg)
			})
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return ctx.Err()
			}
			if err != nil {
				w.logger.ErrorContext(ctx, "Consumer stopped, reconnecting",
					log.FieldError, err.Error())
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectDelay):
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
