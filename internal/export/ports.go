// Package export mirrors transaction changes to an external spreadsheet.
package export

import (
	"context"

	"fintrack/internal/amqp"
)

// TransactionExporter receives transaction change events and writes them to
// the export target.
type TransactionExporter interface {
	Export(ctx context.Context, msg *amqp.TransactionEventMessage) error
}
