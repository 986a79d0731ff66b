package ports

import (
	"context"

	"whatsapp-broadcast/internal/domain"
)

// SendLog is the append-only audit trail of send attempts. It is the source
// of truth for the daily quota and for duplicate suppression.
type SendLog interface {
	// Append durably persists one record before returning. Rows are never
	// rewritten.
	Append(ctx context.Context, rec domain.SendRecord) error

	// CountSentToday returns how many rows carry outcome SENT with a
	// timestamp on the current calendar day.
	CountSentToday(ctx context.Context) (int, error)

	// HasSentInBatch reports whether recipient already has a SENT row under
	// batchID. Dedup is scoped to the batch: the same recipient may be
	// messaged again under a different batch.
	HasSentInBatch(ctx context.Context, batchID, recipient string) (bool, error)

	// ListAll returns every record in append order.
	ListAll(ctx context.Context) ([]domain.SendRecord, error)
}
