// Package store persists prediction records as an ordered list with
// append-at-head semantics: ListAll returns the most recently appended record
// first. Position encodes append order only; chronological sorting belongs to
// the createdAt field.
package store

import (
	"context"

	"github.com/hweber/particletrack/internal/domain"
)

// Gateway is the prediction list store capability the pipeline consumes.
type Gateway interface {
	// Append adds one record to the head of the list. The write is atomic:
	// readers never observe a partially written record.
	Append(ctx context.Context, rec *domain.PredictionRecord) error

	// ListAll returns every stored record, most-recently-appended first.
	ListAll(ctx context.Context) ([]domain.PredictionRecord, error)

	// ClearAll removes every record and returns how many were deleted.
	ClearAll(ctx context.Context) (int64, error)
}
