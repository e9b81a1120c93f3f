package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RecordBuilder assembles PredictionRecords from a decision plus storage
// provenance. It owns id generation and the monotonic creation timestamp, so
// records built by one process never go backwards in time even if the wall
// clock does.
type RecordBuilder struct {
	mu     sync.Mutex
	lastMs int64

	now func() time.Time
}

// NewRecordBuilder returns a builder using the system clock.
func NewRecordBuilder() *RecordBuilder {
	return &RecordBuilder{now: time.Now}
}

// Build validates the inputs and produces a new immutable record with a fresh
// unique id. Confidence outside [0,1] or a negative file size is an upstream
// bug and fails with ErrInvariantViolation rather than being clamped.
func (b *RecordBuilder) Build(prov Provenance, decision Decision) (*PredictionRecord, error) {
	if decision.Confidence < 0 || decision.Confidence > 1 {
		return nil, fmt.Errorf("confidence %v outside [0,1]: %w", decision.Confidence, ErrInvariantViolation)
	}
	if prov.FileSize < 0 {
		return nil, fmt.Errorf("negative file size %d: %w", prov.FileSize, ErrInvariantViolation)
	}
	if decision.Class == "" {
		return nil, fmt.Errorf("empty predicted class: %w", ErrInvariantViolation)
	}

	return &PredictionRecord{
		ID:             uuid.New().String(),
		FileName:       prov.FileName,
		FileSize:       prov.FileSize,
		ImageURL:       prov.ImageURL,
		PredictedClass: decision.Class,
		Confidence:     decision.Confidence,
		CreatedAt:      b.nowMillis(),
	}, nil
}

// nowMillis returns a non-decreasing Unix-millisecond timestamp.
func (b *RecordBuilder) nowMillis() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	ms := b.now().UnixMilli()
	if ms < b.lastMs {
		ms = b.lastMs
	}
	b.lastMs = ms
	return ms
}
