package domain

import "errors"

// Sentinel errors for the classification pipeline. Callers wrap these with
// fmt.Errorf("...: %w", err) and branch with errors.Is at the pipeline boundary.
var (
	// ErrDecode indicates the submitted bytes could not be decoded as an image.
	// Local to one image; the rest of a batch continues.
	ErrDecode = errors.New("image decode failed")

	// ErrModelUnavailable indicates the inference runtime failed to initialize
	// or crashed. A later call may retry; the failure must not be cached.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrInvariantViolation indicates a value outside the record contract
	// (confidence out of [0,1], negative file size). This is an upstream bug,
	// never silently clamped.
	ErrInvariantViolation = errors.New("record invariant violation")

	// ErrStoreUnavailable indicates the prediction list store is unreachable.
	ErrStoreUnavailable = errors.New("prediction store unavailable")

	// ErrBlobUnavailable indicates the blob store is unreachable.
	ErrBlobUnavailable = errors.New("blob store unavailable")
)
