package storage

import "context"

// StoredObject is the locator pair a blob store hands back for one upload.
type StoredObject struct {
	// URL is a resolvable locator for the stored bytes.
	URL string
	// Path is the store-assigned name, random suffix included.
	Path string
}

// BlobStore stores raw image bytes under a retrievable locator. The store
// owns collision avoidance: implementations suffix the name hint, callers
// never rely on the hint surviving verbatim.
type BlobStore interface {
	// Store uploads data under a name derived from nameHint.
	Store(ctx context.Context, nameHint string, data []byte) (*StoredObject, error)

	// URL returns the current locator for a previously stored path. URLs
	// are derived state and may be regenerated on every read.
	URL(path string) string

	// Delete removes a stored object.
	Delete(ctx context.Context, path string) error
}
