package domain

// PredictionRecord is one persisted classification result. Records are
// immutable once built: the store only appends them and bulk-deletes them.
//
// JSON field names are part of the wire contract shared with the frontend and
// the CSV exporter; createdAt is Unix milliseconds.
type PredictionRecord struct {
	ID             string  `json:"id"`
	FileName       string  `json:"fileName"`
	FileSize       int64   `json:"fileSize"`
	ImageURL       string  `json:"imageUrl"`
	PredictedClass string  `json:"predictedClass"`
	Confidence     float64 `json:"confidence"`
	CreatedAt      int64   `json:"createdAt"`
}

// Provenance describes where the uploaded image ended up in blob storage.
type Provenance struct {
	// FileName is the storage-assigned name, suffix included. Not the
	// original client filename.
	FileName string
	// FileSize is the byte length of the original upload.
	FileSize int64
	// ImageURL is the locator handed out by the blob store. Derived state:
	// listings may refresh it.
	ImageURL string
}
