package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldBatchID identifies one classification batch
	FieldBatchID = "batch_id"

	// FieldImage is the client-supplied image name
	FieldImage = "image"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldStage is the pipeline stage an image reached
	FieldStage = "stage"
)

// Standard metric fields used for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"
)
