package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Standard Tracing Fields (Context level)
// These fields are propagated through the call chain
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldSessionID is the orchestration session ID
	FieldSessionID = "session_id"

	// FieldJobID is the remote job ID
	FieldJobID = "job_id"

	// FieldJobKind is the remote job kind (collection, analysis)
	FieldJobKind = "job_kind"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// ============================================
// Standard Metric Fields (Entry level)
// These fields are used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldProgress is the job progress percentage
	FieldProgress = "progress"

	// FieldStatus is the operation or job status
	FieldStatus = "status"
)
