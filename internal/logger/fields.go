package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields propagated through the call chain.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldAutomationID is the automation being processed
	FieldAutomationID = "automation_id"

	// FieldLeadID is the external lead ID from the ads platform
	FieldLeadID = "lead_id"

	// FieldPageID is the ads-platform page ID
	FieldPageID = "page_id"

	// FieldFormID is the ads-platform lead form ID
	FieldFormID = "form_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"
)

// Standard metric fields used for aggregation and alerting.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldStatus is the operation or HTTP status
	FieldStatus = "status"

	// FieldSize is the data size in bytes
	FieldSize = "size"
)
