package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor
	FieldUserID   = "user_id"
	FieldUsername = "username"

	// Connection and room
	FieldSessionID = "session_id"
	FieldRoomID    = "room_id"
	FieldMessageID = "message_id"

	// Moderation
	FieldModerationStatus = "moderation_status"
	FieldModerationReason = "moderation_reason"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
