package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware keys)
	FieldUserID   = "user_id"
	FieldUsername = "username"
	FieldEmail    = "email"

	// Chat
	FieldClientID  = "client_id"
	FieldRoomKey   = "room_key"
	FieldTopic     = "topic"
	FieldChannelID = "channel_id"
	FieldMessageID = "message_id"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
