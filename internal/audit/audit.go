package audit

import (
	"context"

	"github.com/weiawesome/asg-rev/pkg/log"
)

// Audit actions for the chat socket.
const (
	ActionConnect       = "chat.connect"
	ActionConnectDenied = "chat.connect_denied"
	ActionSendMessage   = "chat.send_message"
	ActionSendFile      = "chat.send_file"
	ActionDisconnect    = "chat.disconnect"
)

// Field constants for audit entries.
const (
	FieldAction   = "action"
	FieldTargetID = "target_id"
	FieldDetail   = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action, userID, targetID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action, userID, targetID, detail, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldTargetID, targetID).
		Str(FieldDetail, detail).
		Msg(msg)
}
