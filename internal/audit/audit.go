package audit

import (
	"context"

	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

// Audit actions for the chat relay.
const (
	ActionConnect          = "chat.connect"
	ActionJoinRoom         = "chat.join_room"
	ActionLeaveRoom        = "chat.leave_room"
	ActionSendMessage      = "chat.send_message"
	ActionDisconnect       = "chat.disconnect"
	ActionIdentityMismatch = "chat.identity_mismatch"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}

// LogRoom is Log for actions scoped to a room.
func LogRoom(ctx context.Context, action, userID, roomID, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUserID, userID).
		Str(log.FieldRoomID, roomID).
		Msg(msg)
}
