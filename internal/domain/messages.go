package domain

// WebSocket message types from client.
const (
	MsgTypeJoinRoom    = "join_room"
	MsgTypeSendMessage = "send_message"
	MsgTypeLeaveRoom   = "leave_room"
	MsgTypePing        = "ping"
)

// WebSocket message types to client.
const (
	MsgTypeStatus         = "status"
	MsgTypeUserJoined     = "user_joined"
	MsgTypeUserLeft       = "user_left"
	MsgTypeChatHistory    = "chat_history"
	MsgTypeReceiveMessage = "receive_message"
	MsgTypeError          = "error"
	MsgTypePong           = "pong"
)

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeNotInRoom          = "NOT_IN_ROOM"
	ErrCodeEmptyMessage       = "EMPTY_MESSAGE"
	ErrCodeHistoryUnavailable = "HISTORY_UNAVAILABLE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// BaseMessage is the base structure for all WebSocket messages.
type BaseMessage struct {
	Type string `json:"type"`
}

// Client -> Server messages

type JoinRoomMessage struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type SendMessageMessage struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type LeaveRoomMessage struct {
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
}

// Server -> Client messages

type StatusMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MembershipMessage carries user_joined and user_left notifications.
type MembershipMessage struct {
	Type     string `json:"type"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type ReceiveMessage struct {
	Type             string `json:"type"`
	MessageID        string `json:"messageId"`
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
	ModerationStatus string `json:"moderation_status"`
	ModerationReason string `json:"moderation_reason"`
}

// HistoryEntry is one replayed message inside chat_history.
type HistoryEntry struct {
	MessageID        string `json:"messageId"`
	UserID           string `json:"userId"`
	Username         string `json:"username"`
	Message          string `json:"message"`
	Timestamp        string `json:"timestamp"`
	ModerationStatus string `json:"moderation_status"`
	ModerationReason string `json:"moderation_reason"`
}

type ChatHistoryMessage struct {
	Type     string         `json:"type"`
	Messages []HistoryEntry `json:"messages"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewErrorMessage(code, message string) *ErrorMessage {
	return &ErrorMessage{
		Type:    MsgTypeError,
		Code:    code,
		Message: message,
	}
}

func NewMembershipMessage(msgType, userID, username string) *MembershipMessage {
	return &MembershipMessage{
		Type:     msgType,
		UserID:   userID,
		Username: username,
	}
}

// NewReceiveMessage renders a completed message for broadcast.
func NewReceiveMessage(m *Message) *ReceiveMessage {
	return &ReceiveMessage{
		Type:             MsgTypeReceiveMessage,
		MessageID:        m.MessageID,
		UserID:           m.UserID,
		Username:         m.Username,
		Message:          m.Text,
		Timestamp:        FormatTimestamp(m.Timestamp),
		ModerationStatus: string(m.ModerationStatus),
		ModerationReason: m.ModerationReason,
	}
}

// NewChatHistoryMessage renders persisted messages, preserving their order.
func NewChatHistoryMessage(messages []Message) *ChatHistoryMessage {
	entries := make([]HistoryEntry, 0, len(messages))
	for _, m := range messages {
		entries = append(entries, HistoryEntry{
			MessageID:        m.MessageID,
			UserID:           m.UserID,
			Username:         m.Username,
			Message:          m.Text,
			Timestamp:        FormatTimestamp(m.Timestamp),
			ModerationStatus: string(m.ModerationStatus),
			ModerationReason: m.ModerationReason,
		})
	}
	return &ChatHistoryMessage{Type: MsgTypeChatHistory, Messages: entries}
}
