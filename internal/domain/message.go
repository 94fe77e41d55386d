package domain

import (
	"errors"
	"time"
)

// ModerationStatus is the advisory label attached to every message.
type ModerationStatus string

const (
	ModerationSafe   ModerationStatus = "safe"
	ModerationUnsafe ModerationStatus = "unsafe"
	ModerationError  ModerationStatus = "error"
)

// ReasonNotApplicable is the reason recorded for safe messages.
const ReasonNotApplicable = "N/A"

// Validation errors. These are reported to the sender only.
var (
	ErrNotInRoom    = errors.New("not in a room")
	ErrEmptyMessage = errors.New("message is empty")
)

// Verdict is the moderation outcome for one message.
type Verdict struct {
	Status ModerationStatus
	Reason string
}

// Message is a chat message as persisted and broadcast. It is never
// mutated after the pipeline stamps and labels it.
type Message struct {
	MessageID        string           `json:"message_id"`
	RoomID           string           `json:"room"`
	UserID           string           `json:"userId"`
	Username         string           `json:"username"`
	Text             string           `json:"message"`
	Timestamp        time.Time        `json:"timestamp"`
	ModerationStatus ModerationStatus `json:"moderation_status"`
	ModerationReason string           `json:"moderation_reason"`
}

// WithVerdict returns a copy of m carrying the verdict.
func (m Message) WithVerdict(v Verdict) Message {
	if v.Status == "" {
		v.Status = ModerationError
	}
	m.ModerationStatus = v.Status
	m.ModerationReason = v.Reason
	return m
}

// FormatTimestamp renders timestamps on the wire.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
