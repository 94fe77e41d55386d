package domain

// HistoryPage is the body of the room history endpoint.
type HistoryPage struct {
	RoomID   string         `json:"room"`
	Messages []HistoryEntry `json:"messages"`
}

func NewHistoryPage(roomID string, messages []Message) *HistoryPage {
	return &HistoryPage{
		RoomID:   roomID,
		Messages: NewChatHistoryMessage(messages).Messages,
	}
}
