package domain

type ChatMessage struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Text   string `json:"text"`
	TS     int64  `json:"ts"`
}

// AppendChat appends msg to the room's chat log, evicting the oldest
// entries so that at most limit messages remain.
func (r *RoomState) AppendChat(msg ChatMessage, limit int) {
	r.ChatLog = append(r.ChatLog, msg)
	if len(r.ChatLog) > limit {
		r.ChatLog = r.ChatLog[len(r.ChatLog)-limit:]
	}
}
