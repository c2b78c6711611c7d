package room

import (
	"context"
	"time"

	"github.com/syncroom/server/internal/domain"
)

// Output is the server-to-client message envelope.
type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// broadcastUpdate stamps the server clock onto the snapshot and fans it
// out to every session in the room. Sessions whose connection is gone or
// failing are skipped; the disconnect path cleans them up.
func (s *service) broadcastUpdate(ctx context.Context, state *domain.RoomState) {
	state.ServerTime = time.Now().UnixMilli()
	out := Output{Type: "update", Payload: state}

	for _, user := range state.Users {
		if err := s.sendToSession(ctx, user.UID, &out); err != nil {
			s.logger.DebugContext(ctx, "failed to send update", "session_id", user.UID, "error", err)
		}
	}
}

func (s *service) broadcastChatNew(ctx context.Context, state *domain.RoomState, msg domain.ChatMessage) {
	out := Output{Type: "chatNew", Payload: msg}

	for _, user := range state.Users {
		if err := s.sendToSession(ctx, user.UID, &out); err != nil {
			s.logger.DebugContext(ctx, "failed to send chat message", "session_id", user.UID, "error", err)
		}
	}
}

func (s *service) sendToSession(ctx context.Context, sessionID string, out *Output) error {
	conn, err := s.connRepo.GetConn(sessionID)
	if err != nil {
		return err
	}

	return conn.WriteJSON(out)
}
