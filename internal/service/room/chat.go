package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/syncroom/server/internal/domain"
)

type chatLimiter struct {
	mu       sync.Mutex
	last     map[string]time.Time
	interval time.Duration
}

func newChatLimiter(interval time.Duration) *chatLimiter {
	return &chatLimiter{
		last:     make(map[string]time.Time),
		interval: interval,
	}
}

// Allow reports whether the session may post now, and if so records the
// attempt. Refused posts do not reset the window.
func (l *chatLimiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if last, ok := l.last[sessionID]; ok && now.Sub(last) < l.interval {
		return false
	}

	l.last[sessionID] = now
	return true
}

func (l *chatLimiter) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.last, sessionID)
}

type ChatMessageParams struct {
	Text     string
	SenderID string
	RoomID   string
}

// SendChatMessage validates, rate-limits, appends to the capped chat log
// and broadcasts just the new message, not a full snapshot. Every
// rejection is silent towards the sender.
func (s *service) SendChatMessage(ctx context.Context, params *ChatMessageParams) error {
	text := strings.TrimSpace(params.Text)
	if text == "" {
		s.logger.DebugContext(ctx, "dropped empty chat message", "session_id", params.SenderID)
		return nil
	}
	if utf8.RuneCountInString(text) > s.cfg.ChatMaxLength {
		s.logger.InfoContext(ctx, "dropped oversized chat message", "session_id", params.SenderID, "length", utf8.RuneCountInString(text))
		return nil
	}
	if !s.chatLimiter.Allow(params.SenderID) {
		s.logger.DebugContext(ctx, "chat message rate limited", "session_id", params.SenderID)
		return nil
	}

	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	var msg domain.ChatMessage
	state, err := s.updateRoomLocked(ctx, params.RoomID, func(r *domain.RoomState) error {
		name := "Anonymous"
		if user := r.FindUser(params.SenderID); user != nil {
			name = user.Name
		}

		now := time.Now().UnixMilli()
		msg = domain.ChatMessage{
			ID:     fmt.Sprintf("%d-%s", now, params.SenderID),
			UserID: params.SenderID,
			Name:   name,
			Text:   text,
			TS:     now,
		}
		r.AppendChat(msg, s.cfg.ChatLimit)
		return nil
	})
	if err != nil {
		var rejection RejectionError
		if errors.As(err, &rejection) {
			s.logger.InfoContext(ctx, "chat message rejected", "room_id", params.RoomID, "reason", rejection.Reason)
			return nil
		}

		return err
	}

	s.broadcastChatNew(ctx, &state, msg)

	return nil
}
