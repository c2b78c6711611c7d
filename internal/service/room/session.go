package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
	"github.com/syncroom/server/pkg/randname"
)

type JoinRoomParams struct {
	Conn      *websocket.Conn
	SessionID string
	RoomID    string
}

type JoinRoomResponse struct {
	Room       domain.RoomState
	JoinedUser domain.UserState
}

// JoinRoom attaches a session to a room, creating the room on first join
// and canceling a pending deletion on a rejoin within the grace period.
// The full snapshot is broadcast to the whole room; chat history goes to
// the joining session only.
func (s *service) JoinRoom(ctx context.Context, params *JoinRoomParams) (JoinRoomResponse, error) {
	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	exists, err := s.roomRepo.RoomExists(ctx, params.RoomID)
	if err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to check if room exists: %w", err)
	}

	if !exists {
		mediaURL, isImage := s.defaultMedia()
		if err := s.roomRepo.CreateRoom(ctx, &room.CreateRoomParams{
			RoomID: params.RoomID,
			Room:   domain.NewRoom(params.RoomID, params.SessionID, mediaURL, isImage, s.nowSec()),
		}); err != nil && !errors.Is(err, room.ErrRoomAlreadyExists) {
			return JoinRoomResponse{}, fmt.Errorf("failed to create room: %w", err)
		}
		s.logger.InfoContext(ctx, "created room", "room_id", params.RoomID)
	} else {
		s.cancelRoomDeletion(params.RoomID)
	}

	if err := s.connRepo.Add(params.Conn, params.SessionID); err != nil {
		return JoinRoomResponse{}, fmt.Errorf("failed to register connection: %w", err)
	}

	var joined domain.UserState
	state, err := s.updateRoomLocked(ctx, params.RoomID, func(r *domain.RoomState) error {
		name := randname.Generate()
		for r.HasUserNamed(name) {
			name = randname.Generate()
		}

		wasEmpty := len(r.Users) == 0
		joined = domain.NewUser(params.SessionID, name)
		r.Users = append(r.Users, joined)

		if wasEmpty || r.FindUser(r.OwnerID) == nil {
			r.OwnerID = joined.UID
		}

		return nil
	})
	if err != nil {
		// the session never materialized; the disconnect path will not run
		if rerr := s.connRepo.RemoveBySessionID(params.SessionID); rerr != nil {
			s.logger.DebugContext(ctx, "failed to remove connection", "session_id", params.SessionID, "error", rerr)
		}
		return JoinRoomResponse{}, err
	}

	// counted only once the user record is persisted, so a failed join
	// cannot skew the presence gauge
	if err := s.roomRepo.IncUsers(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to increment users count", "error", err)
	}

	s.logger.InfoContext(ctx, "session joined", "room_id", params.RoomID, "session_id", params.SessionID, "name", joined.Name)

	if err := s.sendToSession(ctx, params.SessionID, &Output{Type: "chatHistory", Payload: state.ChatLog}); err != nil {
		s.logger.DebugContext(ctx, "failed to send chat history", "session_id", params.SessionID, "error", err)
	}

	s.broadcastUpdate(ctx, &state)

	return JoinRoomResponse{Room: state, JoinedUser: joined}, nil
}

type DisconnectSessionParams struct {
	SessionID string
	RoomID    string
}

// DisconnectSession removes the session's user record, hands ownership to
// the oldest surviving user if the owner left, and either broadcasts the
// reduced state or arms the empty-room grace timer.
func (s *service) DisconnectSession(ctx context.Context, params *DisconnectSessionParams) error {
	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	if err := s.connRepo.RemoveBySessionID(params.SessionID); err != nil {
		s.logger.DebugContext(ctx, "failed to remove connection", "session_id", params.SessionID, "error", err)
	}
	s.chatLimiter.Forget(params.SessionID)

	if err := s.roomRepo.DecUsers(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to decrement users count", "error", err)
	}

	empty := false
	state, err := s.updateRoomLocked(ctx, params.RoomID, func(r *domain.RoomState) error {
		r.RemoveUser(params.SessionID)
		empty = len(r.Users) == 0
		if empty {
			return nil
		}

		if r.OwnerID == params.SessionID {
			if next, ok := domain.NextOwner(r.Users, r.OwnerID, params.SessionID); ok {
				r.OwnerID = next
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			// room already collected, nothing left to update
			return nil
		}

		return err
	}

	s.logger.InfoContext(ctx, "session disconnected", "room_id", params.RoomID, "session_id", params.SessionID)

	if empty {
		s.scheduleRoomDeletion(params.RoomID)
		return nil
	}

	s.broadcastUpdate(ctx, &state)

	return nil
}
