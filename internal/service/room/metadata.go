package room

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/syncroom/server/internal/domain"
)

const roomNameMaxLength = 50

type UpdateUserParams struct {
	Name     string
	Avatar   string
	SenderID string
	RoomID   string
}

// UpdateUser merges display fields into the sender's own user record.
// Omitted fields stay as they are; a session can never touch another
// session's record.
func (s *service) UpdateUser(ctx context.Context, params *UpdateUserParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		user := r.FindUser(params.SenderID)
		if user == nil {
			return reject("update from unknown session %s", params.SenderID)
		}

		if params.Name != "" {
			user.Name = params.Name
		}
		if params.Avatar != "" {
			user.Avatar = params.Avatar
		}
		return nil
	})
}

type SetRoomNameParams struct {
	Name     string
	SenderID string
	RoomID   string
}

func (s *service) SetRoomName(ctx context.Context, params *SetRoomNameParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if r.OwnerID != params.SenderID {
			return reject("session %s is not the owner", params.SenderID)
		}

		name := strings.TrimSpace(params.Name)
		if name == "" || utf8.RuneCountInString(name) > roomNameMaxLength {
			return reject("invalid room name %q", params.Name)
		}

		r.OwnerName = name
		return nil
	})
}

type SetRoomPublicParams struct {
	IsPublic bool
	SenderID string
	RoomID   string
}

func (s *service) SetRoomPublic(ctx context.Context, params *SetRoomPublicParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if r.OwnerID != params.SenderID {
			return reject("session %s is not the owner", params.SenderID)
		}

		r.IsPublic = params.IsPublic
		return nil
	})
}

type FetchParams struct {
	SenderID string
	RoomID   string
}

// Fetch unicasts the current snapshot to the requester only.
func (s *service) Fetch(ctx context.Context, params *FetchParams) error {
	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	state, _, err := s.roomRepo.GetRoom(ctx, params.RoomID)
	if err != nil {
		return fmt.Errorf("failed to get room: %w", err)
	}

	state.ServerTime = time.Now().UnixMilli()

	return s.sendToSession(ctx, params.SenderID, &Output{Type: "update", Payload: state})
}

type PublicRoom struct {
	ID          string `json:"id"`
	OwnerName   string `json:"ownerName"`
	MemberCount int    `json:"memberCount"`
}

// GetPublicRooms enumerates every stored room and returns the listable
// ones.
func (s *service) GetPublicRooms(ctx context.Context) ([]PublicRoom, error) {
	roomIDs, err := s.roomRepo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	publicRooms := []PublicRoom{}
	for _, roomID := range roomIDs {
		state, _, err := s.roomRepo.GetRoom(ctx, roomID)
		if err != nil {
			s.logger.DebugContext(ctx, "failed to get room for listing", "room_id", roomID, "error", err)
			continue
		}

		if !state.IsPublic {
			continue
		}

		ownerName := state.OwnerName
		if ownerName == "" {
			ownerName = "Anonymous"
		}

		publicRooms = append(publicRooms, PublicRoom{
			ID:          state.ID,
			OwnerName:   ownerName,
			MemberCount: len(state.Users),
		})
	}

	return publicRooms, nil
}

func (s *service) GetUsersCount(ctx context.Context) (int, error) {
	return s.roomRepo.GetUsersCount(ctx)
}

// GetSessionsCount reports how many websocket sessions are attached to
// this process right now, as opposed to the store-wide users counter.
func (s *service) GetSessionsCount() int {
	return len(s.connRepo.GetSessionIDs())
}
