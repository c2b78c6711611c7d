package room

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
)

// RejectionError marks malformed client input. Per protocol, rejected
// commands are dropped with a diagnostic log and never surfaced to the
// caller.
type RejectionError struct {
	Reason string
}

func (e RejectionError) Error() string {
	return e.Reason
}

func reject(format string, args ...any) error {
	return RejectionError{Reason: fmt.Sprintf(format, args...)}
}

const casMaxAttempts = 3

// lockRoom serializes all work for one room. The returned func releases
// the lock.
func (s *service) lockRoom(roomID string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roomID] = l
	}
	s.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// updateRoomLocked runs a read-modify-write against the store. The caller
// must hold the room lock. The versioned write plus bounded retry guards
// against writers outside this process; within the process the lock
// already serializes access.
func (s *service) updateRoomLocked(ctx context.Context, roomID string, mutate func(*domain.RoomState) error) (domain.RoomState, error) {
	for attempt := 0; ; attempt++ {
		state, version, err := s.roomRepo.GetRoom(ctx, roomID)
		if err != nil {
			if errors.Is(err, room.ErrRoomNotFound) {
				// a session cannot outlive its room; store and session
				// state have diverged
				return domain.RoomState{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
			}

			return domain.RoomState{}, fmt.Errorf("failed to get room: %w", err)
		}

		if err := mutate(&state); err != nil {
			return domain.RoomState{}, err
		}

		err = s.roomRepo.CompareAndSetRoom(ctx, &room.CompareAndSetRoomParams{
			RoomID:  roomID,
			Room:    state,
			Version: version,
		})
		if errors.Is(err, room.ErrVersionConflict) && attempt < casMaxAttempts {
			continue
		}
		if err != nil {
			return domain.RoomState{}, fmt.Errorf("failed to set room: %w", err)
		}

		return state, nil
	}
}

// mutateAndBroadcast is the shape every playback and playlist command
// takes: serialize on the room, read-modify-write, then push the full
// snapshot to every session while still holding the lock so no session
// can observe updates out of order.
func (s *service) mutateAndBroadcast(ctx context.Context, roomID string, mutate func(*domain.RoomState) error) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	state, err := s.updateRoomLocked(ctx, roomID, mutate)
	if err != nil {
		var rejection RejectionError
		if errors.As(err, &rejection) {
			s.logger.InfoContext(ctx, "command rejected", "room_id", roomID, "reason", rejection.Reason)
			return nil
		}

		return err
	}

	s.broadcastUpdate(ctx, &state)

	return nil
}

func (s *service) nowSec() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func isValidURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
