package room

import (
	"context"
	"errors"
	"time"

	"github.com/syncroom/server/internal/repository/room"
)

type deletionTimer struct {
	timer      *time.Timer
	generation uint64
}

// scheduleRoomDeletion arms the empty-room grace timer. Each scheduling
// call gets a fresh generation token; a timer that fires with a stale
// token does nothing, which closes the race between a firing timer and a
// rejoin that rescheduled or canceled it.
func (s *service) scheduleRoomDeletion(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if entry, ok := s.timers[roomID]; ok {
		entry.timer.Stop()
	}

	s.generation++
	generation := s.generation
	s.timers[roomID] = &deletionTimer{
		timer: time.AfterFunc(s.cfg.GracePeriod, func() {
			s.fireRoomDeletion(roomID, generation)
		}),
		generation: generation,
	}
}

func (s *service) cancelRoomDeletion(roomID string) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if entry, ok := s.timers[roomID]; ok {
		entry.timer.Stop()
		delete(s.timers, roomID)
	}
}

// fireRoomDeletion re-validates everything at fire time: the token must
// still be the registered one and the room must still exist with zero
// users. Runs under the room lock like any other room operation.
func (s *service) fireRoomDeletion(roomID string, generation uint64) {
	ctx := context.Background()

	unlock := s.lockRoom(roomID)
	defer unlock()

	s.timersMu.Lock()
	entry, ok := s.timers[roomID]
	current := ok && entry.generation == generation
	s.timersMu.Unlock()
	if !current {
		return
	}

	state, _, err := s.roomRepo.GetRoom(ctx, roomID)
	if err != nil {
		if !errors.Is(err, room.ErrRoomNotFound) {
			s.logger.WarnContext(ctx, "failed to get room for deletion", "room_id", roomID, "error", err)
		}
		s.forgetTimer(roomID, generation)
		return
	}

	if len(state.Users) != 0 {
		s.forgetTimer(roomID, generation)
		return
	}

	if err := s.roomRepo.DeleteRoom(ctx, roomID); err != nil {
		s.logger.WarnContext(ctx, "failed to delete room", "room_id", roomID, "error", err)
		s.forgetTimer(roomID, generation)
		return
	}

	s.logger.InfoContext(ctx, "deleted empty room after grace period", "room_id", roomID)
	s.forgetTimer(roomID, generation)
}

func (s *service) forgetTimer(roomID string, generation uint64) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()

	if entry, ok := s.timers[roomID]; ok && entry.generation == generation {
		delete(s.timers, roomID)
	}
}
