package room

import "github.com/syncroom/server/internal/domain"

type CreateRoomParams struct {
	RoomID string
	Room   domain.RoomState
}

type CompareAndSetRoomParams struct {
	RoomID string
	Room   domain.RoomState
	// Version must match the version returned by the GetRoom the mutation
	// was computed from, or the write is refused with ErrVersionConflict.
	Version int64
}
