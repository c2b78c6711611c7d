package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/room"
)

func (r repo) GetRoom(ctx context.Context, roomID string) (domain.RoomState, int64, error) {
	roomKey := r.getRoomKey(roomID)
	fields, err := r.rc.HMGet(ctx, roomKey, "data", "version").Result()
	if err != nil {
		return domain.RoomState{}, 0, fmt.Errorf("failed to get room: %w", err)
	}

	if fields[0] == nil || fields[1] == nil {
		return domain.RoomState{}, 0, room.ErrRoomNotFound
	}

	var state domain.RoomState
	if err := json.Unmarshal([]byte(fields[0].(string)), &state); err != nil {
		return domain.RoomState{}, 0, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	version, err := strconv.ParseInt(fields[1].(string), 10, 64)
	if err != nil {
		return domain.RoomState{}, 0, fmt.Errorf("failed to parse room version: %w", err)
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return state, version, nil
}

func (r repo) CreateRoom(ctx context.Context, params *room.CreateRoomParams) error {
	data, err := json.Marshal(params.Room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	roomKey := r.getRoomKey(params.RoomID)
	res, err := r.rc.EvalSha(ctx, r.createScript, []string{roomKey}, string(data)).Int()
	if err != nil {
		return fmt.Errorf("failed to create room: %w", err)
	}

	if res == 0 {
		return room.ErrRoomAlreadyExists
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}

func (r repo) CompareAndSetRoom(ctx context.Context, params *room.CompareAndSetRoomParams) error {
	data, err := json.Marshal(params.Room)
	if err != nil {
		return fmt.Errorf("failed to marshal room: %w", err)
	}

	roomKey := r.getRoomKey(params.RoomID)
	res, err := r.rc.EvalSha(ctx, r.casScript, []string{roomKey}, params.Version, string(data)).Int()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	switch res {
	case -1:
		return room.ErrRoomNotFound
	case 0:
		return room.ErrVersionConflict
	}

	r.rc.Expire(ctx, roomKey, r.expireDuration)

	return nil
}

func (r repo) DeleteRoom(ctx context.Context, roomID string) error {
	res, err := r.rc.Del(ctx, r.getRoomKey(roomID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	if res == 0 {
		return room.ErrRoomNotFound
	}

	return nil
}

func (r repo) RoomExists(ctx context.Context, roomID string) (bool, error) {
	res, err := r.rc.Exists(ctx, r.getRoomKey(roomID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if room exists: %w", err)
	}

	return res > 0, nil
}

func (r repo) ListRooms(ctx context.Context) ([]string, error) {
	roomIDs := []string{}
	iter := r.rc.Scan(ctx, 0, r.getRoomKey("*"), 0).Iterator()
	for iter.Next(ctx) {
		roomIDs = append(roomIDs, strings.TrimPrefix(iter.Val(), "room:"))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}

	return roomIDs, nil
}
