package app

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/repository/connection"
	roomRedis "github.com/syncroom/server/internal/repository/room/redis"
	"github.com/syncroom/server/internal/service/room"
)

// noopConnRepo keeps the scenario free of real sockets; every send is
// skipped as if the connection had already gone away.
type noopConnRepo struct{}

func (noopConnRepo) Add(*websocket.Conn, string) error { return nil }

func (noopConnRepo) RemoveBySessionID(string) error { return nil }

func (noopConnRepo) GetConn(string) (*websocket.Conn, error) {
	return nil, connection.ErrNotFound
}

func (noopConnRepo) GetSessionIDs() []string { return nil }

func TestRoomScenario(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s := miniredis.RunT(t)
	r := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	roomRepo := roomRedis.NewRepo(r, time.Hour)
	service := room.NewService(roomRepo, noopConnRepo{}, slog.Default(), &room.Config{
		GracePeriod:     50 * time.Millisecond,
		DefaultMediaURL: "https://example.com/default.mp4",
	})

	ctx := context.Background()

	// session 1 joins a fresh room and becomes owner
	join1Resp, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		SessionID: "session-1",
		RoomID:    "abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, "abcd", join1Resp.Room.ID)
	assert.Equal(t, join1Resp.JoinedUser.UID, join1Resp.Room.OwnerID, "first joiner must own the room")
	assert.Equal(t, len(join1Resp.Room.Users), 1, "room must contain 1 user")
	t.Log("room created")

	// session 1 starts a video
	err = service.PlayURL(ctx, &room.PlayURLParams{
		URL:      "https://example.com/a.mp4",
		SenderID: "session-1",
		RoomID:   "abcd",
	})
	require.NoError(t, err)

	state, _, err := roomRepo.GetRoom(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.mp4", state.TargetState.Playing.FirstSrc(), "playing url is not equal")
	assert.Equal(t, state.TargetState.Paused, false, "playback must be unpaused")
	t.Log("video started")

	// session 2 joins, ownership stays with session 1
	join2Resp, err := service.JoinRoom(ctx, &room.JoinRoomParams{
		SessionID: "session-2",
		RoomID:    "abcd",
	})
	require.NoError(t, err)
	assert.Equal(t, len(join2Resp.Room.Users), 2, "room must contain 2 users")
	assert.Equal(t, join1Resp.JoinedUser.UID, join2Resp.Room.OwnerID, "owner must not change on join")
	assert.NotEqual(t, join1Resp.JoinedUser.Name, join2Resp.JoinedUser.Name, "display names must be unique")
	t.Log("session 2 joined")

	// owner disconnects, ownership passes to session 2
	err = service.DisconnectSession(ctx, &room.DisconnectSessionParams{
		SessionID: "session-1",
		RoomID:    "abcd",
	})
	require.NoError(t, err)

	state, _, err = roomRepo.GetRoom(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, len(state.Users), 1, "room must contain 1 user")
	assert.Equal(t, join2Resp.JoinedUser.UID, state.OwnerID, "ownership must pass to the survivor")
	t.Log("session 1 disconnected")

	// last session disconnects, room is collected after the grace period
	err = service.DisconnectSession(ctx, &room.DisconnectSessionParams{
		SessionID: "session-2",
		RoomID:    "abcd",
	})
	require.NoError(t, err)

	exists, err := roomRepo.RoomExists(ctx, "abcd")
	require.NoError(t, err)
	assert.Equal(t, exists, true, "room must survive until the grace period elapses")

	require.Eventually(t, func() bool {
		exists, err := roomRepo.RoomExists(ctx, "abcd")
		return err == nil && !exists
	}, time.Second, 10*time.Millisecond, "room must be deleted after the grace period")
	t.Log("room deleted")

	t.Log(r.Keys(ctx, "*").Val())
}
