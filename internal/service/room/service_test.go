package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/repository/connection"
	"github.com/syncroom/server/internal/repository/room"
	roomRedis "github.com/syncroom/server/internal/repository/room/redis"
)

const testDefaultMedia = "https://example.com/default.mp4"

// fakeConnRepo registers sessions without real connections so no write
// ever reaches a socket.
type fakeConnRepo struct {
	mu       sync.Mutex
	sessions map[string]bool
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{sessions: make(map[string]bool)}
}

func (f *fakeConnRepo) Add(_ *websocket.Conn, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID] = true
	return nil
}

func (f *fakeConnRepo) RemoveBySessionID(sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sessions[sessionID] {
		return connection.ErrNotFound
	}
	delete(f.sessions, sessionID)
	return nil
}

func (f *fakeConnRepo) GetConn(string) (*websocket.Conn, error) {
	return nil, connection.ErrNotFound
}

func (f *fakeConnRepo) GetSessionIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, 0, len(f.sessions))
	for id := range f.sessions {
		ids = append(ids, id)
	}

	return ids
}

func newTestService(t *testing.T, cfg *Config) *service {
	t.Helper()

	s := miniredis.RunT(t)
	rc := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { rc.Close() })

	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.DefaultMediaURL == "" {
		cfg.DefaultMediaURL = testDefaultMedia
	}

	return NewService(roomRedis.NewRepo(rc, time.Hour), newFakeConnRepo(), slog.Default(), cfg)
}

func join(t *testing.T, s *service, roomID, sessionID string) JoinRoomResponse {
	t.Helper()

	resp, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		SessionID: sessionID,
		RoomID:    roomID,
	})
	require.NoError(t, err)

	return resp
}

func getRoom(t *testing.T, s *service, roomID string) domain.RoomState {
	t.Helper()

	state, _, err := s.roomRepo.GetRoom(context.Background(), roomID)
	require.NoError(t, err)

	return state
}

func TestJoinCreatesRoom(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	resp := join(t, s, "abcd", "s1")

	assert.Equal(t, "abcd", resp.Room.ID)
	assert.Equal(t, "s1", resp.Room.OwnerID)
	assert.NotEmpty(t, resp.JoinedUser.Name)
	require.Len(t, resp.Room.Users, 1)
	require.Len(t, resp.Room.TargetState.Playlist.Items, 1)
	assert.Equal(t, testDefaultMedia, resp.Room.TargetState.Playlist.Items[0].FirstSrc())
	assert.False(t, resp.Room.TargetState.Paused, "default video must start unpaused")

	count, err := s.roomRepo.GetUsersCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// failingRoomRepo refuses every versioned write.
type failingRoomRepo struct {
	iRoomRepo
}

func (failingRoomRepo) CompareAndSetRoom(context.Context, *room.CompareAndSetRoomParams) error {
	return errors.New("write refused")
}

func TestJoinFailureLeavesNoPresence(t *testing.T) {
	s := newTestService(t, nil)
	connRepo := s.connRepo.(*fakeConnRepo)
	realRepo := s.roomRepo
	s.roomRepo = failingRoomRepo{realRepo}

	_, err := s.JoinRoom(context.Background(), &JoinRoomParams{
		SessionID: "s1",
		RoomID:    "abcd",
	})
	require.Error(t, err)

	count, err := realRepo.GetUsersCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count, "failed join must not count towards presence")
	assert.Empty(t, connRepo.sessions, "failed join must deregister the connection")
}

func TestJoinImageRoomStartsPaused(t *testing.T) {
	s := newTestService(t, &Config{DefaultImageURL: "https://example.com/welcome.png"})

	resp := join(t, s, "abcd", "s1")

	assert.True(t, resp.Room.TargetState.Paused)
	assert.Equal(t, "Welcome", resp.Room.TargetState.Playing.Title)
}

func TestJoinGeneratesUniqueNames(t *testing.T) {
	s := newTestService(t, nil)

	join(t, s, "abcd", "s1")
	join(t, s, "abcd", "s2")
	join(t, s, "abcd", "s3")

	state := getRoom(t, s, "abcd")
	names := map[string]bool{}
	for _, u := range state.Users {
		names[u.Name] = true
	}
	assert.Len(t, names, 3, "display names must be unique within a room")
}

func TestOwnershipHandoff(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	join(t, s, "abcd", "s2")

	require.NoError(t, s.DisconnectSession(ctx, &DisconnectSessionParams{SessionID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	require.Len(t, state.Users, 1)
	assert.Equal(t, "s2", state.OwnerID)
}

func TestEmptyRoomDeletedAfterGracePeriod(t *testing.T) {
	s := newTestService(t, &Config{GracePeriod: 50 * time.Millisecond})
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	require.NoError(t, s.DisconnectSession(ctx, &DisconnectSessionParams{SessionID: "s1", RoomID: "abcd"}))

	exists, err := s.roomRepo.RoomExists(ctx, "abcd")
	require.NoError(t, err)
	assert.True(t, exists, "room must survive until the grace period elapses")

	require.Eventually(t, func() bool {
		exists, err := s.roomRepo.RoomExists(ctx, "abcd")
		return err == nil && !exists
	}, time.Second, 10*time.Millisecond)
}

func TestRejoinWithinGracePeriodKeepsRoom(t *testing.T) {
	s := newTestService(t, &Config{GracePeriod: 100 * time.Millisecond})
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	require.NoError(t, s.DisconnectSession(ctx, &DisconnectSessionParams{SessionID: "s1", RoomID: "abcd"}))
	join(t, s, "abcd", "s3")

	time.Sleep(300 * time.Millisecond)

	exists, err := s.roomRepo.RoomExists(ctx, "abcd")
	require.NoError(t, err)
	require.True(t, exists, "rejoin within the grace period must cancel deletion")

	state := getRoom(t, s, "abcd")
	assert.Equal(t, "s3", state.OwnerID)
}

func TestPlayURL(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")

	require.NoError(t, s.PlayURL(ctx, &PlayURLParams{
		URL:      "https://example.com/video.mp4",
		SenderID: "s1",
		RoomID:   "abcd",
	}))

	state := getRoom(t, s, "abcd")
	ts := state.TargetState
	require.Len(t, ts.Playlist.Items, 1, "bootstrap default must be dropped")
	assert.Equal(t, "https://example.com/video.mp4", ts.Playing.FirstSrc())
	assert.Equal(t, 0, ts.Playlist.CurrentIndex)
	assert.Equal(t, 0.0, ts.Progress)
	assert.False(t, ts.Paused)
}

func TestPlayURLRejectsInvalidURL(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	before := getRoom(t, s, "abcd")

	require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "not a url", SenderID: "s1", RoomID: "abcd"}))

	after := getRoom(t, s, "abcd")
	assert.Equal(t, before.TargetState.Playlist, after.TargetState.Playlist)
}

func TestAddToPlaylistKeepsPlaying(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "https://example.com/a.mp4", SenderID: "s1", RoomID: "abcd"}))
	require.NoError(t, s.AddToPlaylist(ctx, &AddToPlaylistParams{URL: "https://example.com/b.mp4", SenderID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	ts := state.TargetState
	require.Len(t, ts.Playlist.Items, 2)
	assert.Equal(t, "https://example.com/a.mp4", ts.Playing.FirstSrc())
	assert.Equal(t, 0, ts.Playlist.CurrentIndex)
}

func TestPlayItemFromPlaylist(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "https://example.com/a.mp4", SenderID: "s1", RoomID: "abcd"}))
	require.NoError(t, s.AddToPlaylist(ctx, &AddToPlaylistParams{URL: "https://example.com/b.mp4", SenderID: "s1", RoomID: "abcd"}))

	require.NoError(t, s.PlayItemFromPlaylist(ctx, &PlayItemFromPlaylistParams{Index: 1, SenderID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	assert.Equal(t, "https://example.com/b.mp4", state.TargetState.Playing.FirstSrc())
	assert.Equal(t, 1, state.TargetState.Playlist.CurrentIndex)

	// out of range leaves the record unchanged
	require.NoError(t, s.PlayItemFromPlaylist(ctx, &PlayItemFromPlaylistParams{Index: 5, SenderID: "s1", RoomID: "abcd"}))

	after := getRoom(t, s, "abcd")
	assert.Equal(t, state.TargetState.Playlist, after.TargetState.Playlist)
	assert.True(t, after.TargetState.Playlist.IndexValid())
}

func TestUpdatePlaylistEnforcesIndexInvariant(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")

	bad := domain.Playlist{Items: []domain.MediaElement{}, CurrentIndex: 0}
	require.NoError(t, s.UpdatePlaylist(ctx, &UpdatePlaylistParams{Playlist: bad, SenderID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	require.Len(t, state.TargetState.Playlist.Items, 1, "invalid playlist must be dropped")

	good := domain.Playlist{Items: []domain.MediaElement{}, CurrentIndex: -1}
	require.NoError(t, s.UpdatePlaylist(ctx, &UpdatePlaylistParams{Playlist: good, SenderID: "s1", RoomID: "abcd"}))

	state = getRoom(t, s, "abcd")
	assert.Empty(t, state.TargetState.Playlist.Items)
	assert.Equal(t, -1, state.TargetState.Playlist.CurrentIndex)
}

func TestPlayEnded(t *testing.T) {
	ctx := context.Background()

	t.Run("loop restarts", func(t *testing.T) {
		s := newTestService(t, nil)
		join(t, s, "abcd", "s1")
		require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "https://example.com/a.mp4", SenderID: "s1", RoomID: "abcd"}))
		require.NoError(t, s.SetLoop(ctx, &SetLoopParams{Loop: true, SenderID: "s1", RoomID: "abcd"}))
		require.NoError(t, s.Seek(ctx, &SeekParams{Progress: 100, SenderID: "s1", RoomID: "abcd"}))

		require.NoError(t, s.PlayEnded(ctx, &PlayEndedParams{SenderID: "s1", RoomID: "abcd"}))

		state := getRoom(t, s, "abcd")
		assert.Equal(t, 0.0, state.TargetState.Progress)
		assert.False(t, state.TargetState.Paused)
	})

	t.Run("advances to next item", func(t *testing.T) {
		s := newTestService(t, nil)
		join(t, s, "abcd", "s1")
		require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "https://example.com/a.mp4", SenderID: "s1", RoomID: "abcd"}))
		require.NoError(t, s.AddToPlaylist(ctx, &AddToPlaylistParams{URL: "https://example.com/b.mp4", SenderID: "s1", RoomID: "abcd"}))

		require.NoError(t, s.PlayEnded(ctx, &PlayEndedParams{SenderID: "s1", RoomID: "abcd"}))

		state := getRoom(t, s, "abcd")
		assert.Equal(t, "https://example.com/b.mp4", state.TargetState.Playing.FirstSrc())
		assert.Equal(t, 1, state.TargetState.Playlist.CurrentIndex)
		assert.False(t, state.TargetState.Paused)
		assert.True(t, state.TargetState.Playlist.IndexValid())
	})

	t.Run("freezes at reporter position when exhausted", func(t *testing.T) {
		s := newTestService(t, nil)
		join(t, s, "abcd", "s1")
		require.NoError(t, s.PlayURL(ctx, &PlayURLParams{URL: "https://example.com/a.mp4", SenderID: "s1", RoomID: "abcd"}))
		require.NoError(t, s.SetProgress(ctx, &SetProgressParams{Progress: 42, SenderID: "s1", RoomID: "abcd"}))

		require.NoError(t, s.PlayEnded(ctx, &PlayEndedParams{SenderID: "s1", RoomID: "abcd"}))

		state := getRoom(t, s, "abcd")
		assert.Equal(t, 42.0, state.TargetState.Progress)
		assert.True(t, state.TargetState.Paused)
	})
}

func TestSeekAndPause(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	require.NoError(t, s.Seek(ctx, &SeekParams{Progress: 100, SenderID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	assert.Equal(t, 100.0, state.TargetState.Progress)

	require.NoError(t, s.SetPaused(ctx, &SetPausedParams{Paused: true, SenderID: "s1", RoomID: "abcd"}))

	state = getRoom(t, s, "abcd")
	assert.True(t, state.TargetState.Paused)
	// barely any wall time elapsed between seek and pause
	assert.InDelta(t, 100.0, state.TargetState.Progress, 1.0)
}

func TestSetProgressOnlyTouchesSender(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	join(t, s, "abcd", "s2")

	require.NoError(t, s.SetProgress(ctx, &SetProgressParams{Progress: 42, SenderID: "s1", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	assert.Equal(t, 42.0, state.FindUser("s1").Player.Progress)
	assert.Equal(t, 0.0, state.FindUser("s2").Player.Progress)
	assert.Equal(t, 0.0, state.TargetState.Progress, "target state must not move")
}

func TestUpdateUser(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	join(t, s, "abcd", "s2")

	require.NoError(t, s.UpdateUser(ctx, &UpdateUserParams{
		Name:     "alice",
		Avatar:   "https://example.com/a.png",
		SenderID: "s1",
		RoomID:   "abcd",
	}))

	state := getRoom(t, s, "abcd")
	assert.Equal(t, "alice", state.FindUser("s1").Name)
	assert.Equal(t, "https://example.com/a.png", state.FindUser("s1").Avatar)
	assert.NotEqual(t, "alice", state.FindUser("s2").Name)
}

func TestRoomMetadataOwnerOnly(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	join(t, s, "abcd", "s2")

	// non-owner attempts are dropped quietly
	require.NoError(t, s.SetRoomName(ctx, &SetRoomNameParams{Name: "movie night", SenderID: "s2", RoomID: "abcd"}))
	require.NoError(t, s.SetRoomPublic(ctx, &SetRoomPublicParams{IsPublic: true, SenderID: "s2", RoomID: "abcd"}))

	state := getRoom(t, s, "abcd")
	assert.Empty(t, state.OwnerName)
	assert.False(t, state.IsPublic)

	require.NoError(t, s.SetRoomName(ctx, &SetRoomNameParams{Name: "  movie night  ", SenderID: "s1", RoomID: "abcd"}))
	require.NoError(t, s.SetRoomPublic(ctx, &SetRoomPublicParams{IsPublic: true, SenderID: "s1", RoomID: "abcd"}))

	state = getRoom(t, s, "abcd")
	assert.Equal(t, "movie night", state.OwnerName)
	assert.True(t, state.IsPublic)
}

func TestGetPublicRooms(t *testing.T) {
	s := newTestService(t, nil)
	ctx := context.Background()

	join(t, s, "abcd", "s1")
	join(t, s, "wxyz", "s2")

	require.NoError(t, s.SetRoomPublic(ctx, &SetRoomPublicParams{IsPublic: true, SenderID: "s1", RoomID: "abcd"}))

	publicRooms, err := s.GetPublicRooms(ctx)
	require.NoError(t, err)
	require.Len(t, publicRooms, 1)
	assert.Equal(t, "abcd", publicRooms[0].ID)
	assert.Equal(t, "Anonymous", publicRooms[0].OwnerName)
	assert.Equal(t, 1, publicRooms[0].MemberCount)
}
