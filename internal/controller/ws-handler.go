package controller

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/service/room"
	"github.com/syncroom/server/pkg/ctxlogger"
	"github.com/syncroom/server/pkg/rest"
	"github.com/syncroom/server/pkg/wsrouter"
)

type EmptyInput struct{}

// wsHandler adapts a typed handler onto the ws router by unmarshalling
// the raw payload into the handler's input type.
func wsHandler[T any](c *controller, fn func(ctx context.Context, conn *websocket.Conn, input T) error) wsrouter.HandlerFunc {
	return func(ctx context.Context, conn *websocket.Conn, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &input); err != nil {
				c.logger.InfoContext(ctx, "failed to unmarshal payload", "error", err)
				return err
			}
		}

		if err := fn(ctx, conn, input); err != nil {
			c.logger.WarnContext(ctx, "failed to handle message", "error", err)
			return err
		}

		return nil
	}
}

// roomWS is the connection handshake: the room id arrives in the path,
// gets normalized and validated, and only then is the connection upgraded
// and attached to the room.
func (c controller) roomWS(w http.ResponseWriter, r *http.Request) {
	roomID := strings.ToLower(chi.URLParam(r, "room-id"))
	if !c.validate.Var(roomID, "required,min=4,alpha") {
		c.logger.DebugContext(r.Context(), "rejected malformed room id", "room_id", roomID)
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "malformed room id"})
		return
	}

	sessionID := uuid.NewString()
	ctx := ctxlogger.AppendCtx(r.Context(), slog.String("room_id", roomID))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("session_id", sessionID))

	conn, err := c.upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "failed to upgrade to websocket", "error", err)
		return
	}

	if _, err := c.roomService.JoinRoom(ctx, &room.JoinRoomParams{
		Conn:      conn,
		SessionID: sessionID,
		RoomID:    roomID,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to join room", "error", err)
		conn.Close()
		return
	}
	defer func() {
		if err := c.roomService.DisconnectSession(context.WithoutCancel(ctx), &room.DisconnectSessionParams{
			SessionID: sessionID,
			RoomID:    roomID,
		}); err != nil {
			c.logger.WarnContext(ctx, "failed to disconnect session", "error", err)
		}
	}()

	ctx = context.WithValue(ctx, roomIDCtxKey, roomID)
	ctx = context.WithValue(ctx, sessionIDCtxKey, sessionID)

	if err := c.wsmux.ServeConn(ctx, conn); err != nil {
		c.logger.InfoContext(ctx, "connection closed", "error", err)
	}
}

func (c *controller) handleSetPaused(ctx context.Context, _ *websocket.Conn, paused bool) error {
	return c.roomService.SetPaused(ctx, &room.SetPausedParams{
		Paused:   paused,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSetLoop(ctx context.Context, _ *websocket.Conn, loop bool) error {
	return c.roomService.SetLoop(ctx, &room.SetLoopParams{
		Loop:     loop,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSetPlaybackRate(ctx context.Context, _ *websocket.Conn, rate float64) error {
	return c.roomService.SetPlaybackRate(ctx, &room.SetPlaybackRateParams{
		PlaybackRate: rate,
		SenderID:     c.getSessionIDFromCtx(ctx),
		RoomID:       c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSeek(ctx context.Context, _ *websocket.Conn, progress float64) error {
	return c.roomService.Seek(ctx, &room.SeekParams{
		Progress: progress,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSetProgress(ctx context.Context, _ *websocket.Conn, progress float64) error {
	return c.roomService.SetProgress(ctx, &room.SetProgressParams{
		Progress: progress,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handlePlayEnded(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.roomService.PlayEnded(ctx, &room.PlayEndedParams{
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handlePlayAgain(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.roomService.PlayAgain(ctx, &room.PlayAgainParams{
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handlePlayURL(ctx context.Context, _ *websocket.Conn, url string) error {
	return c.roomService.PlayURL(ctx, &room.PlayURLParams{
		URL:      url,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleAddToPlaylist(ctx context.Context, _ *websocket.Conn, url string) error {
	return c.roomService.AddToPlaylist(ctx, &room.AddToPlaylistParams{
		URL:      url,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handlePlayItemFromPlaylist(ctx context.Context, _ *websocket.Conn, index int) error {
	return c.roomService.PlayItemFromPlaylist(ctx, &room.PlayItemFromPlaylistParams{
		Index:    index,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleUpdatePlaylist(ctx context.Context, _ *websocket.Conn, playlist domain.Playlist) error {
	return c.roomService.UpdatePlaylist(ctx, &room.UpdatePlaylistParams{
		Playlist: playlist,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleUpdateUser(ctx context.Context, _ *websocket.Conn, user domain.UserState) error {
	return c.roomService.UpdateUser(ctx, &room.UpdateUserParams{
		Name:     user.Name,
		Avatar:   user.Avatar,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleFetch(ctx context.Context, _ *websocket.Conn, _ EmptyInput) error {
	return c.roomService.Fetch(ctx, &room.FetchParams{
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleChatMessage(ctx context.Context, _ *websocket.Conn, text string) error {
	return c.roomService.SendChatMessage(ctx, &room.ChatMessageParams{
		Text:     text,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSetRoomName(ctx context.Context, _ *websocket.Conn, name string) error {
	return c.roomService.SetRoomName(ctx, &room.SetRoomNameParams{
		Name:     name,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}

func (c *controller) handleSetRoomPublic(ctx context.Context, _ *websocket.Conn, isPublic bool) error {
	return c.roomService.SetRoomPublic(ctx, &room.SetRoomPublicParams{
		IsPublic: isPublic,
		SenderID: c.getSessionIDFromCtx(ctx),
		RoomID:   c.getRoomIDFromCtx(ctx),
	})
}
