package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/syncroom/server/internal/service/room"
	"github.com/syncroom/server/pkg/validator"
	"github.com/syncroom/server/pkg/wsrouter"
)

type iRoomService interface {
	JoinRoom(context.Context, *room.JoinRoomParams) (room.JoinRoomResponse, error)
	DisconnectSession(context.Context, *room.DisconnectSessionParams) error

	SetPaused(context.Context, *room.SetPausedParams) error
	SetLoop(context.Context, *room.SetLoopParams) error
	SetPlaybackRate(context.Context, *room.SetPlaybackRateParams) error
	Seek(context.Context, *room.SeekParams) error
	SetProgress(context.Context, *room.SetProgressParams) error
	PlayEnded(context.Context, *room.PlayEndedParams) error
	PlayAgain(context.Context, *room.PlayAgainParams) error

	PlayURL(context.Context, *room.PlayURLParams) error
	AddToPlaylist(context.Context, *room.AddToPlaylistParams) error
	PlayItemFromPlaylist(context.Context, *room.PlayItemFromPlaylistParams) error
	UpdatePlaylist(context.Context, *room.UpdatePlaylistParams) error

	UpdateUser(context.Context, *room.UpdateUserParams) error
	SetRoomName(context.Context, *room.SetRoomNameParams) error
	SetRoomPublic(context.Context, *room.SetRoomPublicParams) error
	Fetch(context.Context, *room.FetchParams) error
	SendChatMessage(context.Context, *room.ChatMessageParams) error

	GetPublicRooms(context.Context) ([]room.PublicRoom, error)
	GetUsersCount(context.Context) (int, error)
	GetSessionsCount() int
}

type controller struct {
	roomService iRoomService
	upgrader    websocket.Upgrader
	validate    *validator.Validator
	logger      *slog.Logger
	wsmux       *wsrouter.WSRouter
}

func NewController(roomService iRoomService, logger *slog.Logger) *controller {
	c := &controller{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		roomService: roomService,
		validate:    validator.NewValidator(),
		logger:      logger,
	}
	c.wsmux = c.getWSRouter()

	return c
}
