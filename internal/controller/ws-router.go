package controller

import (
	"github.com/syncroom/server/pkg/wsrouter"
)

func (c *controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIDMw())
	mux.Use(c.wsLoggerMw())

	// player
	mux.Handle("setPaused", wsHandler(c, c.handleSetPaused))
	mux.Handle("setLoop", wsHandler(c, c.handleSetLoop))
	mux.Handle("setPlaybackRate", wsHandler(c, c.handleSetPlaybackRate))
	mux.Handle("seek", wsHandler(c, c.handleSeek))
	mux.Handle("setProgress", wsHandler(c, c.handleSetProgress))
	mux.Handle("playEnded", wsHandler(c, c.handlePlayEnded))
	mux.Handle("playAgain", wsHandler(c, c.handlePlayAgain))

	// playlist
	mux.Handle("playUrl", wsHandler(c, c.handlePlayURL))
	mux.Handle("addToPlaylist", wsHandler(c, c.handleAddToPlaylist))
	mux.Handle("playItemFromPlaylist", wsHandler(c, c.handlePlayItemFromPlaylist))
	mux.Handle("updatePlaylist", wsHandler(c, c.handleUpdatePlaylist))

	// room
	mux.Handle("updateUser", wsHandler(c, c.handleUpdateUser))
	mux.Handle("fetch", wsHandler(c, c.handleFetch))
	mux.Handle("chatMessage", wsHandler(c, c.handleChatMessage))
	mux.Handle("setRoomName", wsHandler(c, c.handleSetRoomName))
	mux.Handle("setRoomPublic", wsHandler(c, c.handleSetRoomPublic))

	return mux
}
