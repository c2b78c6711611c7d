package controller

import (
	"net/http"

	"github.com/syncroom/server/pkg/rest"
)

func (c controller) getPublicRooms(w http.ResponseWriter, r *http.Request) {
	publicRooms, err := c.roomService.GetPublicRooms(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to get public rooms", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to fetch public rooms"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"rooms": publicRooms})
}

func (c controller) getStats(w http.ResponseWriter, r *http.Request) {
	usersCount, err := c.roomService.GetUsersCount(r.Context())
	if err != nil {
		c.logger.WarnContext(r.Context(), "failed to get users count", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "failed to fetch stats"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{
		"users":    usersCount,
		"sessions": c.roomService.GetSessionsCount(),
	})
}
