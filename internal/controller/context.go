package controller

import "context"

type contextKey int

const (
	roomIDCtxKey contextKey = iota
	sessionIDCtxKey
)

func (c controller) getRoomIDFromCtx(ctx context.Context) string {
	roomID, ok := ctx.Value(roomIDCtxKey).(string)
	if !ok {
		return ""
	}

	return roomID
}

func (c controller) getSessionIDFromCtx(ctx context.Context) string {
	sessionID, ok := ctx.Value(sessionIDCtxKey).(string)
	if !ok {
		return ""
	}

	return sessionID
}
