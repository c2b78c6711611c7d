package domain

// PlayerState is the last playback snapshot a participant reported about
// its own local player. It is informational; the authoritative state
// lives in TargetState.
type PlayerState struct {
	Playing      MediaElement `json:"playing"`
	Paused       bool         `json:"paused"`
	Progress     float64      `json:"progress"`
	PlaybackRate float64      `json:"playbackRate"`
	Loop         bool         `json:"loop"`
	Volume       float64      `json:"volume"`
	Muted        bool         `json:"muted"`
	Fullscreen   bool         `json:"fullscreen"`
	Duration     float64      `json:"duration"`
}

type UserState struct {
	UID       string      `json:"uid"`
	Name      string      `json:"name"`
	Avatar    string      `json:"avatar"`
	SocketIDs []string    `json:"socketIds"`
	Player    PlayerState `json:"player"`
}

// NewUser builds the participant record for a freshly connected session.
// The session id doubles as the user id and as its primary socket id.
func NewUser(sessionID, name string) UserState {
	return UserState{
		UID:       sessionID,
		Name:      name,
		Avatar:    "",
		SocketIDs: []string{sessionID},
		Player: PlayerState{
			Playing:      MediaElement{Src: []MediaOption{}, Sub: []Subtitle{}},
			Paused:       false,
			Progress:     0,
			PlaybackRate: 1,
			Loop:         false,
			Volume:       1,
			Muted:        true,
		},
	}
}

// NextOwner picks the owner after a membership change. It returns the
// current owner when it still exists among users, otherwise the oldest
// surviving user. ok is false when no user is left to own the room.
func NextOwner(users []UserState, currentOwnerID string, leavingID string) (string, bool) {
	for _, u := range users {
		if u.UID == currentOwnerID && u.UID != leavingID {
			return currentOwnerID, true
		}
	}

	for _, u := range users {
		if u.UID != leavingID {
			return u.UID, true
		}
	}

	return "", false
}
