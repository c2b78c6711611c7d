package domain

// TargetState is the single authoritative playback snapshot all
// participants reconcile against. Progress is valid as of LastSync
// (seconds since epoch), not as of "now".
type TargetState struct {
	Playlist     Playlist     `json:"playlist"`
	Playing      MediaElement `json:"playing"`
	Paused       bool         `json:"paused"`
	Progress     float64      `json:"progress"`
	PlaybackRate float64      `json:"playbackRate"`
	Loop         bool         `json:"loop"`
	LastSync     float64      `json:"lastSync"`
}

type RoomState struct {
	ID          string        `json:"id"`
	OwnerID     string        `json:"ownerId"`
	OwnerName   string        `json:"ownerName,omitempty"`
	IsPublic    bool          `json:"isPublic"`
	TargetState TargetState   `json:"targetState"`
	Users       []UserState   `json:"users"`
	ChatLog     []ChatMessage `json:"chatLog"`
	// ServerTime is stamped in milliseconds on every outgoing update and
	// never persisted as meaningful state.
	ServerTime int64 `json:"serverTime"`
}

// NewRoom builds the initial record for a first join. The playlist starts
// with a single bootstrap item; a still image starts paused, a video does
// not.
func NewRoom(roomID, ownerID, defaultMedia string, isImage bool, now float64) RoomState {
	item := NewMediaElement(defaultMedia)
	if isImage {
		item.Title = "Welcome"
	}

	return RoomState{
		ID:      roomID,
		OwnerID: ownerID,
		TargetState: TargetState{
			Playlist: Playlist{
				Items:        []MediaElement{item},
				CurrentIndex: 0,
			},
			Playing:      item,
			Paused:       isImage,
			Progress:     0,
			PlaybackRate: 1,
			Loop:         false,
			LastSync:     now,
		},
		Users:   []UserState{},
		ChatLog: []ChatMessage{},
	}
}

// FindUser returns a pointer into Users for the session, or nil.
func (r *RoomState) FindUser(sessionID string) *UserState {
	for i := range r.Users {
		if len(r.Users[i].SocketIDs) > 0 && r.Users[i].SocketIDs[0] == sessionID {
			return &r.Users[i]
		}
	}

	return nil
}

// RemoveUser deletes the session's user record, preserving join order of
// the remaining users. It reports whether a record was removed.
func (r *RoomState) RemoveUser(sessionID string) bool {
	for i := range r.Users {
		if len(r.Users[i].SocketIDs) > 0 && r.Users[i].SocketIDs[0] == sessionID {
			r.Users = append(r.Users[:i], r.Users[i+1:]...)
			return true
		}
	}

	return false
}

// HasUserNamed reports whether any user already carries the display name.
func (r RoomState) HasUserNamed(name string) bool {
	for _, u := range r.Users {
		if u.Name == name {
			return true
		}
	}

	return false
}
