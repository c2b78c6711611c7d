package room

import (
	"context"

	"github.com/syncroom/server/internal/domain"
)

type PlayURLParams struct {
	URL      string
	SenderID string
	RoomID   string
}

// PlayURL prepends the url to the playlist and starts playing it. When
// the only playlist entry is the bootstrap default it is dropped first.
func (s *service) PlayURL(ctx context.Context, params *PlayURLParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if !isValidURL(params.URL) {
			return reject("invalid url %q", params.URL)
		}

		ts := &r.TargetState
		defaultURL, _ := s.defaultMedia()
		if len(ts.Playlist.Items) == 1 && ts.Playlist.Items[0].FirstSrc() == defaultURL {
			ts.Playlist.Items = []domain.MediaElement{}
		}

		media := domain.NewMediaElement(params.URL)
		ts.Playlist.Items = append([]domain.MediaElement{media}, ts.Playlist.Items...)
		ts.Playlist.CurrentIndex = 0
		ts.Playing = media
		ts.Progress = 0
		ts.Paused = false
		ts.LastSync = s.nowSec()
		return nil
	})
}

type AddToPlaylistParams struct {
	URL      string
	SenderID string
	RoomID   string
}

// AddToPlaylist appends without touching what is currently playing.
func (s *service) AddToPlaylist(ctx context.Context, params *AddToPlaylistParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if !isValidURL(params.URL) {
			return reject("invalid url %q", params.URL)
		}

		r.TargetState.Playlist.Items = append(r.TargetState.Playlist.Items, domain.NewMediaElement(params.URL))
		return nil
	})
}

type PlayItemFromPlaylistParams struct {
	Index    int
	SenderID string
	RoomID   string
}

func (s *service) PlayItemFromPlaylist(ctx context.Context, params *PlayItemFromPlaylistParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		ts := &r.TargetState
		if params.Index < 0 || params.Index >= len(ts.Playlist.Items) {
			return reject("index %d out of range, playlist length %d", params.Index, len(ts.Playlist.Items))
		}

		ts.Playing = ts.Playlist.Items[params.Index]
		ts.Playlist.CurrentIndex = params.Index
		ts.Progress = 0
		ts.LastSync = s.nowSec()
		return nil
	})
}

type UpdatePlaylistParams struct {
	Playlist domain.Playlist
	SenderID string
	RoomID   string
}

// UpdatePlaylist replaces the playlist wholesale after checking the index
// invariant.
func (s *service) UpdatePlaylist(ctx context.Context, params *UpdatePlaylistParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if !params.Playlist.IndexValid() {
			return reject("index %d out of range, playlist length %d", params.Playlist.CurrentIndex, len(params.Playlist.Items))
		}

		r.TargetState.Playlist = params.Playlist
		return nil
	})
}
