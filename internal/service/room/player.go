package room

import (
	"context"
	"errors"

	"github.com/syncroom/server/internal/domain"
	"github.com/syncroom/server/internal/playback"
)

type SetPausedParams struct {
	Paused   bool
	SenderID string
	RoomID   string
}

func (s *service) SetPaused(ctx context.Context, params *SetPausedParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		playback.Refresh(&r.TargetState, s.nowSec())
		r.TargetState.Paused = params.Paused
		return nil
	})
}

type SetPlaybackRateParams struct {
	PlaybackRate float64
	SenderID     string
	RoomID       string
}

func (s *service) SetPlaybackRate(ctx context.Context, params *SetPlaybackRateParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if params.PlaybackRate <= 0 {
			return reject("invalid playback rate %f", params.PlaybackRate)
		}

		// commit elapsed time at the old rate before switching
		playback.Refresh(&r.TargetState, s.nowSec())
		r.TargetState.PlaybackRate = params.PlaybackRate
		return nil
	})
}

type SetLoopParams struct {
	Loop     bool
	SenderID string
	RoomID   string
}

func (s *service) SetLoop(ctx context.Context, params *SetLoopParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		r.TargetState.Loop = params.Loop
		playback.Refresh(&r.TargetState, s.nowSec())
		return nil
	})
}

type SeekParams struct {
	Progress float64
	SenderID string
	RoomID   string
}

// Seek sets the position directly. The new value supersedes any
// extrapolation, so no refresh happens first.
func (s *service) Seek(ctx context.Context, params *SeekParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		if params.Progress < 0 {
			return reject("invalid seek position %f", params.Progress)
		}

		r.TargetState.Progress = params.Progress
		r.TargetState.LastSync = s.nowSec()
		return nil
	})
}

type SetProgressParams struct {
	Progress float64
	SenderID string
	RoomID   string
}

// SetProgress records the sender's own reported position and broadcasts
// the room so peers see each other's player state. It never touches the
// authoritative target state. A report that has drifted outside the
// tolerance window additionally gets the snapshot unicast straight back
// to the reporter; in-tolerance reports get no targeted nudge, which
// keeps the client from seeking in a loop at the boundary.
func (s *service) SetProgress(ctx context.Context, params *SetProgressParams) error {
	unlock := s.lockRoom(params.RoomID)
	defer unlock()

	var outOfSync bool
	state, err := s.updateRoomLocked(ctx, params.RoomID, func(r *domain.RoomState) error {
		user := r.FindUser(params.SenderID)
		if user == nil {
			return reject("progress report from unknown session %s", params.SenderID)
		}

		user.Player.Progress = params.Progress

		ts := r.TargetState
		outOfSync = !playback.IsSync(params.Progress, ts.Progress, ts.LastSync, ts.Paused, ts.PlaybackRate, s.cfg.SyncTolerance, s.nowSec())
		return nil
	})
	if err != nil {
		var rejection RejectionError
		if errors.As(err, &rejection) {
			s.logger.InfoContext(ctx, "command rejected", "room_id", params.RoomID, "reason", rejection.Reason)
			return nil
		}

		return err
	}

	s.broadcastUpdate(ctx, &state)

	if outOfSync {
		if err := s.sendToSession(ctx, params.SenderID, &Output{Type: "update", Payload: state}); err != nil {
			s.logger.DebugContext(ctx, "failed to send drift correction", "session_id", params.SenderID, "error", err)
		}
	}

	return nil
}

type PlayEndedParams struct {
	SenderID string
	RoomID   string
}

// PlayEnded advances to the next playlist item, or restarts when looping,
// or freezes at the ending session's own reported position when the
// playlist is exhausted.
func (s *service) PlayEnded(ctx context.Context, params *PlayEndedParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		ts := &r.TargetState
		switch {
		case ts.Loop:
			ts.Progress = 0
			ts.Paused = false
		case ts.Playlist.CurrentIndex+1 < len(ts.Playlist.Items):
			ts.Playlist.CurrentIndex++
			ts.Playing = ts.Playlist.Items[ts.Playlist.CurrentIndex]
			ts.Progress = 0
			ts.Paused = false
		default:
			// freeze at the reporter's own last position rather than the
			// extrapolated target
			var progress float64
			if user := r.FindUser(params.SenderID); user != nil {
				progress = user.Player.Progress
			}
			ts.Progress = progress
			ts.Paused = true
		}
		ts.LastSync = s.nowSec()
		return nil
	})
}

type PlayAgainParams struct {
	SenderID string
	RoomID   string
}

func (s *service) PlayAgain(ctx context.Context, params *PlayAgainParams) error {
	return s.mutateAndBroadcast(ctx, params.RoomID, func(r *domain.RoomState) error {
		r.TargetState.Progress = 0
		r.TargetState.Paused = false
		r.TargetState.LastSync = s.nowSec()
		return nil
	})
}
