// Package playback holds the clock-reconciliation math: pure functions
// translating a timestamped snapshot into the position playback should be
// at right now. All times are float seconds since epoch.
package playback

import (
	"math"

	"github.com/syncroom/server/internal/domain"
)

// DefaultTolerance is the drift window within which an observed position
// counts as in sync. It must stay well above poll and float jitter or
// clients fall into a reseek loop at the boundary.
const DefaultTolerance = 0.75

// TargetTime returns the expected playback position at now. While paused
// the position is frozen at progress; otherwise elapsed wall time since
// lastSync is scaled by the play rate. Never negative.
func TargetTime(progress, lastSync float64, paused bool, rate, now float64) float64 {
	if paused {
		return math.Max(progress, 0)
	}

	return math.Max(progress+rate*(now-lastSync), 0)
}

// IsSync reports whether an observed position is acceptably close to the
// target for the given snapshot.
func IsSync(observed, progress, lastSync float64, paused bool, rate, tolerance, now float64) bool {
	return math.Abs(observed-TargetTime(progress, lastSync, paused, rate, now)) < tolerance
}

// Refresh commits elapsed real time into the snapshot: progress becomes
// the current target time and lastSync becomes now. Paused and rate are
// untouched. Every discrete mutation of the snapshot must refresh first
// or the elapsed playback time since lastSync is silently lost.
func Refresh(ts *domain.TargetState, now float64) {
	ts.Progress = TargetTime(ts.Progress, ts.LastSync, ts.Paused, ts.PlaybackRate, now)
	ts.LastSync = now
}
