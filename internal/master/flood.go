package master

import "time"

// floodCheck applies the strike policy for a single guarded operation: if
// less than delta has elapsed since lastActivity, the caller
// has struck too soon and strikes is incremented; otherwise, if strikes is
// already above zero, it is decremented by one (decay is "at most one per
// well-spaced call", not a time-based decay). lastActivity is unconditionally
// bumped to now. The third strike is the caller's signal to disconnect with
// ReasonFloodControl.
//
// Returns ok=false when the connection has just accumulated its third
// strike — the caller must disconnect and must not perform the guarded
// operation.
func floodCheck(c *Connection, now time.Time, delta time.Duration) (ok bool) {
	tooSoon := now.Sub(c.LastActivityTime) < delta
	c.LastActivityTime = now

	if tooSoon {
		c.Strikes++
	} else if c.Strikes > 0 {
		c.Strikes--
	}

	return c.Strikes < 3
}

// Flood-control spacing constants (delta) per guarded operation.
const (
	floodDeltaConnectRequest  = 2000 * time.Millisecond
	floodDeltaUpdateStatus    = 4000 * time.Millisecond
	floodDeltaStatsSubmission = 6000 * time.Millisecond
)
