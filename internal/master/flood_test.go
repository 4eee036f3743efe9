package master

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFloodCheckAllowsWellSpacedCalls(t *testing.T) {
	c := newTestConn(1, "alpha")
	c.LastActivityTime = time.Unix(1700000000, 0)

	now := c.LastActivityTime.Add(floodDeltaConnectRequest + time.Millisecond)
	require.True(t, floodCheck(c, now, floodDeltaConnectRequest))
	require.Equal(t, 0, c.Strikes)
	require.Equal(t, now, c.LastActivityTime)
}

func TestFloodCheckStrikesOnTooSoonCalls(t *testing.T) {
	c := newTestConn(1, "alpha")
	now := c.LastActivityTime

	for i := 0; i < 2; i++ {
		now = now.Add(time.Millisecond)
		ok := floodCheck(c, now, floodDeltaConnectRequest)
		require.True(t, ok, "strike %d must not yet trip the disconnect", i+1)
	}

	now = now.Add(time.Millisecond)
	ok := floodCheck(c, now, floodDeltaConnectRequest)
	require.False(t, ok, "the third too-soon call must trip the disconnect")
	require.Equal(t, 3, c.Strikes)
}

func TestFloodCheckDecaysOneStrikePerWellSpacedCall(t *testing.T) {
	c := newTestConn(1, "alpha")
	now := c.LastActivityTime

	now = now.Add(time.Millisecond)
	floodCheck(c, now, floodDeltaConnectRequest)
	require.Equal(t, 1, c.Strikes)

	now = now.Add(floodDeltaConnectRequest + time.Millisecond)
	ok := floodCheck(c, now, floodDeltaConnectRequest)
	require.True(t, ok)
	require.Equal(t, 0, c.Strikes)
}
