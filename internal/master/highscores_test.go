package master

import (
	"testing"
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
	"github.com/stretchr/testify/require"
)

func newTestContext(clock Clock, creds CredentialVerifier, stats StatsStore, out Outbound) *Context {
	mc := NewContext(testConfig(), clock, creds, stats, out)
	return mc
}

func TestHighScoresRebuildServesWaiters(t *testing.T) {
	clock := newFakeClock()
	stats := &fakeStats{groupNames: []string{"Wins"}, names: []string{"Alice"}, scores: []string{"10"}}
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, stats, out)

	mc.HighScores.RequestHighScores(mc, ConnID(1), 3)
	drainWorker(mc)

	msgs := out.messagesTo(1)
	require.Len(t, msgs, 1)
	got := msgs[0].(wire.SendHighScores)
	require.Equal(t, []string{"Wins"}, got.GroupNames)
	require.Equal(t, []string{"Alice"}, got.Names)
}

func TestHighScoresServesFromCacheWhenFresh(t *testing.T) {
	clock := newFakeClock()
	stats := &fakeStats{groupNames: []string{"Wins"}, names: []string{"Alice"}, scores: []string{"10"}}
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, stats, out)

	mc.HighScores.RequestHighScores(mc, ConnID(1), 3)
	drainWorker(mc)

	// Change what the store would return; cache should still serve old data.
	stats.names = []string{"Changed"}
	clock.Advance(time.Second)
	mc.HighScores.RequestHighScores(mc, ConnID(2), 3)

	msgs := out.messagesTo(2)
	require.Len(t, msgs, 1)
	got := msgs[0].(wire.SendHighScores)
	require.Equal(t, []string{"Alice"}, got.Names)
}

func TestHighScoresExpiresAfterTTL(t *testing.T) {
	clock := newFakeClock()
	stats := &fakeStats{names: []string{"Alice"}}
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, stats, out)

	mc.HighScores.RequestHighScores(mc, ConnID(1), 3)
	drainWorker(mc)

	stats.names = []string{"Bob"}
	clock.Advance(highScoreCacheTTL + time.Millisecond)
	mc.HighScores.RequestHighScores(mc, ConnID(2), 3)
	drainWorker(mc)

	msgs := out.messagesTo(2)
	require.Len(t, msgs, 1)
	got := msgs[0].(wire.SendHighScores)
	require.Equal(t, []string{"Bob"}, got.Names)
}

func TestHighScoresInvalidateForcesRebuild(t *testing.T) {
	clock := newFakeClock()
	stats := &fakeStats{names: []string{"Alice"}}
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, stats, out)

	mc.HighScores.RequestHighScores(mc, ConnID(1), 3)
	drainWorker(mc)

	mc.HighScores.Invalidate()
	stats.names = []string{"Bob"}
	mc.HighScores.RequestHighScores(mc, ConnID(2), 3)
	drainWorker(mc)

	msgs := out.messagesTo(2)
	require.Len(t, msgs, 1)
	got := msgs[0].(wire.SendHighScores)
	require.Equal(t, []string{"Bob"}, got.Names)
}
