package master

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bitfighter-go/masterd/internal/gamestats"
	"github.com/bitfighter-go/masterd/internal/wire"
)

func sampleGameStats() gamestats.GameStats {
	return gamestats.GameStats{
		GameType:    "CTF",
		LevelName:   "Bedlam",
		PlayerCount: 2,
		DurationSec: 600,
		IsTeamGame:  true,
		TeamCount:   1,
		Teams: []TeamStatsAlias{
			{Color: "Blue", Name: "Blue", PlayerCount: 2, Result: "W",
				Players: []gamestats.PlayerStats{
					{Name: "alice", Nonce: 0xdeadbeef, Result: "W", Points: 10, Kills: 5},
					{Name: "bob", Nonce: 0xcafebabe, Result: "W", Points: 4, Kills: 2},
				}},
		},
	}
}

// TeamStatsAlias lets sampleGameStats build a []gamestats.TeamStats literal
// without repeating the package-qualified type name at every call site.
type TeamStatsAlias = gamestats.TeamStats

func TestSendStatisticsRewritesAuthenticatedFlagAgainstRegistry(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	authed := newTestConn(2, "alice")
	authed.PlayerID = 0xdeadbeef
	authed.Authenticated = true
	ctx.Registry.Link(authed, RoleClient)

	stale := newTestConn(3, "bob")
	stale.PlayerID = 0xcafebabe
	stale.Authenticated = false
	ctx.Registry.Link(stale, RoleClient)

	g := sampleGameStats()
	// Seed the opposite of what the registry says, so a no-op rewrite
	// would be caught by the assertions below.
	g.Teams[0].Players[0].IsAuthenticated = false
	g.Teams[0].Players[1].IsAuthenticated = true

	stats := ctx.Stats.(*fakeStats)
	ctx.HighScores.Invalidate() // start invalid so the next assertion is meaningful

	SendStatistics(ctx, server.ID, gamestats.Encode(g))
	drainWorker(ctx)

	require.NotEmpty(t, stats.insertedStats)
	decoded, err := gamestats.Decode(stats.insertedStats)
	require.NoError(t, err)

	require.Equal(t, "GameServer", decoded.ServerName)
	require.True(t, decoded.Teams[0].Players[0].IsAuthenticated, "alice is currently authenticated in the registry")
	require.False(t, decoded.Teams[0].Players[1].IsAuthenticated, "bob is currently not authenticated in the registry")
}

func TestSendStatisticsRewritesUnknownNonceToUnauthenticated(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	g := sampleGameStats()
	g.Teams[0].Players[0].Nonce = 0x1111 // no matching client
	g.Teams[0].Players[0].IsAuthenticated = true
	g.Teams[0].Players = g.Teams[0].Players[:1]

	stats := ctx.Stats.(*fakeStats)
	SendStatistics(ctx, server.ID, gamestats.Encode(g))
	drainWorker(ctx)

	decoded, err := gamestats.Decode(stats.insertedStats)
	require.NoError(t, err)
	require.False(t, decoded.Teams[0].Players[0].IsAuthenticated)
}

func TestSendStatisticsInvalidatesHighScoreCache(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	ctx.HighScores.RequestHighScores(ctx, server.ID, 3)
	drainWorker(ctx)

	SendStatistics(ctx, server.ID, gamestats.Encode(sampleGameStats()))

	require.False(t, ctx.HighScores.valid, "a fresh stats submission must invalidate the cache")
}

func TestSendStatisticsRejectsEmptyBlob(t *testing.T) {
	ctx, out, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	SendStatistics(ctx, server.ID, nil)

	stats := ctx.Stats.(*fakeStats)
	require.Empty(t, stats.insertedStats)
	require.Empty(t, out.disconnected)
}

func TestSendStatisticsRejectsMalformedBlob(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	SendStatistics(ctx, server.ID, []byte{0xFF, 0x00, 0x01})

	stats := ctx.Stats.(*fakeStats)
	require.Empty(t, stats.insertedStats)
}

func TestSendStatisticsFloodControlDisconnectsAfterThreeStrikes(t *testing.T) {
	ctx, out, clock := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	server.LastActivityTime = clock.Now()
	ctx.Registry.Link(server, RoleServer)

	blob := gamestats.Encode(sampleGameStats())
	for i := 0; i < 3; i++ {
		SendStatistics(ctx, server.ID, blob)
	}

	require.NotEmpty(t, out.disconnected)
	last := out.disconnected[len(out.disconnected)-1]
	require.Equal(t, ReasonFloodControl, last.reason)
}

func TestSendStatisticsIgnoresNonServer(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	client := newTestConn(1, "alice")
	ctx.Registry.Link(client, RoleClient)

	SendStatistics(ctx, client.ID, gamestats.Encode(sampleGameStats()))

	stats := ctx.Stats.(*fakeStats)
	require.Empty(t, stats.insertedStats)
}

func TestSendLevelInfoEnqueuesPersist(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	SendLevelInfo(ctx, server.ID, wire.SendLevelInfo{LevelName: "Bedlam", LevelHash: "abc123"})
	drainWorker(ctx)

	stats := ctx.Stats.(*fakeStats)
	require.Len(t, stats.insertedLevel, 1)
	require.Equal(t, "Bedlam", stats.insertedLevel[0].LevelName)
}

func TestSendLevelInfoFloodControlDisconnectsAfterThreeStrikes(t *testing.T) {
	ctx, out, clock := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	server.LastActivityTime = clock.Now()
	ctx.Registry.Link(server, RoleServer)

	for i := 0; i < 3; i++ {
		SendLevelInfo(ctx, server.ID, wire.SendLevelInfo{LevelName: "x"})
	}

	require.NotEmpty(t, out.disconnected)
	last := out.disconnected[len(out.disconnected)-1]
	require.Equal(t, ReasonFloodControl, last.reason)
}

func TestSubmitAchievementSetsBadgeOnConnectedClient(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)
	client := newTestConn(2, "alice")
	ctx.Registry.Link(client, RoleClient)

	SubmitAchievement(ctx, server.ID, 3, "alice")
	require.NotZero(t, client.Badges&(1<<3))
}

func TestSubmitAchievementIgnoresUnknownHandle(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	SubmitAchievement(ctx, server.ID, 3, "ghost") // must not panic
}

func TestSubmitAchievementEnqueuesPersist(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)

	SubmitAchievement(ctx, server.ID, 3, "alice")
	drainWorker(ctx)

	stats := ctx.Stats.(*fakeStats)
	require.Len(t, stats.insertedAchievements, 1)
	require.Equal(t, 3, stats.insertedAchievements[0].achievementID)
	require.Equal(t, "alice", stats.insertedAchievements[0].playerNick)
	require.Equal(t, "GameServer", stats.insertedAchievements[0].serverName)
}

func TestSubmitAchievementRejectsOutOfRangeID(t *testing.T) {
	ctx, _, _ := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	ctx.Registry.Link(server, RoleServer)
	client := newTestConn(2, "alice")
	ctx.Registry.Link(client, RoleClient)

	SubmitAchievement(ctx, server.ID, BadgeCount+1, "alice")
	drainWorker(ctx)

	require.Zero(t, client.Badges)
	stats := ctx.Stats.(*fakeStats)
	require.Empty(t, stats.insertedAchievements)
}

func TestSubmitAchievementBadgeUpdateSurvivesFloodControlDisconnect(t *testing.T) {
	ctx, out, clock := newContextWithFakes()
	server := newTestConn(1, "GameServer")
	server.LastActivityTime = clock.Now()
	ctx.Registry.Link(server, RoleServer)
	client := newTestConn(2, "alice")
	ctx.Registry.Link(client, RoleClient)

	for i := 0; i < 3; i++ {
		SubmitAchievement(ctx, server.ID, 3, "alice")
	}

	require.NotEmpty(t, out.disconnected)
	last := out.disconnected[len(out.disconnected)-1]
	require.Equal(t, ReasonFloodControl, last.reason)
	require.NotZero(t, client.Badges&(1<<3), "badge update must apply even when the DB-persist path is flood-gated")
}
