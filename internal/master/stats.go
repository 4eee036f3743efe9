package master

import (
	"context"
	"log/slog"

	"github.com/bitfighter-go/masterd/internal/gamestats"
	"github.com/bitfighter-go/masterd/internal/wire"
)

// SendStatistics flood-checks the submission, validates the versioned
// blob, rewrites each contained player's authenticated flag against the
// live client list (a server only knows a player's nonce, not whether the
// master has since authenticated them), stamps the submitting server's
// identity into the payload, enqueues the result for persistence, and
// invalidates the high-score cache so the next request rebuilds from the
// new data.
func SendStatistics(ctx *Context, serverID ConnID, blob []byte) {
	conn, ok := ctx.Registry.Lookup(serverID)
	if !ok || conn.Role != RoleServer {
		return
	}

	now := ctx.Clock.Now()
	if !floodCheck(conn, now, ctx.Flood.statsSubmission) {
		ctx.Outbound.Disconnect(serverID, ReasonFloodControl)
		return
	}

	if len(blob) == 0 {
		slog.Warn("rejecting invalid (empty) game stats blob", "server", conn.Name)
		return
	}

	stats, err := gamestats.Decode(blob)
	if err != nil {
		slog.Warn("rejecting malformed game stats blob", "server", conn.Name, "error", err)
		return
	}

	stats.ServerName = conn.Name
	stats.ServerVersion = conn.ClientBuild
	for ti := range stats.Teams {
		for pi := range stats.Teams[ti].Players {
			p := &stats.Teams[ti].Players[pi]
			p.IsAuthenticated = false
			if client := ctx.Registry.FindByNonce(p.Nonce); client != nil {
				p.IsAuthenticated = client.Authenticated
			}
		}
	}

	ctx.HighScores.Invalidate()
	ctx.Worker.Enqueue(&StatsTask{store: ctx.Stats, blob: gamestats.Encode(stats)})
}

// SendLevelInfo is the supplemented level-info submission, flood-checked
// identically to stats.
func SendLevelInfo(ctx *Context, serverID ConnID, info wire.SendLevelInfo) {
	conn, ok := ctx.Registry.Lookup(serverID)
	if !ok || conn.Role != RoleServer {
		return
	}

	now := ctx.Clock.Now()
	if !floodCheck(conn, now, ctx.Flood.statsSubmission) {
		ctx.Outbound.Disconnect(serverID, ReasonFloodControl)
		return
	}

	ctx.Worker.Enqueue(&LevelInfoTask{store: ctx.Stats, info: info})
}

// SubmitAchievement is accepted only from Server role. It ORs
// achievementID into the badge bitset of any currently-connected client
// named playerNick unconditionally (as long as achievementID is in
// range), then flood-checks the submitting server before enqueuing
// persistence — a flood strike or a dropped DB write never undoes the
// in-memory badge update.
func SubmitAchievement(ctx *Context, serverID ConnID, achievementID int, playerNick string) {
	server, ok := ctx.Registry.Lookup(serverID)
	if !ok || server.Role != RoleServer {
		return
	}

	if achievementID < 0 || achievementID > BadgeCount {
		return
	}

	if c := ctx.Registry.FindClientByName(playerNick); c != nil {
		c.SetBadge(achievementID)
	}

	now := ctx.Clock.Now()
	if !floodCheck(server, now, ctx.Flood.statsSubmission) {
		ctx.Outbound.Disconnect(serverID, ReasonFloodControl)
		return
	}

	ctx.Worker.Enqueue(&AchievementTask{
		store:         ctx.Stats,
		achievementID: achievementID,
		playerNick:    playerNick,
		serverName:    server.Name,
		address:       server.Addr.String(),
	})
}

// StatsTask persists one game-stats submission off-loop.
type StatsTask struct {
	store StatsStore
	blob  []byte
	err   error
}

func (t *StatsTask) Run() {
	t.err = t.store.InsertGameStats(context.Background(), t.blob)
}

func (t *StatsTask) Finish(ctx *Context) {
	if t.err != nil {
		slog.Error("persisting game stats failed", "error", t.err)
	}
}

// LevelInfoTask persists one level-info submission off-loop.
type LevelInfoTask struct {
	store StatsStore
	info  wire.SendLevelInfo
	err   error
}

func (t *LevelInfoTask) Run() {
	t.err = t.store.InsertLevelInfo(context.Background(), t.info)
}

func (t *LevelInfoTask) Finish(ctx *Context) {
	if t.err != nil {
		slog.Error("persisting level info failed", "error", t.err, "level", t.info.LevelName)
	}
}

// AchievementTask persists one achievement submission off-loop.
type AchievementTask struct {
	store         StatsStore
	achievementID int
	playerNick    string
	serverName    string
	address       string
	err           error
}

func (t *AchievementTask) Run() {
	t.err = t.store.InsertAchievement(context.Background(), t.achievementID, t.playerNick, t.serverName, t.address)
}

func (t *AchievementTask) Finish(ctx *Context) {
	if t.err != nil {
		slog.Error("persisting achievement failed", "error", t.err, "player", t.playerNick)
	}
}
