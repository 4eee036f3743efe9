package master

import (
	"context"
	"log/slog"
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
)

// highScoreCacheTTL is written "2 hours" in the comment this was ported
// from, but the literal there is 2*60*1000 milliseconds — 2 minutes. The
// literal, not the comment, is preserved here: this IS two minutes, not
// two hours.
const highScoreCacheTTL = 2 * 60 * 1000 * time.Millisecond

const defaultScoresPerGroup = 3

// HighScoreCache is the process-wide, time-bounded high-score snapshot.
type HighScoreCache struct {
	groupNames []string
	names      []string
	scores     []string

	scoresPerGroup int
	lastClock      time.Time
	valid          bool
	busy           bool

	waiting []ConnID
}

// NewHighScoreCache creates an empty, invalid cache.
func NewHighScoreCache() *HighScoreCache {
	return &HighScoreCache{}
}

// Invalidate marks the cache stale, called on every stats ingest.
func (h *HighScoreCache) Invalidate() {
	h.valid = false
}

func (h *HighScoreCache) fresh(now time.Time, scoresPerGroup int) bool {
	return h.valid &&
		now.Sub(h.lastClock) < highScoreCacheTTL &&
		h.scoresPerGroup >= scoresPerGroup
}

// RequestHighScores serves from cache if fresh, otherwise kicks off a
// rebuild (if not already busy) and always enqueues the requester as a
// waiter.
func (h *HighScoreCache) RequestHighScores(ctx *Context, requester ConnID, scoresPerGroup int) {
	now := ctx.Clock.Now()
	if scoresPerGroup <= 0 {
		scoresPerGroup = defaultScoresPerGroup
	}

	if h.fresh(now, scoresPerGroup) {
		ctx.Outbound.Send(requester, wire.SendHighScores{
			GroupNames: h.groupNames, Names: h.names, Scores: h.scores,
		})
		return
	}

	if !h.busy {
		// valid is set true here, before the rebuild actually completes —
		// preserved from the original: a reader that lands between this line
		// and Finish sees stale data marked valid.
		h.busy = true
		h.valid = true
		h.lastClock = now
		h.scoresPerGroup = scoresPerGroup

		ctx.Worker.Enqueue(&HighScoresTask{store: ctx.Stats, scoresPerGroup: scoresPerGroup})
	}

	h.waiting = append(h.waiting, requester)
}

// HighScoresTask rebuilds the cache by calling the stats store off-loop,
// then on Finish clears busy and serves every still-live waiter.
type HighScoresTask struct {
	store          StatsStore
	scoresPerGroup int

	groupNames []string
	names      []string
	scores     []string
	err        error
}

// Run calls the stats store. It must not touch the registry or cache.
func (t *HighScoresTask) Run() {
	groups, names, scores, err := t.store.HighScores(context.Background(), t.scoresPerGroup)
	t.groupNames, t.names, t.scores, t.err = groups, names, scores, err
}

// Finish reintegrates the rebuilt snapshot and serves waiters.
func (t *HighScoresTask) Finish(ctx *Context) {
	h := ctx.HighScores
	h.busy = false

	if t.err != nil {
		slog.Error("high score rebuild failed", "error", t.err)
		// valid was optimistically set true at enqueue time (see above);
		// on failure we leave the stale snapshot in place rather than
		// serving nothing, matching the preserved staleness behavior.
	} else {
		h.groupNames, h.names, h.scores = t.groupNames, t.names, t.scores
	}

	waiters := h.waiting
	h.waiting = nil
	msg := wire.SendHighScores{GroupNames: h.groupNames, Names: h.names, Scores: h.scores}
	for _, id := range waiters {
		ctx.Outbound.Send(id, msg)
	}
}
