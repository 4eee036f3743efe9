package master

import (
	"context"
	"time"

	"github.com/bitfighter-go/masterd/internal/config"
	"github.com/bitfighter-go/masterd/internal/wire"
)

// floodDeltas holds the effective per-message-kind flood-control spacing,
// starting from the package defaults and overridden field-by-field by
// config.Master.FloodControl when non-zero.
type floodDeltas struct {
	connectRequest  time.Duration
	chat            time.Duration
	statsSubmission time.Duration
}

func resolveFloodDeltas(cfg config.FloodControlConfig) floodDeltas {
	d := floodDeltas{
		connectRequest:  floodDeltaConnectRequest,
		chat:            floodDeltaChat,
		statsSubmission: floodDeltaStatsSubmission,
	}
	if cfg.ConnectRequestMillis > 0 {
		d.connectRequest = time.Duration(cfg.ConnectRequestMillis) * time.Millisecond
	}
	if cfg.ChatMillis > 0 {
		d.chat = time.Duration(cfg.ChatMillis) * time.Millisecond
	}
	if cfg.StatsMillis > 0 {
		d.statsSubmission = time.Duration(cfg.StatsMillis) * time.Millisecond
	}
	return d
}

// CredentialVerifier is the external forum/account credential store —
// never called from the dispatch loop directly, only from an AuthTask's
// Run method.
type CredentialVerifier interface {
	// VerifyCredentials checks handle/password and returns the account's
	// canonical-cased login name alongside the status — the store may
	// hold "Alice" where the client supplied "alice".
	VerifyCredentials(ctx context.Context, handle, password string) (status AuthStatus, canonicalName string, err error)
	FetchBadgesAndGames(ctx context.Context, handle string) (badges uint32, gamesPlayed int, err error)
}

// StatsStore is the external persistent statistics store — only ever
// touched from a worker task's Run method.
type StatsStore interface {
	InsertGameStats(ctx context.Context, blob []byte) error
	InsertLevelInfo(ctx context.Context, info wire.SendLevelInfo) error
	InsertAchievement(ctx context.Context, achievementID int, playerNick, serverName, address string) error
	HighScores(ctx context.Context, scoresPerGroup int) (groupNames, names, scores []string, err error)
}

// Outbound is how handlers and task-finish callbacks reach back out to a
// connection without holding a pointer to it: sends and disconnects are
// id-addressed and are no-ops if the connection is already gone.
type Outbound interface {
	Send(id ConnID, msg wire.Message)
	Disconnect(id ConnID, reason DisconnectReason)
}

// Context is the single explicit bag of mutable state threaded through
// every handler, in place of free functions reading globals. Every RPC
// handler and task Finish method receives it.
type Context struct {
	Config config.Master
	Clock  Clock

	Registry   *Registry
	Rendezvous *RendezvousTable
	HighScores *HighScoreCache
	Worker     *WorkerQueue

	Credentials CredentialVerifier
	Stats       StatsStore
	Outbound    Outbound

	Flood floodDeltas

	// HiddenIPs is the process-wide runtime hidden-IP list (distinct from
	// config.Master.HiddenIPs, the startup-configured list): the admin
	// "hideip"/"unhideips" commands mutate this one at runtime.
	HiddenIPs map[string]struct{}

	nextConnID ConnID

	// pendingLeaveChat holds clients with an active leave-debounce timer,
	// driven once per main-loop tick.
	pendingLeaveChat map[ConnID]struct{}

	needToWriteStatusDelayed bool
}

// NewContext wires a fresh Context from its collaborators.
func NewContext(cfg config.Master, clock Clock, creds CredentialVerifier, stats StatsStore, out Outbound) *Context {
	hidden := make(map[string]struct{}, len(cfg.HiddenIPs))
	for _, ip := range cfg.HiddenIPs {
		hidden[ip] = struct{}{}
	}
	return &Context{
		Config:           cfg,
		Clock:            clock,
		Registry:         NewRegistry(),
		Rendezvous:       NewRendezvousTable(),
		HighScores:       NewHighScoreCache(),
		Worker:           NewWorkerQueue(),
		Credentials:      creds,
		Stats:            stats,
		Outbound:         out,
		Flood:            resolveFloodDeltas(cfg.FloodControl),
		HiddenIPs:        hidden,
		pendingLeaveChat: make(map[ConnID]struct{}),
	}
}

// NextConnID allocates a new, never-reused connection identity.
func (mc *Context) NextConnID() ConnID {
	mc.nextConnID++
	return mc.nextConnID
}

// IsHiddenIP reports whether addr is on the runtime hidden-IP list.
func (mc *Context) IsHiddenIP(addr string) bool {
	_, ok := mc.HiddenIPs[addr]
	return ok
}
