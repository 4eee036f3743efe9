package master

import (
	"net/netip"
	"time"
)

// Role is the membership state of a Connection: a connection belongs to
// at most one of the server list or the client list, or to neither
// (Anonymous/None).
type Role int

const (
	RoleNone Role = iota
	RoleAnonymous
	RoleServer
	RoleClient
)

// ConnID is a stable, generation-independent identity for a Connection,
// used for every cross-reference (rendezvous requests, worker tasks,
// global-chat waiter lists) instead of a pointer: a stable id plus a map
// lookup in place of the original's intrusive lists.
type ConnID uint64

const defaultDisplayName = "ChumpChange"

// BadgeCount bounds the achievement bitset; an achievementId beyond this
// is rejected rather than silently overflowing the bitset.
const BadgeCount = 32

// Connection is one accepted transport session: a registered game server,
// an authenticated or in-flight client, or an anonymous/unclassified peer.
// Exactly one owner goroutine (the dispatch loop) ever mutates it, so it
// carries no internal locking.
type Connection struct {
	ID ConnID

	Addr netip.AddrPort
	Role Role

	// protocol generation numbers, read once at handshake time
	MasterProtocolVersion int
	CSProtocolVersion     int
	ClientBuild           int

	Name string // server name or player handle, trimmed; defaults to ChumpChange

	// server-specific fields
	ServerDescription string
	LevelName         string
	LevelType         string
	BotCount          int
	PlayerCount       int
	MaxPlayers        int
	InfoFlags         uint32

	// client-specific fields
	PlayerID           uint64 // the "nonce"
	Authenticated      bool
	IsMasterAdmin      bool
	IsDebug            bool
	IsHiddenFromList   bool
	IsInGlobalChat     bool
	Badges             uint32
	GamesPlayed        int
	LeaveChatTimer     *Timer
	ChatTooFast        bool
	PendingConnectIDs map[uint64]struct{} // allocated empty and never filled; pending requests are indexed by RendezvousTable

	LastActivityTime time.Time
	Strikes          int

	// PendingLogStatus is not set or read by this package; disconnect
	// reasons are logged by the Outbound implementation instead.
	PendingLogStatus string
}

// DisplayName returns Name, defaulting to ChumpChange when blank, matching
// the original's handshake-time default.
func DisplayName(name string) string {
	if name == "" {
		return defaultDisplayName
	}
	return name
}

// NewConnection creates a Connection in RoleNone (Anonymous until linked).
func NewConnection(id ConnID, addr netip.AddrPort, now time.Time) *Connection {
	return &Connection{
		ID:                id,
		Addr:              addr,
		Role:              RoleNone,
		LastActivityTime:  now,
		PendingConnectIDs: make(map[uint64]struct{}),
	}
}

// SetBadge ORs achievementId's bit into Badges. achievementId > BadgeCount
// is rejected.
func (c *Connection) SetBadge(achievementID int) bool {
	if achievementID < 0 || achievementID > BadgeCount {
		return false
	}
	c.Badges |= 1 << uint(achievementID)
	return true
}
