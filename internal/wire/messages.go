// Package wire defines the master protocol's message types and their
// binary encoding. The transport itself (framing, optional encryption) is
// assumed given — this package only describes the typed payloads carried
// over it, one Go struct per message kind.
package wire

import "net/netip"

// Kind identifies a message's wire type, read as the first byte of every
// frame.
type Kind byte

const (
	KindConnectRequest Kind = iota + 1
	KindQueryServers
	KindQueryServersResponse
	KindRequestArrangedConnection
	KindClientRequestedArrangedConnection
	KindAcceptArrangedConnection
	KindRejectArrangedConnection
	KindArrangedConnectionAccepted
	KindArrangedConnectionRejected
	KindUpdateServerStatus
	KindChangeServerName
	KindServerDescriptionUpdate
	KindSendChat
	KindRelayedChat
	KindJoinGlobalChat
	KindLeaveGlobalChat
	KindGlobalChatRoster
	KindPlayerJoinedGlobalChat
	KindPlayerLeftGlobalChat
	KindSendStatistics
	KindSendLevelInfo
	KindRequestHighScores
	KindSendHighScores
	KindRequestAuthentication
	KindSetAuthenticated
	KindSetAuthenticated019
	KindSetMOTD
	KindUpgradeStatus
	KindAchievementAchieved
)

// Role mirrors master.Role's wire encoding: a single byte for master
// protocol >= 6, distinct from the pre-6 single server/client flag (the
// pre-6 variant is not implemented).
type Role byte

const (
	RoleAnonymous Role = iota
	RoleServer
	RoleClient
)

// ConnectRequest is the client/server handshake message.
type ConnectRequest struct {
	MasterProtocolVersion int
	CSProtocolVersion     int
	ClientBuild           int
	Role                  Role

	// server-role fields
	ServerName        string
	ServerDescription string
	LevelName         string
	LevelType         string
	BotCount          int
	PlayerCount       int
	MaxPlayers        int
	InfoFlags         uint32

	// client-role fields
	AutoDetectString string
	Handle           string
	Password         string
	IsDebug          bool
	PlayerID         uint64
	InternalAddress  netip.AddrPort
}

// QueryServers is the client's request for the current server list.
type QueryServers struct {
	QueryID uint32
}

// QueryServersResponse is one batch of server addresses.
type QueryServersResponse struct {
	QueryID   uint32
	Addresses []netip.AddrPort
}

// RequestArrangedConnection is the initiator's request to rendezvous with
// a chosen host.
type RequestArrangedConnection struct {
	RequestID       uint64
	RemoteAddress   netip.AddrPort
	InternalAddress netip.AddrPort
	Params          []byte
}

// ClientRequestedArrangedConnection is forwarded to the host.
type ClientRequestedArrangedConnection struct {
	HostQueryID        uint64
	CandidateAddresses []netip.AddrPort
	Params             []byte
}

// AcceptArrangedConnection is the host's acceptance.
type AcceptArrangedConnection struct {
	HostQueryID     uint64
	InternalAddress netip.AddrPort
	Data            []byte
}

// RejectArrangedConnection is the host's rejection.
type RejectArrangedConnection struct {
	HostQueryID uint64
	Data        []byte
}

// ArrangedConnectionAccepted tells the initiator to try the candidates.
type ArrangedConnectionAccepted struct {
	InitiatorQueryID   uint64
	CandidateAddresses []netip.AddrPort
	Data               []byte
}

// ArrangedConnectionRejected tells the initiator the rendezvous failed.
type ArrangedConnectionRejected struct {
	InitiatorQueryID uint64
	Data             string
}

// UpdateServerStatus is periodic server status from a registered host.
type UpdateServerStatus struct {
	LevelName   string
	LevelType   string
	BotCount    int
	PlayerCount int
	MaxPlayers  int
	InfoFlags   uint32
}

// ChangeServerName renames a registered server, server-role only.
type ChangeServerName struct {
	Name string
}

// ServerDescriptionUpdate updates a registered server's description text.
type ServerDescriptionUpdate struct {
	Description string
}

// SendChat is a client's outbound chat line, possibly slash-command.
type SendChat struct {
	Message string
}

// RelayedChat is a relayed chat line delivered to a client.
type RelayedChat struct {
	Sender    string
	IsPrivate bool
	Message   string
}

// GlobalChatRoster is sent to a client on JoinGlobalChat, listing the
// other clients already present.
type GlobalChatRoster struct {
	Names []string
}

// PlayerJoinedGlobalChat is broadcast to every other joined client.
type PlayerJoinedGlobalChat struct {
	Name string
}

// PlayerLeftGlobalChat is broadcast after a leave survives its debounce.
type PlayerLeftGlobalChat struct {
	Name string
}

// SendStatistics carries the opaque, versioned game-stats blob; its
// serialization is treated as an external collaborator's concern.
type SendStatistics struct {
	GameStats []byte
}

// SendLevelInfo is the supplemented level-metadata submission.
type SendLevelInfo struct {
	LevelHash   string
	LevelName   string
	Creator     string
	GameType    string
	TeamCount   int
	WinningScore int
	DurationSec int
}

// RequestHighScores has no payload.
type RequestHighScores struct{}

// SendHighScores is the rebuilt high-score snapshot.
type SendHighScores struct {
	GroupNames []string
	Names      []string
	Scores     []string
}

// RequestAuthentication is a server asking the master to vouch for a
// connected nonce/name pair.
type RequestAuthentication struct {
	Nonce uint64
	Name  string
}

// SetAuthenticated is the legacy (master protocol < 7) authentication
// reply to a server.
type SetAuthenticated struct {
	Nonce  uint64
	Name   string
	Status int // master.SetAuthenticatedStatus
	Badges uint32
}

// SetAuthenticated019 is the _019 variant (master protocol >= 7), adding
// GamesPlayed.
type SetAuthenticated019 struct {
	Nonce       uint64
	Name        string
	Status      int
	Badges      uint32
	GamesPlayed int
}

// SetMOTD carries the master's name and the selected message of the day.
type SetMOTD struct {
	MasterName string
	MOTD       string
}

// UpgradeStatus tells a client whether its build is out of date.
type UpgradeStatus struct {
	NeedsUpgrade bool
}

// AchievementAchieved is a server reporting that a connected player earned
// an achievement, server-role only.
type AchievementAchieved struct {
	AchievementID int
	PlayerNick    string
}
