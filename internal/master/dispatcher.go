package master

import (
	"net/netip"
	"strings"

	"github.com/bitfighter-go/masterd/internal/wire"
)

// MasterProtocolVersion is the latest master<->client protocol generation
// this implementation speaks, MASTER_PROTOCOL_VERSION in the original.
const MasterProtocolVersion = 7

// minMasterProtocolVersion is the oldest accepted generation.
const minMasterProtocolVersion = 4

// ipMessageAddressCount bounds QueryServersResponse batch size.
const ipMessageAddressCount = 64

// statusRewriteDelay postpones the next status-file write by this much
// when a client link happens mid-authentication, so the JSON snapshot
// does not briefly show Unauthenticated.
const statusRewriteDelay = 5000

// HandleConnectRequest runs the connect handshake. It returns false (and
// the connection should be torn down) on any validation failure; the
// caller is expected to have already allocated id via ctx.NextConnID and
// not yet linked a Connection into the registry.
func HandleConnectRequest(ctx *Context, id ConnID, addr netip.AddrPort, req wire.ConnectRequest) bool {
	if req.MasterProtocolVersion < minMasterProtocolVersion || req.MasterProtocolVersion > MasterProtocolVersion {
		ctx.Outbound.Disconnect(id, ReasonBadVersion)
		return false
	}

	now := ctx.Clock.Now()
	conn := NewConnection(id, addr, now)
	conn.MasterProtocolVersion = req.MasterProtocolVersion
	conn.CSProtocolVersion = req.CSProtocolVersion
	conn.ClientBuild = req.ClientBuild

	switch req.Role {
	case wire.RoleServer:
		return handleServerHandshake(ctx, conn, req)
	case wire.RoleClient:
		return handleClientHandshake(ctx, conn, req)
	default:
		// Anonymous: no further setup, not linked into either list.
		return true
	}
}

func handleServerHandshake(ctx *Context, conn *Connection, req wire.ConnectRequest) bool {
	conn.Name = cleanServerName(req.ServerName)
	conn.ServerDescription = req.ServerDescription
	conn.LevelName = req.LevelName
	conn.LevelType = req.LevelType
	conn.BotCount = req.BotCount
	conn.PlayerCount = req.PlayerCount
	conn.MaxPlayers = req.MaxPlayers
	conn.InfoFlags = req.InfoFlags

	ctx.Registry.Link(conn, RoleServer)
	return true
}

func cleanServerName(name string) string {
	return DisplayName(strings.TrimSpace(name))
}

func handleClientHandshake(ctx *Context, conn *Connection, req wire.ConnectRequest) bool {
	conn.Name = DisplayName(strings.TrimSpace(req.Handle))
	conn.IsDebug = req.IsDebug
	conn.PlayerID = req.PlayerID

	if ctx.Registry.FindByNonce(req.PlayerID) != nil {
		// Preserve "disconnect the newcomer" behavior on duplicate nonce.
		ctx.Outbound.Disconnect(conn.ID, ReasonDuplicateID)
		return false
	}

	if ctx.IsHiddenIP(conn.Addr.Addr().String()) {
		conn.IsHiddenFromList = true
	}

	// Link before checking credentials, synchronous or not: Finish looks
	// the client up by id, and for the synchronous (doNotDelay) path it
	// runs inline below, before this function returns. Linking first
	// means Finish always finds a registered connection to apply its
	// decision to instead of silently no-oping on a still-anonymous id.
	ctx.Registry.Link(conn, RoleClient)

	doNotDelay := req.CSProtocolVersion <= 35
	_, handled := checkAuthentication(ctx, conn.ID, req.Handle, req.Password, req.MasterProtocolVersion, doNotDelay)

	if handled {
		// A bad-login or bad-username result already disconnected and
		// unlinked conn from inside Finish.
		if _, stillLinked := ctx.Registry.Lookup(conn.ID); !stillLinked {
			return false
		}
	} else {
		// Asynchronous path: conn stays linked with status Unknown, and
		// if the worker hasn't resolved it by the next status write,
		// delay that write by statusRewriteDelay so the snapshot doesn't
		// momentarily show Unauthenticated.
		ctx.needToWriteStatusDelayed = true
	}

	sendUpgradeStatus(ctx, conn.ID, req.ClientBuild)
	sendMOTD(ctx, conn.ID, req.ClientBuild)
	return true
}

// HandleQueryServers batches the server list, filtered by hidden flag and
// matching CS protocol version, terminated by an always-present trailing
// empty batch.
func HandleQueryServers(ctx *Context, clientID ConnID, queryID uint32) {
	client, ok := ctx.Registry.Lookup(clientID)
	if !ok || client.Role != RoleClient {
		return
	}

	var matches []netip.AddrPort
	ctx.Registry.IterateServers(func(s *Connection) {
		if s.IsHiddenFromList {
			return
		}
		if s.CSProtocolVersion != client.CSProtocolVersion {
			return
		}
		matches = append(matches, s.Addr)
	})

	for len(matches) > 0 {
		n := len(matches)
		if n > ipMessageAddressCount {
			n = ipMessageAddressCount
		}
		batch := matches[:n]
		matches = matches[n:]
		ctx.Outbound.Send(clientID, wire.QueryServersResponse{QueryID: queryID, Addresses: batch})
	}

	// Always terminate with an empty batch, even when the last batch was
	// already short — this is the only batch sent when there were zero
	// matches, and distinguishes end-of-stream when the final non-empty
	// batch was exactly full.
	ctx.Outbound.Send(clientID, wire.QueryServersResponse{QueryID: queryID, Addresses: nil})
}

// HandleUpdateServerStatus is accepted only from Server role, is
// flood-checked, and dirties status only on an actual change.
func HandleUpdateServerStatus(ctx *Context, serverID ConnID, upd wire.UpdateServerStatus) {
	conn, ok := ctx.Registry.Lookup(serverID)
	if !ok || conn.Role != RoleServer {
		return
	}

	changed := conn.LevelName != upd.LevelName ||
		conn.LevelType != upd.LevelType ||
		conn.BotCount != upd.BotCount ||
		conn.PlayerCount != upd.PlayerCount ||
		conn.MaxPlayers != upd.MaxPlayers ||
		conn.InfoFlags != upd.InfoFlags

	if !changed {
		return
	}

	now := ctx.Clock.Now()
	if !floodCheck(conn, now, floodDeltaUpdateStatus) {
		ctx.Outbound.Disconnect(serverID, ReasonFloodControl)
		return
	}

	conn.LevelName = upd.LevelName
	conn.LevelType = upd.LevelType
	conn.BotCount = upd.BotCount
	conn.PlayerCount = upd.PlayerCount
	conn.MaxPlayers = upd.MaxPlayers
	conn.InfoFlags = upd.InfoFlags
	ctx.Registry.MarkStatusDirty()
}

// HandleChangeName is accepted only from Server role; clients must
// authenticate to change name, handled in auth.go's
// rename-on-canonical-name-mismatch path instead.
func HandleChangeName(ctx *Context, serverID ConnID, name string) {
	conn, ok := ctx.Registry.Lookup(serverID)
	if !ok || conn.Role != RoleServer {
		return
	}
	cleaned := cleanServerName(name)
	if cleaned == conn.Name {
		return
	}
	conn.Name = cleaned
	ctx.Registry.MarkStatusDirty()
}

// HandleServerDescription is accepted only from Server role.
func HandleServerDescription(ctx *Context, serverID ConnID, desc string) {
	conn, ok := ctx.Registry.Lookup(serverID)
	if !ok || conn.Role != RoleServer {
		return
	}
	conn.ServerDescription = desc
}
