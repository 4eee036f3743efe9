package master

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
)

// doNotDelayPollInterval and doNotDelayMaxWait belong to the legacy
// synchronous authentication path for very old clients (CS protocol <= 35):
// the handshake waits (at most doNotDelayMaxWait) for the result instead of
// finishing asynchronously, so a disconnect reason can be returned inline
// from the handshake. doNotDelayPollInterval is not used by the wait.
const (
	doNotDelayPollInterval = 5 * time.Millisecond
	doNotDelayMaxWait      = 1000 * time.Millisecond
)

// AuthTask is the off-loop credential check. It holds a weak reference
// (ConnID) to the originating client, not a pointer — if the connection
// is gone by Finish time, Finish is a no-op.
type AuthTask struct {
	creds     CredentialVerifier
	client    ConnID
	handle    string
	password  string
	protoGen  int

	status      AuthStatus
	canonical   string
	badges      uint32
	gamesPlayed int
}

// NewAuthTask builds an AuthTask capturing everything Run needs without
// touching the registry.
func NewAuthTask(creds CredentialVerifier, client ConnID, handle, password string, protoGen int) *AuthTask {
	return &AuthTask{creds: creds, client: client, handle: handle, password: password, protoGen: protoGen}
}

// Run calls the external credential verifier off the dispatch loop.
func (t *AuthTask) Run() {
	status, canonical, err := t.creds.VerifyCredentials(context.Background(), t.handle, t.password)
	if err != nil {
		slog.Error("credential verification failed", "handle", t.handle, "error", err)
		t.status = AuthCantConnect
		return
	}
	t.status = status
	t.canonical = canonical

	if status == AuthAuthenticated {
		badges, games, err := t.creds.FetchBadgesAndGames(context.Background(), t.handle)
		if err != nil {
			slog.Error("fetching badges/games failed", "handle", t.handle, "error", err)
			return
		}
		t.badges, t.gamesPlayed = badges, games
	}
}

// Finish reintegrates the authentication decision on the main loop.
func (t *AuthTask) Finish(ctx *Context) {
	conn, ok := ctx.Registry.Lookup(t.client)
	if !ok || conn.Role != RoleClient {
		return
	}

	switch t.status {
	case AuthWrongPassword:
		ctx.Outbound.Disconnect(t.client, ReasonBadLogin)
		ctx.Registry.Unlink(conn)
		return
	case AuthInvalidUsername:
		ctx.Outbound.Disconnect(t.client, ReasonInvalidUsername)
		ctx.Registry.Unlink(conn)
		return
	}

	if t.status == AuthAuthenticated {
		conn.Authenticated = true
		conn.Badges = t.badges
		conn.GamesPlayed = t.gamesPlayed

		if t.canonical != "" && t.canonical != conn.Name {
			oldName := conn.Name
			wasInChat := conn.IsInGlobalChat
			if wasInChat {
				broadcastGlobalChat(ctx, t.client, wire.PlayerLeftGlobalChat{Name: oldName})
			}
			conn.Name = t.canonical
			if wasInChat {
				broadcastGlobalChat(ctx, t.client, wire.PlayerJoinedGlobalChat{Name: conn.Name})
			}
		}
	}

	conn.IsMasterAdmin = ctx.Config.IsAdmin(conn.Name)

	sendSetAuthenticated(ctx, conn, setAuthenticatedStatusFor(t.status))
}

func setAuthenticatedStatusFor(status AuthStatus) SetAuthenticatedStatus {
	switch status {
	case AuthAuthenticated:
		return AuthenticatedName
	case AuthUnknownUser, AuthUnsupported:
		return UnauthenticatedName
	case AuthUnknownStatus, AuthCantConnect:
		return AuthenticatedFailed
	default:
		return AuthenticatedFailed
	}
}

// sendSetAuthenticated emits SetAuthenticated or its _019 variant
// depending on the client's master-protocol generation (>= 7 uses _019).
func sendSetAuthenticated(ctx *Context, conn *Connection, status SetAuthenticatedStatus) {
	if conn.MasterProtocolVersion >= 7 {
		ctx.Outbound.Send(conn.ID, wire.SetAuthenticated019{
			Nonce: conn.PlayerID, Name: conn.Name, Status: int(status),
			Badges: conn.Badges, GamesPlayed: conn.GamesPlayed,
		})
		return
	}
	ctx.Outbound.Send(conn.ID, wire.SetAuthenticated{
		Nonce: conn.PlayerID, Name: conn.Name, Status: int(status), Badges: conn.Badges,
	})
}

// HandleRequestAuthentication lets a registered server vouch for a nonce
// it sees on a direct connection, replying with the same SetAuthenticated
// / _019 shape used for the client handshake, addressed to the server
// instead. A nonce with no matching client is reported Unauthenticated.
func HandleRequestAuthentication(ctx *Context, serverID ConnID, nonce uint64, name string) {
	server, ok := ctx.Registry.Lookup(serverID)
	if !ok || server.Role != RoleServer {
		return
	}

	client := ctx.Registry.FindByNonce(nonce)
	status := UnauthenticatedName
	var badges uint32
	var gamesPlayed int
	replyName := name

	if client != nil && client.Authenticated && strings.EqualFold(client.Name, name) {
		status = AuthenticatedName
		badges = client.Badges
		gamesPlayed = client.GamesPlayed
		replyName = client.Name
	}

	if server.MasterProtocolVersion >= 7 {
		ctx.Outbound.Send(serverID, wire.SetAuthenticated019{
			Nonce: nonce, Name: replyName, Status: int(status),
			Badges: badges, GamesPlayed: gamesPlayed,
		})
		return
	}
	ctx.Outbound.Send(serverID, wire.SetAuthenticated{
		Nonce: nonce, Name: replyName, Status: int(status), Badges: badges,
	})
}

// checkAuthentication enqueues an AuthTask for normal (asynchronous)
// clients. When doNotDelay is true (CS protocol <= 35), it instead runs the
// task's Run on a separate goroutine and blocks the handshake on its
// completion channel for up to doNotDelayMaxWait, then calls Finish inline,
// so a synchronous disconnect reason can be returned from the handshake
// itself. There is no poll loop; doNotDelayPollInterval is unused.
func checkAuthentication(ctx *Context, client ConnID, handle, password string, protoGen int, doNotDelay bool) (status AuthStatus, handled bool) {
	task := NewAuthTask(ctx.Credentials, client, handle, password, protoGen)

	if !doNotDelay {
		ctx.Worker.Enqueue(task)
		return AuthUnknownStatus, false
	}

	done := make(chan struct{})
	go func() {
		task.Run()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(doNotDelayMaxWait):
		slog.Warn("doNotDelay authentication exceeded max wait", "handle", handle)
	}

	task.Finish(ctx)
	return task.status, true
}
