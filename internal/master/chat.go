package master

import (
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
)

const (
	floodDeltaChat        = 500 * time.Millisecond
	floodDeltaPrivateChat = 1000 * time.Millisecond
)

// SendChat parses leading-slash commands (admin verbs and /pm), otherwise
// broadcasts as public chat, subject to flood control and the hidden flag.
func SendChat(ctx *Context, senderID ConnID, message string) {
	conn, ok := ctx.Registry.Lookup(senderID)
	if !ok || conn.Role != RoleClient {
		return
	}

	if strings.HasPrefix(message, "/") {
		handleSlashCommand(ctx, conn, message[1:])
		return
	}

	if conn.IsHiddenFromList {
		return
	}

	if !checkMessage(ctx, conn, false) {
		return
	}

	msg := wire.RelayedChat{Sender: conn.Name, IsPrivate: false, Message: message}
	ctx.Registry.IterateClients(func(c *Connection) {
		if c.ID != senderID {
			ctx.Outbound.Send(c.ID, msg)
		}
	})
}

// checkMessage is the anti-flood predicate guarding chat sends. isPrivate
// raises the spacing requirement. On first silencing in a burst, the
// connection is informed and a log line is emitted.
func checkMessage(ctx *Context, conn *Connection, isPrivate bool) bool {
	delta := ctx.Flood.chat
	if isPrivate {
		delta = floodDeltaPrivateChat
	}

	now := ctx.Clock.Now()
	ok := floodCheck(conn, now, delta)
	if !ok {
		if !conn.ChatTooFast {
			conn.ChatTooFast = true
			slog.Info("client chatting too fast", "name", conn.Name)
			ctx.Outbound.Send(conn.ID, wire.RelayedChat{
				Sender: "", IsPrivate: false, Message: "You are chatting too fast",
			})
		}
		return false
	}
	conn.ChatTooFast = false
	return true
}

func handleSlashCommand(ctx *Context, conn *Connection, rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	verb := strings.ToLower(fields[0])
	args := fields[1:]

	switch verb {
	case "pm":
		handlePM(ctx, conn, rest)
	case "dropserver":
		if mustBeAdmin(ctx, conn) {
			cmdDropServer(ctx, args)
		}
	case "restoreservers":
		if mustBeAdmin(ctx, conn) {
			cmdRestoreServers(ctx)
		}
	case "hideplayer":
		if mustBeAdmin(ctx, conn) {
			cmdHidePlayer(ctx, args)
		}
	case "hideip":
		if mustBeAdmin(ctx, conn) {
			cmdHideIP(ctx, args)
		}
	case "unhideips":
		if mustBeAdmin(ctx, conn) {
			cmdUnhideIPs(ctx)
		}
	default:
		// Unknown slash-prefixed input is dropped without relay.
	}
}

func mustBeAdmin(ctx *Context, conn *Connection) bool {
	return conn.IsMasterAdmin
}

// handlePM implements "pm <nick> <text>". nick may contain spaces; the
// text begins after the last token that still matches a live client name
// prefix — resolved by longest case-insensitive name match against the
// registry rather than guessing a fixed token count.
func handlePM(ctx *Context, sender *Connection, rest string) {
	// rest is "pm <nick> <text...>"; strip the verb.
	afterVerb := strings.TrimPrefix(rest, "pm")
	afterVerb = strings.TrimPrefix(afterVerb, " ")
	fields := strings.Fields(afterVerb)
	if len(fields) < 2 {
		return
	}

	var recipient *Connection
	var textStart int
	for end := len(fields) - 1; end >= 1; end-- {
		candidate := strings.Join(fields[:end], " ")
		if c := ctx.Registry.FindClientByName(candidate); c != nil {
			recipient = c
			textStart = end
			break
		}
	}
	if recipient == nil {
		return
	}

	if !checkMessage(ctx, sender, true) {
		return
	}

	text := strings.Join(fields[textStart:], " ")
	ctx.Outbound.Send(recipient.ID, wire.RelayedChat{
		Sender: sender.Name, IsPrivate: true, Message: text,
	})
}

// cmdDropServer hides any server matching addr; port 0 matches any port
// on that host.
func cmdDropServer(ctx *Context, args []string) {
	if len(args) == 0 {
		return
	}
	target, err := netip.ParseAddrPort(args[0])
	matchAny := err != nil
	var targetAddr netip.Addr
	if !matchAny {
		targetAddr = target.Addr()
	} else if a, aerr := netip.ParseAddr(args[0]); aerr == nil {
		targetAddr = a
	} else {
		return
	}

	ctx.Registry.IterateServers(func(c *Connection) {
		if c.Addr.Addr() != targetAddr {
			return
		}
		if !matchAny && target.Port() != 0 && c.Addr.Port() != target.Port() {
			return
		}
		c.IsHiddenFromList = true
		ctx.Registry.MarkStatusDirty()
	})
}

func cmdRestoreServers(ctx *Context) {
	ctx.Registry.IterateServers(func(c *Connection) {
		if c.IsHiddenFromList {
			c.IsHiddenFromList = false
			ctx.Registry.MarkStatusDirty()
		}
	})
}

func cmdHidePlayer(ctx *Context, args []string) {
	if len(args) == 0 {
		return
	}
	name := strings.Join(args, " ")
	if c := ctx.Registry.FindClientByName(name); c != nil {
		c.IsHiddenFromList = !c.IsHiddenFromList
	}
}

func cmdHideIP(ctx *Context, args []string) {
	if len(args) == 0 {
		return
	}
	addr, err := netip.ParseAddr(args[0])
	if err != nil {
		return
	}
	ctx.HiddenIPs[addr.String()] = struct{}{}

	ctx.Registry.IterateClients(func(c *Connection) {
		if c.Addr.Addr() == addr {
			c.IsHiddenFromList = true
			if c.IsInGlobalChat {
				c.IsInGlobalChat = false
				delete(ctx.pendingLeaveChat, c.ID)
				c.LeaveChatTimer = nil
				broadcastGlobalChat(ctx, c.ID, wire.PlayerLeftGlobalChat{Name: c.Name})
			}
		}
	})
}

func cmdUnhideIPs(ctx *Context) {
	for k := range ctx.HiddenIPs {
		delete(ctx.HiddenIPs, k)
	}
}
