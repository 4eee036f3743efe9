package master

import (
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
)

// leaveChatDebounce is the grace period a leave must survive before the
// broadcast actually fires.
const leaveChatDebounce = 1000 * time.Millisecond

// JoinGlobalChat replies with the current joined roster, cancels any
// pending leave, and broadcasts the join — unless the client is hidden,
// or already joined.
func JoinGlobalChat(ctx *Context, id ConnID) {
	conn, ok := ctx.Registry.Lookup(id)
	if !ok || conn.Role != RoleClient {
		return
	}

	var others []string
	ctx.Registry.IterateClients(func(c *Connection) {
		if c.ID != id && c.IsInGlobalChat {
			others = append(others, c.Name)
		}
	})
	ctx.Outbound.Send(id, wire.GlobalChatRoster{Names: others})

	if conn.IsHiddenFromList {
		return
	}

	delete(ctx.pendingLeaveChat, id)
	conn.LeaveChatTimer = nil

	if conn.IsInGlobalChat {
		return
	}

	conn.IsInGlobalChat = true
	broadcastGlobalChat(ctx, id, wire.PlayerJoinedGlobalChat{Name: conn.Name})
}

func broadcastGlobalChat(ctx *Context, excludeID ConnID, msg wire.Message) {
	ctx.Registry.IterateClients(func(c *Connection) {
		if c.ID != excludeID && c.IsInGlobalChat {
			ctx.Outbound.Send(c.ID, msg)
		}
	})
}

// LeaveGlobalChat arms a debounce timer rather than leaving immediately.
// The timer is a countdown advanced by TickGlobalChatLeaves once per loop
// tick; the original's "-20ms" adjustment for non-monotonic clocks is
// dropped (see RealClock).
func LeaveGlobalChat(ctx *Context, id ConnID) {
	conn, ok := ctx.Registry.Lookup(id)
	if !ok || conn.Role != RoleClient || !conn.IsInGlobalChat {
		return
	}
	conn.LeaveChatTimer = NewTimer(leaveChatDebounce)
	ctx.pendingLeaveChat[id] = struct{}{}
}

// TickGlobalChatLeaves advances every pending leave-chat timer by delta
// and fires the ones that expire, called once per main-loop iteration.
// A rejoin within the window (JoinGlobalChat clears LeaveChatTimer and
// removes id from pendingLeaveChat) cancels the pending leave entirely.
func TickGlobalChatLeaves(ctx *Context, delta time.Duration) {
	for id := range ctx.pendingLeaveChat {
		conn, ok := ctx.Registry.Lookup(id)
		if !ok {
			delete(ctx.pendingLeaveChat, id)
			continue
		}
		if conn.LeaveChatTimer == nil || conn.LeaveChatTimer.Update(delta) {
			delete(ctx.pendingLeaveChat, id)
			conn.IsInGlobalChat = false
			conn.LeaveChatTimer = nil
			broadcastGlobalChat(ctx, id, wire.PlayerLeftGlobalChat{Name: conn.Name})
		}
	}
}
