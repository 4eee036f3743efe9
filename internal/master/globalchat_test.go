package master

import (
	"testing"
	"time"

	"github.com/bitfighter-go/masterd/internal/wire"
	"github.com/stretchr/testify/require"
)

func linkedClient(mc *Context, id ConnID, name string) *Connection {
	conn := NewConnection(id, netipZero(), mc.Clock.Now())
	conn.Name = name
	mc.Registry.Link(conn, RoleClient)
	return conn
}

func TestJoinLeaveWithinDebounceProducesNoLeaveBroadcast(t *testing.T) {
	clock := newFakeClock()
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, nil, out)

	a := linkedClient(mc, 1, "Alice")
	b := linkedClient(mc, 2, "Bob")
	_ = a

	JoinGlobalChat(mc, 1)
	JoinGlobalChat(mc, 2)

	LeaveGlobalChat(mc, 2)
	clock.Advance(500 * time.Millisecond)
	TickGlobalChatLeaves(mc, 500*time.Millisecond)

	// Rejoin within the 1000ms window.
	JoinGlobalChat(mc, 2)
	clock.Advance(600 * time.Millisecond)
	TickGlobalChatLeaves(mc, 600*time.Millisecond)

	for _, msg := range out.messagesTo(1) {
		if _, ok := msg.(wire.PlayerLeftGlobalChat); ok {
			t.Fatalf("unexpected leave broadcast: %+v", msg)
		}
	}
	require.True(t, b.IsInGlobalChat)
}

func TestLeaveAfterDebounceBroadcasts(t *testing.T) {
	clock := newFakeClock()
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, nil, out)

	linkedClient(mc, 1, "Alice")
	b := linkedClient(mc, 2, "Bob")

	JoinGlobalChat(mc, 1)
	JoinGlobalChat(mc, 2)
	out.sent = nil

	LeaveGlobalChat(mc, 2)
	TickGlobalChatLeaves(mc, leaveChatDebounce+time.Millisecond)

	found := false
	for _, msg := range out.messagesTo(1) {
		if left, ok := msg.(wire.PlayerLeftGlobalChat); ok && left.Name == "Bob" {
			found = true
		}
	}
	require.True(t, found)
	require.False(t, b.IsInGlobalChat)
}

func TestJoinHiddenClientGetsRosterButNoBroadcast(t *testing.T) {
	clock := newFakeClock()
	out := &fakeOutbound{}
	mc := newTestContext(clock, nil, nil, out)

	a := linkedClient(mc, 1, "Alice")
	a.IsHiddenFromList = true
	linkedClient(mc, 2, "Bob")

	JoinGlobalChat(mc, 1)
	require.False(t, a.IsInGlobalChat)

	rosterMsgs := out.messagesTo(1)
	require.Len(t, rosterMsgs, 1)
	_, ok := rosterMsgs[0].(wire.GlobalChatRoster)
	require.True(t, ok)
}
