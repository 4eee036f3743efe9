package master

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRendezvousTableAddIndexesAllThreeWays(t *testing.T) {
	tbl := NewRendezvousTable()
	now := time.Unix(1700000000, 0)

	req := tbl.Add(1, 2, 99, now)
	require.Equal(t, uint64(1), req.HostQueryID, "first Add gets HostQueryID 1")

	got, ok := tbl.FindByHostQueryID(req.HostQueryID)
	require.True(t, ok)
	require.Same(t, req, got)
	require.Equal(t, 1, tbl.Len())
}

func TestRendezvousTableHostQueryIDsAreMonotonic(t *testing.T) {
	tbl := NewRendezvousTable()
	now := time.Unix(1700000000, 0)

	a := tbl.Add(1, 2, 10, now)
	b := tbl.Add(3, 4, 11, now)
	require.Less(t, a.HostQueryID, b.HostQueryID)
}

func TestRendezvousTableRemoveClearsAllIndexes(t *testing.T) {
	tbl := NewRendezvousTable()
	now := time.Unix(1700000000, 0)
	req := tbl.Add(1, 2, 10, now)

	tbl.Remove(req)

	_, ok := tbl.FindByHostQueryID(req.HostQueryID)
	require.False(t, ok)
	require.Equal(t, 0, tbl.Len())
}

func TestRendezvousTableSweepExpiredRemovesOnlyStaleRequests(t *testing.T) {
	tbl := NewRendezvousTable()
	start := time.Unix(1700000000, 0)

	stale := tbl.Add(1, 2, 10, start)
	fresh := tbl.Add(3, 4, 11, start.Add(rendezvousTimeout-time.Millisecond))

	expired := tbl.SweepExpired(start.Add(rendezvousTimeout))
	require.Len(t, expired, 1)
	require.Same(t, stale, expired[0])

	_, ok := tbl.FindByHostQueryID(fresh.HostQueryID)
	require.True(t, ok, "a request younger than rendezvousTimeout must survive the sweep")
	require.Equal(t, 1, tbl.Len())
}

func TestCandidateAddressesIncludesInternalWhenDistinct(t *testing.T) {
	apparent := netip.MustParseAddrPort("1.2.3.4:28000")
	internal := netip.MustParseAddrPort("192.168.1.5:28000")

	got := CandidateAddresses(apparent, internal)
	require.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("1.2.3.4:28001"),
		apparent,
		internal,
	}, got)
}

func TestCandidateAddressesOmitsInternalWhenEqualToApparent(t *testing.T) {
	apparent := netip.MustParseAddrPort("1.2.3.4:28000")

	got := CandidateAddresses(apparent, apparent)
	require.Equal(t, []netip.AddrPort{
		netip.MustParseAddrPort("1.2.3.4:28001"),
		apparent,
	}, got)
}

func TestCandidateAddressesHandlesMaxPortWithoutOverflow(t *testing.T) {
	apparent := netip.MustParseAddrPort("1.2.3.4:65535")

	got := CandidateAddresses(apparent, netip.AddrPort{})
	require.Equal(t, []netip.AddrPort{apparent, apparent}, got)
}

func TestCandidateAddressesEmptyWhenApparentInvalid(t *testing.T) {
	got := CandidateAddresses(netip.AddrPort{}, netip.AddrPort{})
	require.Empty(t, got)
}
