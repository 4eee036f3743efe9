package master

import (
	"net/netip"
	"time"
)

// rendezvousTimeout is how long a ConnectRequest may sit unanswered before
// the main loop expires it.
const rendezvousTimeout = 5000 * time.Millisecond

// ConnectRequest is the ephemeral triad record for one in-flight rendezvous
// arrangement, cross-referenced from the global table, the initiator, and
// the host simultaneously. Initiator and host are held as
// ConnIDs rather than pointers — a dead id simply fails the registry
// lookup at resolution time, which is this package's weak-reference idiom.
type ConnectRequest struct {
	HostQueryID      uint64
	InitiatorQueryID uint64
	Initiator        ConnID
	Host             ConnID
	RequestTime      time.Time
}

// RendezvousTable is the global pending-request index plus the two
// secondary indexes (by initiator, by host) a ConnectRequest must appear
// in simultaneously. All three are kept in sync
// by Add/Remove so that removal is a single step.
type RendezvousTable struct {
	nextHostQueryID uint64

	byHostQueryID map[uint64]*ConnectRequest
	byInitiator   map[ConnID][]*ConnectRequest
	byHost        map[ConnID][]*ConnectRequest
}

// NewRendezvousTable creates an empty RendezvousTable.
func NewRendezvousTable() *RendezvousTable {
	return &RendezvousTable{
		byHostQueryID: make(map[uint64]*ConnectRequest),
		byInitiator:   make(map[ConnID][]*ConnectRequest),
		byHost:        make(map[ConnID][]*ConnectRequest),
	}
}

// Add creates and indexes a new ConnectRequest with a fresh, monotonically
// increasing HostQueryID.
func (t *RendezvousTable) Add(initiator, host ConnID, initiatorQueryID uint64, now time.Time) *ConnectRequest {
	t.nextHostQueryID++
	req := &ConnectRequest{
		HostQueryID:      t.nextHostQueryID,
		InitiatorQueryID: initiatorQueryID,
		Initiator:        initiator,
		Host:             host,
		RequestTime:      now,
	}
	t.byHostQueryID[req.HostQueryID] = req
	t.byInitiator[initiator] = append(t.byInitiator[initiator], req)
	t.byHost[host] = append(t.byHost[host], req)
	return req
}

// FindByHostQueryID looks up a request by the id the host was given.
func (t *RendezvousTable) FindByHostQueryID(id uint64) (*ConnectRequest, bool) {
	req, ok := t.byHostQueryID[id]
	return req, ok
}

// Remove deletes req from all three indexes.
func (t *RendezvousTable) Remove(req *ConnectRequest) {
	delete(t.byHostQueryID, req.HostQueryID)
	t.byInitiator[req.Initiator] = removeReq(t.byInitiator[req.Initiator], req)
	if len(t.byInitiator[req.Initiator]) == 0 {
		delete(t.byInitiator, req.Initiator)
	}
	t.byHost[req.Host] = removeReq(t.byHost[req.Host], req)
	if len(t.byHost[req.Host]) == 0 {
		delete(t.byHost, req.Host)
	}
}

func removeReq(reqs []*ConnectRequest, target *ConnectRequest) []*ConnectRequest {
	for i, r := range reqs {
		if r == target {
			return append(reqs[:i], reqs[i+1:]...)
		}
	}
	return reqs
}

// SweepExpired removes and returns every request older than
// rendezvousTimeout as of now, for the caller to notify and discard.
func (t *RendezvousTable) SweepExpired(now time.Time) []*ConnectRequest {
	var expired []*ConnectRequest
	for _, req := range t.byHostQueryID {
		if now.Sub(req.RequestTime) >= rendezvousTimeout {
			expired = append(expired, req)
		}
	}
	for _, req := range expired {
		t.Remove(req)
	}
	return expired
}

// Len returns the number of live requests, for tests.
func (t *RendezvousTable) Len() int { return len(t.byHostQueryID) }

// CandidateAddresses computes up to three candidate addresses a peer
// should try: apparent address with port+1, with the original port, and —
// if internalAddr is valid and differs from
// apparent — internalAddr itself. Used symmetrically for both the
// initiator's candidates (computed from the host side) and the host's
// candidates (computed from the initiator side).
func CandidateAddresses(apparent, internalAddr netip.AddrPort) []netip.AddrPort {
	candidates := make([]netip.AddrPort, 0, 3)

	if apparent.IsValid() {
		nextPort := apparent.Port()
		if nextPort != 65535 {
			nextPort++
		}
		candidates = append(candidates, netip.AddrPortFrom(apparent.Addr(), nextPort))
		candidates = append(candidates, apparent)
	}

	if internalAddr.IsValid() && internalAddr != apparent {
		candidates = append(candidates, internalAddr)
	}

	return candidates
}
