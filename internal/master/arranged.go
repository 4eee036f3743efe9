package master

import (
	"github.com/bitfighter-go/masterd/internal/wire"
)

// HandleRequestArrangedConnection implements the initiator side of the
// triad protocol: look up the target host by its apparent address; if
// absent, reply NoSuchHost without any flood strike. Otherwise create and
// index the ConnectRequest, compute the initiator's candidate addresses
// from its own apparent/internal address, forward the request to the
// host, and only then flood-check the initiator. A burst of requests
// against a real host can still disconnect it, but a burst against a
// nonexistent host never accrues a strike.
func HandleRequestArrangedConnection(ctx *Context, initiatorID ConnID, req wire.RequestArrangedConnection) {
	initiator, ok := ctx.Registry.Lookup(initiatorID)
	if !ok || initiator.Role != RoleClient {
		return
	}

	var host *Connection
	ctx.Registry.IterateServers(func(s *Connection) {
		if host == nil && s.Addr == req.RemoteAddress {
			host = s
		}
	})
	if host == nil {
		ctx.Outbound.Send(initiatorID, wire.ArrangedConnectionRejected{
			InitiatorQueryID: req.RequestID,
			Data:             string(ReasonNoSuchHost),
		})
		return
	}

	now := ctx.Clock.Now()
	candidates := CandidateAddresses(initiator.Addr, req.InternalAddress)
	creq := ctx.Rendezvous.Add(initiatorID, host.ID, req.RequestID, now)

	ctx.Outbound.Send(host.ID, wire.ClientRequestedArrangedConnection{
		HostQueryID:        creq.HostQueryID,
		CandidateAddresses: candidates,
		Params:             req.Params,
	})

	if !floodCheck(initiator, now, ctx.Flood.connectRequest) {
		ctx.Outbound.Disconnect(initiatorID, ReasonFloodControl)
	}
}

// HandleAcceptArrangedConnection resolves a pending request by
// hostQueryId and, if the initiator is still live, tells it which
// candidate addresses to try (computed from the host's own apparent
// address this time, symmetrically with the initiator side).
func HandleAcceptArrangedConnection(ctx *Context, hostID ConnID, msg wire.AcceptArrangedConnection) {
	req, ok := ctx.Rendezvous.FindByHostQueryID(msg.HostQueryID)
	if !ok || req.Host != hostID {
		return
	}
	ctx.Rendezvous.Remove(req)

	host, ok := ctx.Registry.Lookup(hostID)
	if !ok {
		return
	}

	if initiator, ok := ctx.Registry.Lookup(req.Initiator); ok {
		candidates := CandidateAddresses(host.Addr, msg.InternalAddress)
		ctx.Outbound.Send(initiator.ID, wire.ArrangedConnectionAccepted{
			InitiatorQueryID:   req.InitiatorQueryID,
			CandidateAddresses: candidates,
			Data:               msg.Data,
		})
	}
}

// HandleRejectArrangedConnection mirrors HandleAcceptArrangedConnection
// for the rejection path.
func HandleRejectArrangedConnection(ctx *Context, hostID ConnID, msg wire.RejectArrangedConnection) {
	req, ok := ctx.Rendezvous.FindByHostQueryID(msg.HostQueryID)
	if !ok || req.Host != hostID {
		return
	}
	ctx.Rendezvous.Remove(req)

	if initiator, ok := ctx.Registry.Lookup(req.Initiator); ok {
		ctx.Outbound.Send(initiator.ID, wire.ArrangedConnectionRejected{
			InitiatorQueryID: req.InitiatorQueryID,
			Data:             string(msg.Data),
		})
	}
}

// SweepRendezvousTimeouts expires any ConnectRequest older than
// rendezvousTimeout, notifying a still-live initiator with
// ReasonRequestTimedOut. Called once per main-loop tick.
func SweepRendezvousTimeouts(ctx *Context) {
	expired := ctx.Rendezvous.SweepExpired(ctx.Clock.Now())
	for _, req := range expired {
		if initiator, ok := ctx.Registry.Lookup(req.Initiator); ok {
			ctx.Outbound.Send(initiator.ID, wire.ArrangedConnectionRejected{
				InitiatorQueryID: req.InitiatorQueryID,
				Data:             string(ReasonRequestTimedOut),
			})
		}
	}
}
