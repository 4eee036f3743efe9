package master

import (
	"context"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/bitfighter-go/masterd/internal/config"
	"github.com/bitfighter-go/masterd/internal/transport"
	"github.com/bitfighter-go/masterd/internal/wire"
)

// loopInterval is the main loop's suspension point between work bursts.
const loopInterval = 5 * time.Millisecond

// inboundQueueSize bounds how many frames (and, separately, how many
// closed-connection notices) all reader goroutines together may have
// buffered ahead of the dispatch loop before their sends block.
const inboundQueueSize = 64

type inboundFrame struct {
	id      ConnID
	payload []byte
}

// connectAttempt carries a just-accepted connection's handshake request
// from its reader goroutine onto the dispatch loop, which alone is
// allowed to touch the Registry. result reports whether the connection
// should proceed to normal frame dispatch.
type connectAttempt struct {
	id     ConnID
	addr   netip.AddrPort
	req    wire.ConnectRequest
	result chan bool
}

type connEntry struct {
	id   ConnID
	conn *transport.Conn
	addr netip.AddrPort
}

// Server drives the single-goroutine dispatch loop: it owns the Context,
// accepts connections, reads frames from each into a shared inbound
// channel, dispatches them on the loop goroutine, and periodically sweeps
// timers, drains the worker queue, and emits the status file.
type Server struct {
	ctx      *Context
	listener *transport.Listener
	status   *StatusEmitter

	mu    sync.Mutex
	conns map[ConnID]*connEntry

	inbound chan inboundFrame
	closed  chan ConnID
	connect chan connectAttempt
}

// NewServer wires a Server from its collaborators. cfg.StatusFilePath may
// be empty to disable status emission.
func NewServer(cfg config.Master, clock Clock, creds CredentialVerifier, stats StatsStore, ln *transport.Listener) *Server {
	s := &Server{
		listener: ln,
		status:   NewStatusEmitter(cfg.StatusFilePath),
		conns:    make(map[ConnID]*connEntry),
		inbound:  make(chan inboundFrame, inboundQueueSize),
		closed:   make(chan ConnID, inboundQueueSize),
		connect:  make(chan connectAttempt),
	}
	s.ctx = NewContext(cfg, clock, creds, stats, s)
	return s
}

// Send implements Outbound by looking up the live connection and writing
// a frame; a missing or already-closed connection is a silent no-op.
func (s *Server) Send(id ConnID, msg wire.Message) {
	s.mu.Lock()
	entry, ok := s.conns[id]
	s.mu.Unlock()
	if !ok {
		return
	}
	if err := entry.conn.WriteFrame(wire.Encode(msg)); err != nil {
		slog.Warn("writing frame failed", "conn", id, "error", err)
	}
}

// Disconnect implements Outbound: closes the transport connection and
// unlinks it from the registry, logging reason.
func (s *Server) Disconnect(id ConnID, reason DisconnectReason) {
	s.mu.Lock()
	entry, ok := s.conns[id]
	if ok {
		delete(s.conns, id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	slog.Info("disconnecting connection", "conn", id, "reason", reason)
	entry.conn.Close()
	if c, ok := s.ctx.Registry.Lookup(id); ok {
		s.ctx.Registry.Unlink(c)
	}
}

// Run accepts connections and drives the dispatch loop until ctx is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	acceptErrs := make(chan error, 1)
	go func() {
		acceptErrs <- s.acceptLoop(ctx)
	}()

	ticker := time.NewTicker(loopInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.ctx.Worker.Stop()
			return ctx.Err()
		case err := <-acceptErrs:
			s.ctx.Worker.Stop()
			return err
		case frame := <-s.inbound:
			s.dispatch(frame.id, frame.payload)
		case id := <-s.closed:
			s.handleDisconnect(id)
		case attempt := <-s.connect:
			attempt.result <- HandleConnectRequest(s.ctx, attempt.id, attempt.addr, attempt.req)
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

func (s *Server) tick(now time.Time) {
	SweepRendezvousTimeouts(s.ctx)
	TickGlobalChatLeaves(s.ctx, loopInterval)
	s.ctx.Worker.Drain(s.ctx)
	s.status.Tick(s.ctx, now)
}

func (s *Server) acceptLoop(ctx context.Context) error {
	for {
		raw, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		// Ids are allocated here, on the single accept goroutine, so that
		// concurrent reader goroutines never touch the Context counter.
		go s.handleConn(ctx, s.ctx.NextConnID(), transport.NewConn(raw, nil))
	}
}

func (s *Server) handleConn(ctx context.Context, id ConnID, raw *transport.Conn) {
	addrPort, err := netip.ParseAddrPort(raw.RemoteAddr().String())
	if err != nil {
		slog.Warn("parsing remote address failed", "addr", raw.RemoteAddr(), "error", err)
	}

	s.mu.Lock()
	s.conns[id] = &connEntry{id: id, conn: raw, addr: addrPort}
	s.mu.Unlock()

	defer func() {
		raw.Close()
		select {
		case s.closed <- id:
		case <-ctx.Done():
		}
	}()

	first, err := raw.ReadFrame()
	if err != nil {
		return
	}
	msg, err := wire.Decode(first)
	if err != nil {
		return
	}
	req, ok := msg.(wire.ConnectRequest)
	if !ok {
		return
	}

	result := make(chan bool, 1)
	select {
	case s.connect <- connectAttempt{id: id, addr: addrPort, req: req, result: result}:
	case <-ctx.Done():
		return
	}
	select {
	case ok := <-result:
		if !ok {
			return
		}
	case <-ctx.Done():
		return
	}

	for {
		payload, err := raw.ReadFrame()
		if err != nil {
			return
		}
		select {
		case s.inbound <- inboundFrame{id: id, payload: payload}:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) handleDisconnect(id ConnID) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
	if c, ok := s.ctx.Registry.Lookup(id); ok {
		s.ctx.Registry.Unlink(c)
	}
}

// dispatch decodes one frame and routes it to the matching handler. An
// unrecognized or malformed frame is logged and dropped; it never tears
// down the dispatcher.
func (s *Server) dispatch(id ConnID, payload []byte) {
	msg, err := wire.Decode(payload)
	if err != nil {
		slog.Warn("decoding frame failed", "conn", id, "error", err)
		return
	}

	ctx := s.ctx
	switch m := msg.(type) {
	case wire.QueryServers:
		HandleQueryServers(ctx, id, m.QueryID)
	case wire.UpdateServerStatus:
		HandleUpdateServerStatus(ctx, id, m)
	case wire.ChangeServerName:
		HandleChangeName(ctx, id, m.Name)
	case wire.ServerDescriptionUpdate:
		HandleServerDescription(ctx, id, m.Description)
	case wire.RequestArrangedConnection:
		HandleRequestArrangedConnection(ctx, id, m)
	case wire.AcceptArrangedConnection:
		HandleAcceptArrangedConnection(ctx, id, m)
	case wire.RejectArrangedConnection:
		HandleRejectArrangedConnection(ctx, id, m)
	case wire.SendChat:
		SendChat(ctx, id, m.Message)
	case wire.JoinGlobalChat:
		JoinGlobalChat(ctx, id)
	case wire.LeaveGlobalChat:
		LeaveGlobalChat(ctx, id)
	case wire.SendStatistics:
		SendStatistics(ctx, id, m.GameStats)
	case wire.SendLevelInfo:
		SendLevelInfo(ctx, id, m)
	case wire.RequestHighScores:
		ctx.HighScores.RequestHighScores(ctx, id, defaultScoresPerGroup)
	case wire.RequestAuthentication:
		HandleRequestAuthentication(ctx, id, m.Nonce, m.Name)
	case wire.AchievementAchieved:
		SubmitAchievement(ctx, id, m.AchievementID, m.PlayerNick)
	default:
		slog.Warn("unhandled message kind", "conn", id, "type", m)
	}
}
