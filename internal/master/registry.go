package master

import "strings"

// Registry owns the live set of connections: the server list and the
// client list. It runs entirely on the dispatch loop goroutine, so there
// is no internal locking — single-goroutine ownership stands in for the
// original's single-main-thread design instead of mutexes.
//
// Iteration order is insertion order (a plain slice of ids alongside a map
// for O(1) lookup), which is not semantically meaningful except that it
// makes tests deterministic.
type Registry struct {
	servers     map[ConnID]*Connection
	clients     map[ConnID]*Connection
	serverIDs   []ConnID
	clientIDs   []ConnID
	statusDirty bool
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		servers: make(map[ConnID]*Connection),
		clients: make(map[ConnID]*Connection),
	}
}

// Link inserts conn into the list for role (Server or Client) and marks
// the status dirty. The registry itself rejects nothing — the dispatcher
// is responsible for pre-checks such as duplicate nonce.
func (r *Registry) Link(conn *Connection, role Role) {
	conn.Role = role
	switch role {
	case RoleServer:
		r.servers[conn.ID] = conn
		r.serverIDs = append(r.serverIDs, conn.ID)
	case RoleClient:
		r.clients[conn.ID] = conn
		r.clientIDs = append(r.clientIDs, conn.ID)
	}
	r.statusDirty = true
}

// Unlink removes conn from whichever list holds it. Safe to call during
// iteration of the *other* list (iteration here snapshots ids up front).
func (r *Registry) Unlink(conn *Connection) {
	switch conn.Role {
	case RoleServer:
		if _, ok := r.servers[conn.ID]; ok {
			delete(r.servers, conn.ID)
			r.serverIDs = removeID(r.serverIDs, conn.ID)
			r.statusDirty = true
		}
	case RoleClient:
		if _, ok := r.clients[conn.ID]; ok {
			delete(r.clients, conn.ID)
			r.clientIDs = removeID(r.clientIDs, conn.ID)
			r.statusDirty = true
		}
	}
	conn.Role = RoleNone
}

func removeID(ids []ConnID, target ConnID) []ConnID {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// IterateServers calls fn for every registered server, in insertion order.
// fn may not mutate the registry's server list during iteration.
func (r *Registry) IterateServers(fn func(*Connection)) {
	ids := make([]ConnID, len(r.serverIDs))
	copy(ids, r.serverIDs)
	for _, id := range ids {
		if c, ok := r.servers[id]; ok {
			fn(c)
		}
	}
}

// IterateClients calls fn for every registered client, in insertion order.
func (r *Registry) IterateClients(fn func(*Connection)) {
	ids := make([]ConnID, len(r.clientIDs))
	copy(ids, r.clientIDs)
	for _, id := range ids {
		if c, ok := r.clients[id]; ok {
			fn(c)
		}
	}
}

// Lookup returns the connection with the given id, checking both lists.
func (r *Registry) Lookup(id ConnID) (*Connection, bool) {
	if c, ok := r.clients[id]; ok {
		return c, true
	}
	if c, ok := r.servers[id]; ok {
		return c, true
	}
	return nil, false
}

// FindByNonce returns the unique client with PlayerID == nonce, or nil.
func (r *Registry) FindByNonce(nonce uint64) *Connection {
	for _, id := range r.clientIDs {
		if c, ok := r.clients[id]; ok && c.PlayerID == nonce {
			return c
		}
	}
	return nil
}

// FindClientByName returns the unique client whose Name matches name
// case-insensitively, or nil. Used for /pm routing.
func (r *Registry) FindClientByName(name string) *Connection {
	for _, id := range r.clientIDs {
		if c, ok := r.clients[id]; ok && strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}

// ServerCount returns the number of registered servers.
func (r *Registry) ServerCount() int { return len(r.serverIDs) }

// ClientCount returns the number of registered clients.
func (r *Registry) ClientCount() int { return len(r.clientIDs) }

// StatusDirty reports whether the registry changed since the last
// ClearStatusDirty call.
func (r *Registry) StatusDirty() bool { return r.statusDirty }

// ClearStatusDirty resets the dirty flag after a status snapshot is written.
func (r *Registry) ClearStatusDirty() { r.statusDirty = false }

// MarkStatusDirty forces the dirty flag, used when a field changes without
// a Link/Unlink (e.g. UpdateServerStatus, ChangeName).
func (r *Registry) MarkStatusDirty() { r.statusDirty = true }
