/*
Package chat contains the real-time message dispatch core.

This file defines the Registry, the process-wide in-memory table of live
authenticated connections. It maps each user id to that user's open
connections and separately tracks the connections held by consultants, so
the dispatcher can resolve delivery targets without touching storage.
*/
package chat

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bilanchat/internal/app/user"
	"bilanchat/internal/pkg/logx"
)

// Registry tracks the open, authenticated connections of every user.
// It holds no persistent state: a process restart drops all entries and
// clients must reconnect and re-authenticate.
//
// Invariant: a connection id appears in byUser iff that connection is open
// and bound to that user, and in consultants iff it is additionally bound to
// a consultant-role identity. Only connection lifecycle code mutates the
// registry; the dispatcher only reads it.
type Registry struct {
	// mu guards both maps so reads never observe a partial update.
	mu sync.RWMutex

	// byUser maps a user id to that user's connections, keyed by connection id.
	byUser map[int64]map[uuid.UUID]*Client

	// consultants holds every connection bound to a consultant identity.
	consultants map[uuid.UUID]*Client

	logger zerolog.Logger
}

// NewRegistry constructs an empty Registry. The registry is created once at
// startup and handed to the lifecycle and dispatch code; there is no ambient
// global instance.
func NewRegistry() *Registry {
	return &Registry{
		byUser:      make(map[int64]map[uuid.UUID]*Client),
		consultants: make(map[uuid.UUID]*Client),
		logger:      logx.Logger().With().Str("component", "registry").Logger(),
	}
}

// Register records c as an open connection of its bound user.
// Registering the same connection twice is a no-op.
func (reg *Registry) Register(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conns, ok := reg.byUser[c.user.ID]
	if !ok {
		conns = make(map[uuid.UUID]*Client)
		reg.byUser[c.user.ID] = conns
	}
	conns[c.id] = c

	if c.user.Role == user.RoleConsultant {
		reg.consultants[c.id] = c
	}

	reg.logger.Info().
		Str("conn_id", c.id.String()).
		Int64("user_id", c.user.ID).
		Str("role", c.user.Role).
		Int("user_connections", len(conns)).
		Msg("Connection registered.")
}

// Deregister removes c from the registry. It is idempotent: deregistering a
// connection twice, or one that was never registered, changes nothing.
func (reg *Registry) Deregister(c *Client) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conns, ok := reg.byUser[c.user.ID]
	if ok {
		if _, tracked := conns[c.id]; tracked {
			delete(conns, c.id)
			if len(conns) == 0 {
				delete(reg.byUser, c.user.ID)
			}

			reg.logger.Info().
				Str("conn_id", c.id.String()).
				Int64("user_id", c.user.ID).
				Int("user_connections", len(conns)).
				Msg("Connection deregistered.")
		}
	}

	delete(reg.consultants, c.id)
}

// ConnectionsFor returns a snapshot of the user's current open connections.
// The returned slice is safe to iterate without holding any lock.
func (reg *Registry) ConnectionsFor(userID int64) []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	conns := reg.byUser[userID]
	if len(conns) == 0 {
		return nil
	}

	snapshot := make([]*Client, 0, len(conns))
	for _, c := range conns {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// OnlineConsultants returns a snapshot of every connection currently bound
// to a consultant identity.
func (reg *Registry) OnlineConsultants() []*Client {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	if len(reg.consultants) == 0 {
		return nil
	}

	snapshot := make([]*Client, 0, len(reg.consultants))
	for _, c := range reg.consultants {
		snapshot = append(snapshot, c)
	}
	return snapshot
}

// ConnectionCount returns the number of open connections for a user.
func (reg *Registry) ConnectionCount(userID int64) int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.byUser[userID])
}

// Shutdown kicks every registered connection. Used during graceful server
// shutdown so write pumps terminate promptly.
func (reg *Registry) Shutdown() {
	reg.mu.Lock()
	clients := make([]*Client, 0)
	for _, conns := range reg.byUser {
		for _, c := range conns {
			clients = append(clients, c)
		}
	}
	reg.byUser = make(map[int64]map[uuid.UUID]*Client)
	reg.consultants = make(map[uuid.UUID]*Client)
	reg.mu.Unlock()

	for _, c := range clients {
		c.closeSend()
	}

	reg.logger.Info().Int("connections", len(clients)).Msg("Registry shutdown complete.")
}
