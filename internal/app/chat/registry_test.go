package chat

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"bilanchat/internal/app/user"
)

func newTestClient(reg *Registry, identity user.User) *Client {
	return NewClient(nil, identity, reg, nil)
}

func connIDs(clients []*Client) map[uuid.UUID]bool {
	ids := make(map[uuid.UUID]bool, len(clients))
	for _, c := range clients {
		ids[c.ID()] = true
	}
	return ids
}

func TestRegistry_TracksConnectionsPerUser(t *testing.T) {
	reg := NewRegistry()

	alice := user.User{ID: 1, Role: user.RoleClient}
	bob := user.User{ID: 2, Role: user.RoleConsultant}

	a1 := newTestClient(reg, alice)
	a2 := newTestClient(reg, alice)
	b1 := newTestClient(reg, bob)

	reg.Register(a1)
	reg.Register(a2)
	reg.Register(b1)

	require.Equal(t, map[uuid.UUID]bool{a1.ID(): true, a2.ID(): true}, connIDs(reg.ConnectionsFor(1)))
	require.Equal(t, map[uuid.UUID]bool{b1.ID(): true}, connIDs(reg.ConnectionsFor(2)))
	require.Empty(t, reg.ConnectionsFor(3))

	reg.Deregister(a1)

	require.Equal(t, map[uuid.UUID]bool{a2.ID(): true}, connIDs(reg.ConnectionsFor(1)))
	require.Equal(t, 1, reg.ConnectionCount(1))

	reg.Deregister(a2)
	require.Empty(t, reg.ConnectionsFor(1))
}

func TestRegistry_ConsultantSet(t *testing.T) {
	reg := NewRegistry()

	client := newTestClient(reg, user.User{ID: 1, Role: user.RoleClient})
	consultant1 := newTestClient(reg, user.User{ID: 2, Role: user.RoleConsultant})
	consultant2 := newTestClient(reg, user.User{ID: 3, Role: user.RoleConsultant})

	reg.Register(client)
	reg.Register(consultant1)
	reg.Register(consultant2)

	online := connIDs(reg.OnlineConsultants())
	require.Equal(t, map[uuid.UUID]bool{consultant1.ID(): true, consultant2.ID(): true}, online)

	reg.Deregister(consultant1)

	online = connIDs(reg.OnlineConsultants())
	require.Equal(t, map[uuid.UUID]bool{consultant2.ID(): true}, online)
}

func TestRegistry_RegisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	c := newTestClient(reg, user.User{ID: 1, Role: user.RoleConsultant})

	reg.Register(c)
	reg.Register(c)

	require.Equal(t, 1, reg.ConnectionCount(1))
	require.Len(t, reg.OnlineConsultants(), 1)
}

func TestRegistry_DeregisterIsIdempotent(t *testing.T) {
	reg := NewRegistry()

	c := newTestClient(reg, user.User{ID: 1, Role: user.RoleConsultant})
	never := newTestClient(reg, user.User{ID: 9, Role: user.RoleClient})

	reg.Register(c)

	reg.Deregister(c)
	reg.Deregister(c)
	reg.Deregister(never)

	require.Empty(t, reg.ConnectionsFor(1))
	require.Empty(t, reg.ConnectionsFor(9))
	require.Empty(t, reg.OnlineConsultants())
}

func TestRegistry_ConcurrentRegisterDeregister(t *testing.T) {
	reg := NewRegistry()

	const perUser = 20

	var wg sync.WaitGroup
	for userID := int64(1); userID <= 4; userID++ {
		for i := 0; i < perUser; i++ {
			identity := user.User{ID: userID, Role: user.RoleConsultant}

			wg.Add(1)
			go func() {
				defer wg.Done()

				c := newTestClient(reg, identity)
				reg.Register(c)
				_ = reg.ConnectionsFor(identity.ID)
				_ = reg.OnlineConsultants()
				reg.Deregister(c)
			}()
		}
	}
	wg.Wait()

	for userID := int64(1); userID <= 4; userID++ {
		require.Empty(t, reg.ConnectionsFor(userID))
	}
	require.Empty(t, reg.OnlineConsultants())
}
