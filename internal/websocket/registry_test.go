package websocket

import (
	"sync"
	"testing"

	"github.com/dom/shared-lists/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	connID, userID := uuid.New(), uuid.New()

	require.NoError(t, r.Register(connID, userID))
	assert.ErrorIs(t, r.Register(connID, userID), ErrConnectionExists)

	got, ok := r.UserOf(connID)
	require.True(t, ok)
	assert.Equal(t, userID, got)
	assert.Equal(t, 1, r.ConnectionCount())
}

func TestRegistry_SubscribeUnsubscribe(t *testing.T) {
	r := NewRegistry()
	connID := uuid.New()
	room := domain.ListRoom(42)

	_, err := r.Subscribe(connID, room)
	assert.ErrorIs(t, err, ErrConnectionNotFound, "unregistered connections cannot join rooms")
	assert.Empty(t, r.MembersOf(room))

	require.NoError(t, r.Register(connID, uuid.New()))

	added, err := r.Subscribe(connID, room)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = r.Subscribe(connID, room)
	require.NoError(t, err)
	assert.False(t, added, "subscribing twice is a no-op")
	assert.Equal(t, []uuid.UUID{connID}, r.MembersOf(room))

	assert.True(t, r.Unsubscribe(connID, room))
	assert.False(t, r.Unsubscribe(connID, room))
	assert.False(t, r.Unsubscribe(uuid.New(), room))
	assert.Empty(t, r.MembersOf(room))
	assert.Equal(t, 0, r.RoomCount(), "empty rooms are dropped")
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry()
	a, b := uuid.New(), uuid.New()
	require.NoError(t, r.Register(a, uuid.New()))
	require.NoError(t, r.Register(b, uuid.New()))

	for _, listID := range []uint{7, 3, 5} {
		_, err := r.Subscribe(a, domain.ListRoom(listID))
		require.NoError(t, err)
	}
	_, err := r.Subscribe(b, domain.ListRoom(3))
	require.NoError(t, err)

	assert.Equal(t, []domain.RoomID{3, 5, 7}, r.RoomsOf(a))

	rooms := r.Unregister(a)
	assert.Equal(t, []domain.RoomID{3, 5, 7}, rooms)
	assert.Nil(t, r.Unregister(a), "unregistering twice is a no-op")

	assert.Equal(t, []uuid.UUID{b}, r.MembersOf(domain.ListRoom(3)))
	assert.Empty(t, r.MembersOf(domain.ListRoom(5)))
	assert.Equal(t, 1, r.RoomCount())
	assert.Equal(t, 1, r.ConnectionCount())

	_, ok := r.UserOf(a)
	assert.False(t, ok)
}

func TestRegistry_MembersOfIsSnapshot(t *testing.T) {
	r := NewRegistry()
	room := domain.ListRoom(1)
	a := uuid.New()
	require.NoError(t, r.Register(a, uuid.New()))
	_, err := r.Subscribe(a, room)
	require.NoError(t, err)

	members := r.MembersOf(room)
	r.Unregister(a)

	assert.Equal(t, []uuid.UUID{a}, members)
	assert.Empty(t, r.MembersOf(room))
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	room := domain.ListRoom(1)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			connID := uuid.New()
			if err := r.Register(connID, uuid.New()); err != nil {
				t.Error(err)
				return
			}
			if _, err := r.Subscribe(connID, room); err != nil {
				t.Error(err)
			}
			_ = r.MembersOf(room)
			if i%2 == 0 {
				r.Unregister(connID)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.MembersOf(room), n/2)
	assert.Equal(t, n/2, r.ConnectionCount())
}
