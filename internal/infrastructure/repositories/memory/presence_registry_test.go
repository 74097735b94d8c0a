package memory

import (
	"sync"
	"testing"

	"streamcast/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublisher(username string) *domain.User {
	return &domain.User{
		ID:       domain.UserID("user-" + username),
		Username: username,
		Nickname: username,
		Role:     domain.RoleStreamer,
	}
}

func TestStartSession_FirstPublisherWins(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")

	session, err := registry.StartSession(path, testPublisher("alice"))
	require.NoError(t, err)
	assert.Equal(t, path, session.Path)
	assert.Equal(t, "alice", session.Streamer.Username)
	assert.NotEmpty(t, session.ID)

	_, err = registry.StartSession(path, testPublisher("mallory"))
	assert.ErrorIs(t, err, domain.ErrAlreadyLive)

	// The original session survives the rejected attempt
	assert.True(t, registry.IsLive(path))
	live := registry.ListLive()
	require.Len(t, live, 1)
	assert.Equal(t, "alice", live[0].Streamer.Username)
}

func TestStartSession_ConcurrentSamePath(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")

	const attempts = 50
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = registry.StartSession(path, testPublisher("alice"))
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyLive)
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestEndSession_AbsorbsStaleStops(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")

	assert.False(t, registry.EndSession(path))

	_, err := registry.StartSession(path, testPublisher("alice"))
	require.NoError(t, err)

	assert.True(t, registry.EndSession(path))
	assert.False(t, registry.EndSession(path))
	assert.False(t, registry.IsLive(path))
}

func TestSessionRestartAfterEnd(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")

	first, err := registry.StartSession(path, testPublisher("alice"))
	require.NoError(t, err)
	registry.EndSession(path)

	second, err := registry.StartSession(path, testPublisher("alice"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestJoin_Idempotent(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")
	conn := domain.ConnectionID("conn-1")

	assert.Equal(t, 1, registry.Join(path, conn))
	assert.Equal(t, 1, registry.Join(path, conn))
	assert.Equal(t, 1, registry.ViewerCount(path))
}

func TestLeave_Idempotent(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")
	conn := domain.ConnectionID("conn-1")

	registry.Join(path, conn)
	assert.Equal(t, 0, registry.Leave(path, conn))
	assert.Equal(t, 0, registry.Leave(path, conn))
	assert.Equal(t, 0, registry.ViewerCount(path))
}

func TestJoin_MovesConnectionBetweenPaths(t *testing.T) {
	registry := NewPresenceRegistry()
	first := domain.StreamPath("live/abc")
	second := domain.StreamPath("live/def")
	conn := domain.ConnectionID("conn-1")

	registry.Join(first, conn)

	// Joining elsewhere implicitly leaves the old set, never two at once
	assert.Equal(t, 1, registry.Join(second, conn))
	assert.Equal(t, 0, registry.ViewerCount(first))
	assert.Equal(t, 1, registry.ViewerCount(second))
}

func TestMoveConnection(t *testing.T) {
	registry := NewPresenceRegistry()
	from := domain.StreamPath("live/abc")
	to := domain.StreamPath("live/def")

	registry.Join(from, "conn-1")
	registry.Join(from, "conn-2")

	fromCount, toCount := registry.MoveConnection(from, to, "conn-1")
	assert.Equal(t, 1, fromCount)
	assert.Equal(t, 1, toCount)

	// Empty from means plain join
	fromCount, toCount = registry.MoveConnection("", to, "conn-3")
	assert.Equal(t, 0, fromCount)
	assert.Equal(t, 2, toCount)
}

func TestViewerCount_IndependentOfLiveness(t *testing.T) {
	registry := NewPresenceRegistry()
	path := domain.StreamPath("live/abc")

	// Viewers can gather in a room before the stream goes live
	registry.Join(path, "conn-1")
	registry.Join(path, "conn-2")
	assert.False(t, registry.IsLive(path))
	assert.Equal(t, 2, registry.ViewerCount(path))

	_, err := registry.StartSession(path, testPublisher("alice"))
	require.NoError(t, err)

	live := registry.ListLive()
	require.Len(t, live, 1)
	assert.Equal(t, 2, live[0].Viewers)

	// Ending the session does not evict the room
	registry.EndSession(path)
	assert.Equal(t, 2, registry.ViewerCount(path))
}

func TestListLive_Empty(t *testing.T) {
	registry := NewPresenceRegistry()
	assert.Empty(t, registry.ListLive())
}
