package memory

import (
	"sync"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"

	"github.com/google/uuid"
)

// PresenceRegistry is the single source of truth for live sessions and viewer
// sets. One mutex guards all state so every operation is linearizable; no
// operation blocks on anything but the lock.
type PresenceRegistry struct {
	mu       sync.Mutex
	sessions map[domain.StreamPath]*domain.StreamSession
	viewers  map[domain.StreamPath]map[domain.ConnectionID]struct{}
	// watching indexes each connection to the single path it watches,
	// which is what makes Join/Leave idempotent and keeps a connection
	// out of two sets at once.
	watching map[domain.ConnectionID]domain.StreamPath
}

func NewPresenceRegistry() ports.PresenceRegistry {
	return &PresenceRegistry{
		sessions: make(map[domain.StreamPath]*domain.StreamSession),
		viewers:  make(map[domain.StreamPath]map[domain.ConnectionID]struct{}),
		watching: make(map[domain.ConnectionID]domain.StreamPath),
	}
}

func (r *PresenceRegistry) StartSession(path domain.StreamPath, publisher *domain.User) (*domain.StreamSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, live := r.sessions[path]; live {
		return nil, domain.ErrAlreadyLive
	}

	session := &domain.StreamSession{
		ID:        domain.SessionID(uuid.New().String()),
		Path:      path,
		Publisher: publisher.ID,
		Streamer:  publisher.Profile(),
		StartedAt: time.Now(),
	}
	r.sessions[path] = session
	return session, nil
}

func (r *PresenceRegistry) EndSession(path domain.StreamPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, existed := r.sessions[path]
	delete(r.sessions, path)
	return existed
}

func (r *PresenceRegistry) IsLive(path domain.StreamPath) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, live := r.sessions[path]
	return live
}

func (r *PresenceRegistry) ListLive() []domain.LiveStream {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := make([]domain.LiveStream, 0, len(r.sessions))
	for path, session := range r.sessions {
		live = append(live, domain.LiveStream{
			Path:      path,
			Streamer:  session.Streamer,
			StartedAt: session.StartedAt,
			Viewers:   len(r.viewers[path]),
		})
	}
	return live
}

func (r *PresenceRegistry) Join(path domain.StreamPath, id domain.ConnectionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.join(path, id)
}

func (r *PresenceRegistry) Leave(path domain.StreamPath, id domain.ConnectionID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leave(path, id)
}

func (r *PresenceRegistry) MoveConnection(from, to domain.StreamPath, id domain.ConnectionID) (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fromCount := 0
	if from != "" {
		fromCount = r.leave(from, id)
	}
	toCount := r.join(to, id)
	return fromCount, toCount
}

func (r *PresenceRegistry) ViewerCount(path domain.StreamPath) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.viewers[path])
}

// join requires r.mu held. If the connection is already counted elsewhere it
// is moved, so it can never appear in two sets.
func (r *PresenceRegistry) join(path domain.StreamPath, id domain.ConnectionID) int {
	if current, ok := r.watching[id]; ok {
		if current == path {
			return len(r.viewers[path])
		}
		r.leave(current, id)
	}

	set, ok := r.viewers[path]
	if !ok {
		set = make(map[domain.ConnectionID]struct{})
		r.viewers[path] = set
	}
	set[id] = struct{}{}
	r.watching[id] = path
	return len(set)
}

// leave requires r.mu held. Duplicate leaves are no-ops; an emptied set is
// reclaimed so memory is bounded by currently watched paths.
func (r *PresenceRegistry) leave(path domain.StreamPath, id domain.ConnectionID) int {
	if r.watching[id] != path {
		return len(r.viewers[path])
	}

	delete(r.watching, id)
	set := r.viewers[path]
	delete(set, id)
	if len(set) == 0 {
		delete(r.viewers, path)
		return 0
	}
	return len(set)
}
