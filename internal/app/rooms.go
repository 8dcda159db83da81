package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/core"
	"github.com/commverse/commverse/internal/domain"
)

type roomEntry struct {
	roster   core.Roster
	lastSeen time.Time
}

// RoomManagerImpl keeps the live room set. Rooms are created implicitly on
// first join, dropped as soon as their roster empties, and additionally
// evicted by the janitor once idle longer than the TTL.
type RoomManagerImpl struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomEntry
	ttl   time.Duration

	// onEvict lets the orchestrator kick remaining members before the
	// janitor forgets the room.
	onEvict func(id domain.RoomID)
}

func NewRoomManager(ttl time.Duration) *RoomManagerImpl {
	return &RoomManagerImpl{
		rooms: make(map[domain.RoomID]*roomEntry),
		ttl:   ttl,
	}
}

var _ core.RoomManager = (*RoomManagerImpl)(nil)

func (m *RoomManagerImpl) OnEvict(fn func(id domain.RoomID)) { m.onEvict = fn }

func (m *RoomManagerImpl) GetOrCreate(id domain.RoomID) core.Roster {
	m.mu.RLock()
	e, ok := m.rooms[id]
	m.mu.RUnlock()
	if ok {
		return e.roster
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok = m.rooms[id]; ok {
		return e.roster
	}
	roster := core.NewRoster(&domain.Room{ID: id})
	m.rooms[id] = &roomEntry{roster: roster, lastSeen: time.Now()}
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room created")
	return roster
}

func (m *RoomManagerImpl) Get(id domain.RoomID) (core.Roster, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.rooms[id]
	if !ok {
		return nil, false
	}
	return e.roster, true
}

func (m *RoomManagerImpl) DeleteIfEmpty(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rooms[id]
	if !ok || e.roster.MemberCount() > 0 {
		return false
	}
	delete(m.rooms, id)
	log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("room deleted")
	return true
}

func (m *RoomManagerImpl) List() []core.RoomInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]core.RoomInfo, 0, len(m.rooms))
	for id, e := range m.rooms {
		out = append(out, core.RoomInfo{ID: id, MemberCount: e.roster.MemberCount()})
	}
	return out
}

func (m *RoomManagerImpl) Touch(id domain.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.rooms[id]; ok {
		e.lastSeen = time.Now()
	}
}

// RunJanitor evicts rooms that saw no activity for the TTL. Any relayed
// message resets the timer via Touch.
func (m *RoomManagerImpl) RunJanitor(ctx context.Context) {
	if m.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(m.ttl / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *RoomManagerImpl) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.RLock()
	var idle []domain.RoomID
	for id, e := range m.rooms {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		log.Info().Str("module", "app.rooms").Str("room", string(id)).Msg("evicting idle room")
		if m.onEvict != nil {
			m.onEvict(id)
		}
		m.mu.Lock()
		delete(m.rooms, id)
		m.mu.Unlock()
	}
}
