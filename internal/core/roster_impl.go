package core

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/commverse/commverse/internal/domain"
)

var ErrNotConnected = errors.New("target not connected")

// rosterImpl is a threadsafe in-memory roster. All roster mutations for one
// room serialize on its lock, so concurrent joins/leaves cannot lose updates.
// It never closes adapter-owned resources.
type rosterImpl struct {
	room  *domain.Room
	mu    sync.RWMutex
	bySID map[SID]MemberSession
}

func NewRoster(room *domain.Room) Roster {
	return &rosterImpl{
		room:  room,
		bySID: make(map[SID]MemberSession),
	}
}

func (r *rosterImpl) Room() *domain.Room { return r.room }

func (r *rosterImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

func (r *rosterImpl) Add(sid SID, ms MemberSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySID[sid] = ms
	log.Info().Str("module", "core.roster").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member added")
}

func (r *rosterImpl) Remove(sid SID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bySID, sid)
	log.Info().Str("module", "core.roster").Str("room", string(r.room.ID)).Str("sid", string(sid)).Msg("member removed")
}

func (r *rosterImpl) Get(sid SID) (MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ms, ok := r.bySID[sid]
	return ms, ok
}

func (r *rosterImpl) UpdateFlags(sid SID, mutate func(*domain.Participant)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ms, ok := r.bySID[sid]
	if !ok {
		return false
	}
	mutate(ms.Participant())
	return true
}

func (r *rosterImpl) Snapshot(exclude SID) []domain.Participant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Participant, 0, len(r.bySID))
	for sid, ms := range r.bySID {
		if sid == exclude {
			continue
		}
		out = append(out, *ms.Participant())
	}
	return out
}

func (r *rosterImpl) Broadcast(from SID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for sid, ms := range r.bySID {
		if sid == from {
			continue
		}
		if err := ms.Signal().TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, ms)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.roster").Str("from", string(from)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *rosterImpl) Send(to SID, data Frame) error {
	r.mu.RLock()
	ms, ok := r.bySID[to]
	r.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return ms.Signal().TrySend(data)
}
