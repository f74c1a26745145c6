package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// DefaultSessionTTL is how long an idle session lives.
const DefaultSessionTTL = 30 * time.Minute

// session is one viewer plus its websocket subscribers. mu serializes
// every access to v.
type session struct {
	ID        string
	CreatedAt time.Time

	mu        sync.Mutex
	v         *viewer.Viewer
	expiresAt time.Time
	subs      map[chan []byte]struct{}
}

// snapshot returns the state after expiring the status banner. Callers
// hold s.mu.
func (s *session) snapshot(now time.Time) viewer.State {
	s.v.Tick(now)
	return s.v.State()
}

// publish sends the current state to every subscriber, dropping the update
// for subscribers whose buffer is full. Callers hold s.mu.
func (s *session) publish(now time.Time) {
	if len(s.subs) == 0 {
		return
	}
	msg, err := json.Marshal(message{Type: "state", State: ptr(s.snapshot(now))})
	if err != nil {
		return
	}
	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (s *session) subscribe() chan []byte {
	ch := make(chan []byte, 16)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	return ch
}

func (s *session) unsubscribe(ch chan []byte) {
	s.mu.Lock()
	if _, ok := s.subs[ch]; ok {
		delete(s.subs, ch)
		close(ch)
	}
	s.mu.Unlock()
}

// closeSubscribers ends every websocket stream. Callers hold s.mu.
func (s *session) closeSubscribers() {
	for ch := range s.subs {
		delete(s.subs, ch)
		close(ch)
	}
}

// store holds live sessions in memory.
type store struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func newStore(ttl time.Duration, now func() time.Time) *store {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &store{sessions: make(map[string]*session), ttl: ttl, now: now}
}

func (st *store) create(v *viewer.Viewer) *session {
	now := st.now()
	s := &session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		v:         v,
		expiresAt: now.Add(st.ttl),
		subs:      make(map[chan []byte]struct{}),
	}
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// get returns a live session and extends its lifetime.
func (st *store) get(id string) (*session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id)
	}
	s.mu.Lock()
	s.expiresAt = st.now().Add(st.ttl)
	s.mu.Unlock()
	return s, nil
}

func (st *store) delete(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.mu.Lock()
		s.closeSubscribers()
		s.v.Close()
		s.mu.Unlock()
	}
	return ok
}

// sweep removes sessions idle past their TTL and returns how many.
func (st *store) sweep() int {
	now := st.now()
	var expired []string
	st.mu.RLock()
	for id, s := range st.sessions {
		s.mu.Lock()
		if now.After(s.expiresAt) {
			expired = append(expired, id)
		}
		s.mu.Unlock()
	}
	st.mu.RUnlock()
	for _, id := range expired {
		st.delete(id)
	}
	return len(expired)
}

func (st *store) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func ptr[T any](v T) *T { return &v }
