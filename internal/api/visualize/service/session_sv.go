package visualizeService

import (
	"sync"
	"time"

	"DetectionViewer/internal/api/visualize"
)

const subscriberBuffer = 16

// session owns the upload state of one client. Only the current generation
// may change what the client sees.
type session struct {
	id          string
	mu          sync.Mutex
	generation  uint64
	state       visualize.UploadState
	subscribers map[int]chan visualize.StateEvent
	nextSubID   int
	lastSeen    time.Time
}

func newSession(id string) *session {
	return &session{
		id:          id,
		state:       visualize.UploadState{State: visualize.StateIdle},
		subscribers: make(map[int]chan visualize.StateEvent),
		lastSeen:    time.Now(),
	}
}

// begin starts a new generation and discards the previous submission's
// state.
func (s *session) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.lastSeen = time.Now()
	s.state = visualize.UploadState{
		Generation: s.generation,
		HasFile:    true,
		State:      visualize.StateUploading,
	}
	return s.generation
}

func (s *session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// setLoading is ignored for superseded generations so a stale response
// cannot hide the indicator of the submission that replaced it.
func (s *session) setLoading(gen uint64, visible bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.state.IsLoading = visible
	s.publishLocked("")
	return true
}

func (s *session) transition(gen uint64, state visualize.State, msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.state.State = state
	if msg != "" {
		s.state.LastMessage = msg
	}
	s.publishLocked(msg)
	return true
}

func (s *session) complete(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		return false
	}
	s.state.HasResults = true
	s.state.IsLoading = false
	s.state.State = visualize.StateIdle
	s.publishLocked("")
	return true
}

func (s *session) snapshot() visualize.UploadState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *session) subscribe() (<-chan visualize.StateEvent, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan visualize.StateEvent, subscriberBuffer)
	s.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subscribers, id)
			close(ch)
		})
	}
}

// announce reports a step of a submission that has no generation yet. The
// running generation, if any, keeps its state.
func (s *session) announce(state visualize.State, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.broadcastLocked(visualize.StateEvent{
		Session:    s.id,
		Generation: s.generation,
		State:      state,
		Loading:    s.state.IsLoading,
		Message:    msg,
		At:         time.Now(),
	})
}

// settle announces idle after a rejected submission. A generation that is
// still running owns the state and is left to report its own idle.
func (s *session) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.State != visualize.StateIdle {
		return
	}
	s.broadcastLocked(visualize.StateEvent{
		Session:    s.id,
		Generation: s.generation,
		State:      visualize.StateIdle,
		At:         time.Now(),
	})
}

func (s *session) publishLocked(msg string) {
	s.broadcastLocked(visualize.StateEvent{
		Session:    s.id,
		Generation: s.state.Generation,
		State:      s.state.State,
		Loading:    s.state.IsLoading,
		Message:    msg,
		At:         time.Now(),
	})
}

// broadcastLocked never blocks; slow subscribers miss events.
func (s *session) broadcastLocked(ev visualize.StateEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

type registry struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*session)}
}

func (r *registry) get(id string) *session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		s = newSession(id)
		r.sessions[id] = s
	}
	return s
}

// prune drops idle sessions without subscribers or a pending submission.
func (r *registry) prune(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for id, s := range r.sessions {
		s.mu.Lock()
		idle := s.lastSeen.Before(cutoff) && len(s.subscribers) == 0 && !s.state.IsLoading
		s.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
