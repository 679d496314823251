package qa

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"scholarnet/internal/models"
)

// ErrSessionNotFound is returned for operations on unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Message is one conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

type session struct {
	id        string
	messages  []Message
	createdAt time.Time
	lastSeen  time.Time
}

// EvictionPolicy bounds the session map. Zero values disable the
// respective bound.
type EvictionPolicy struct {
	TTL         time.Duration
	MaxSessions int
}

// SessionStore holds conversation sessions for the process lifetime,
// pruned on access according to the injected eviction policy. Every
// operation is atomic with respect to concurrent callers.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
	policy   EvictionPolicy
	now      func() time.Time
}

func NewSessionStore(policy EvictionPolicy) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*session),
		policy:   policy,
		now:      time.Now,
	}
}

// GetOrCreate returns the id of an existing session, or creates one —
// under the supplied id, or a fresh UUID when id is empty.
func (s *SessionStore) GetOrCreate(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	if id != "" {
		if sess, ok := s.sessions[id]; ok {
			sess.lastSeen = s.now()
			return sess.id
		}
	} else {
		id = uuid.NewString()
	}

	now := s.now()
	s.sessions[id] = &session{id: id, createdAt: now, lastSeen: now}
	return id
}

// Recent returns the last pairs question/answer exchanges of the session,
// oldest first.
func (s *SessionStore) Recent(id string, pairs int) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil
	}
	n := pairs * 2
	msgs := sess.messages
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]Message(nil), msgs...)
}

// AppendExchange records one answered question as a user message followed
// by an assistant message.
func (s *SessionStore) AppendExchange(id, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	now := s.now()
	sess.messages = append(sess.messages,
		Message{Role: models.RoleUser, Content: question, Timestamp: now},
		Message{Role: models.RoleAssistant, Content: answer, Timestamp: now},
	)
	sess.lastSeen = now
}

// History returns the full message list of a session.
func (s *SessionStore) History(id string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return append([]Message(nil), sess.messages...), nil
}

// Clear empties a session's messages but keeps the id.
func (s *SessionStore) Clear(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.messages = nil
	sess.lastSeen = s.now()
	return nil
}

// Delete removes the session record entirely.
func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return false
	}
	delete(s.sessions, id)
	return true
}

// ListActive returns all live session ids.
func (s *SessionStore) ListActive() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// prune enforces the eviction policy. Caller must hold the lock.
func (s *SessionStore) prune() {
	if s.policy.TTL > 0 {
		cutoff := s.now().Add(-s.policy.TTL)
		for id, sess := range s.sessions {
			if sess.lastSeen.Before(cutoff) {
				delete(s.sessions, id)
			}
		}
	}

	if s.policy.MaxSessions > 0 && len(s.sessions) > s.policy.MaxSessions {
		byAge := make([]*session, 0, len(s.sessions))
		for _, sess := range s.sessions {
			byAge = append(byAge, sess)
		}
		sort.Slice(byAge, func(i, j int) bool { return byAge[i].lastSeen.Before(byAge[j].lastSeen) })
		for _, sess := range byAge[:len(byAge)-s.policy.MaxSessions] {
			delete(s.sessions, sess.id)
		}
	}
}
