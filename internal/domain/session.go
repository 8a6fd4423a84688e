package domain

import (
	"sync"
	"time"
)

// SessionState is a step of the connection lifecycle. Transitions only move
// forward; Closed is terminal.
type SessionState int

const (
	StateConnecting SessionState = iota
	StateJoined
	StateRelaying
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateRelaying:
		return "relaying"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection chat state.
type Session struct {
	ID        string
	Identity  Identity
	Protocol  string
	CreatedAt time.Time

	state      SessionState
	roomKey    RoomKey
	channel    *Channel
	lastActive time.Time
	mu         sync.RWMutex
}

func NewSession(id string, identity Identity, protocol string) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Identity:   identity,
		Protocol:   protocol,
		CreatedAt:  now,
		lastActive: now,
		state:      StateConnecting,
	}
}

// Join records the room and channel after membership is confirmed.
func (s *Session) Join(key RoomKey, channel *Channel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateConnecting {
		return false
	}
	s.roomKey = key
	s.channel = channel
	s.state = StateJoined
	s.lastActive = time.Now()
	return true
}

// Accept marks the connection as accepted and relaying frames.
func (s *Session) Accept() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateJoined {
		return false
	}
	s.state = StateRelaying
	return true
}

// Close moves the session to Closed. It reports whether this call did the
// transition and whether the session had joined a room.
func (s *Session) Close() (closed bool, wasJoined bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false, false
	}
	wasJoined = s.state == StateJoined || s.state == StateRelaying
	s.state = StateClosed
	return true, wasJoined
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsJoined reports whether the session is subscribed to its room.
func (s *Session) IsJoined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == StateJoined || s.state == StateRelaying
}

func (s *Session) RoomKey() RoomKey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomKey
}

func (s *Session) Channel() *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// UpdateActivity records that a frame arrived on the connection.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
}

// LastActive is when the last frame arrived, or when the session joined.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}
