package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSession_Lifecycle(t *testing.T) {
	s := NewSession("c1", Identity{UserID: "u1", Email: "u1@example.com"}, "legacy")
	assert.Equal(t, StateConnecting, s.State())
	assert.False(t, s.IsJoined())

	key := RoomKey{WorkspaceID: "w", CategoryID: "cat", ChannelID: "c1"}
	assert.True(t, s.Join(key, &Channel{ID: "c1"}))
	assert.Equal(t, StateJoined, s.State())
	assert.Equal(t, key, s.RoomKey())
	assert.Equal(t, "c1", s.Channel().ID)

	// no reentry
	assert.False(t, s.Join(key, &Channel{ID: "other"}))
	assert.Equal(t, "c1", s.Channel().ID)

	assert.True(t, s.Accept())
	assert.Equal(t, StateRelaying, s.State())
	assert.True(t, s.IsJoined())

	closed, wasJoined := s.Close()
	assert.True(t, closed)
	assert.True(t, wasJoined)
	assert.Equal(t, StateClosed, s.State())

	closed, wasJoined = s.Close()
	assert.False(t, closed)
	assert.False(t, wasJoined)
	assert.False(t, s.Accept())
}

func TestSession_LastActive(t *testing.T) {
	s := NewSession("c1", Identity{UserID: "u1"}, "legacy")
	assert.Equal(t, s.CreatedAt, s.LastActive())

	time.Sleep(5 * time.Millisecond)
	s.UpdateActivity()
	first := s.LastActive()
	assert.True(t, first.After(s.CreatedAt))

	time.Sleep(5 * time.Millisecond)
	s.UpdateActivity()
	assert.True(t, s.LastActive().After(first))
}

func TestSession_CloseBeforeJoin(t *testing.T) {
	s := NewSession("c1", Identity{}, "legacy")

	closed, wasJoined := s.Close()
	assert.True(t, closed)
	assert.False(t, wasJoined)
	assert.False(t, s.Join(RoomKey{WorkspaceID: "w", CategoryID: "c", ChannelID: "ch"}, nil))
}

func TestNewChatFileEvent_NullMessageID(t *testing.T) {
	ev := NewChatFileEvent(&GroupMessage{}, Identity{Username: "alice"}, "a.png")
	assert.Nil(t, ev.MessageID)
	assert.Equal(t, "alice", ev.Sender)

	ev = NewChatFileEvent(&GroupMessage{ID: "01H"}, Identity{Email: "bob@example.com"}, "a.png")
	if assert.NotNil(t, ev.MessageID) {
		assert.Equal(t, "01H", *ev.MessageID)
	}
	assert.Equal(t, "bob@example.com", ev.Sender)
}
