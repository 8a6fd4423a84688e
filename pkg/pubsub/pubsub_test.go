package pubsub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelToTopicAndKey(t *testing.T) {
	topic, key, err := channelToTopicAndKey(GroupChatChannel("w1_c2_ch3"))
	require.NoError(t, err)
	assert.Equal(t, "group-chat", topic)
	assert.Equal(t, "w1_c2_ch3", key)

	_, _, err = channelToTopicAndKey("room:abc")
	assert.Error(t, err)

	_, _, err = channelToTopicAndKey(GroupChatPrefix)
	assert.Error(t, err)
}

func TestPatternToTopic(t *testing.T) {
	topic, err := patternToTopic(GroupChatPattern)
	require.NoError(t, err)
	assert.Equal(t, "group-chat", topic)

	_, err = patternToTopic("room:*")
	assert.Error(t, err)
}

func TestRoomKeyFromChannel(t *testing.T) {
	key, ok := RoomKeyFromChannel("group_chat_w_c_ch")
	assert.True(t, ok)
	assert.Equal(t, "w_c_ch", key)

	_, ok = RoomKeyFromChannel("presence_w_c_ch")
	assert.False(t, ok)
}

func TestSanitizeGroupID(t *testing.T) {
	assert.Equal(t, "asg-chat-group_chat_-", sanitizeGroupID("asg-chat-group_chat_*"))
	assert.Equal(t, "a.b-c", sanitizeGroupID("a.b c"))
}

func TestEvent(t *testing.T) {
	ev, err := NewEvent(EventGroupChat, "group_chat_w_c_ch", map[string]string{"content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "group_chat_w_c_ch", ev.Channel)
	assert.False(t, ev.Timestamp.IsZero())

	var payload map[string]string
	require.NoError(t, ev.UnmarshalPayload(&payload))
	assert.Equal(t, "hi", payload["content"])
}

func TestConfig(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Driver: "none"}.Enabled())
	assert.True(t, Config{Driver: "redis"}.Enabled())

	_, err := NewPubSub(Config{Driver: "carrier-pigeon"})
	assert.Error(t, err)
}
