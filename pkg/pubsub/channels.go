package pubsub

import "strings"

// Channel naming for group chat fan-out across instances.
const (
	// GroupChatPrefix prefixes every room topic: group_chat_<roomKey>.
	GroupChatPrefix = "group_chat_"

	// GroupChatPattern matches every room topic.
	GroupChatPattern = GroupChatPrefix + "*"

	// groupChatTopic is the single Kafka topic carrying all room topics,
	// keyed by room key.
	groupChatTopic = "group-chat"
)

// EventGroupChat tags events whose payload is a serialized chat frame.
const EventGroupChat = "group_chat.event"

// GroupChatChannel returns the channel name for a room key.
func GroupChatChannel(roomKey string) string {
	return GroupChatPrefix + roomKey
}

// RoomKeyFromChannel strips the group chat prefix. ok is false for channels
// outside the group chat namespace.
func RoomKeyFromChannel(channel string) (roomKey string, ok bool) {
	if !strings.HasPrefix(channel, GroupChatPrefix) {
		return "", false
	}
	return strings.TrimPrefix(channel, GroupChatPrefix), true
}
