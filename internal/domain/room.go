package domain

import (
	"strings"

	"github.com/weiawesome/asg-rev/pkg/pubsub"
)

// RoomKeyDelimiter separates workspace, category and channel ids.
const RoomKeyDelimiter = "_"

// RoomKey identifies a chat room: <workspaceID>_<categoryID>_<channelID>.
type RoomKey struct {
	WorkspaceID string
	CategoryID  string
	ChannelID   string
}

// ParseRoomKey splits raw into exactly three non-empty ids.
func ParseRoomKey(raw string) (RoomKey, error) {
	if raw == "" {
		return RoomKey{}, NewDenyError(DenyInvalidRoomFormat, "Room name is required")
	}

	parts := strings.Split(raw, RoomKeyDelimiter)
	if len(parts) != 3 {
		return RoomKey{}, NewDenyError(DenyInvalidRoomFormat, "Invalid room name format")
	}
	for _, p := range parts {
		if p == "" {
			return RoomKey{}, NewDenyError(DenyInvalidRoomFormat, "Invalid room name format")
		}
	}

	return RoomKey{
		WorkspaceID: parts[0],
		CategoryID:  parts[1],
		ChannelID:   parts[2],
	}, nil
}

func (k RoomKey) String() string {
	return k.WorkspaceID + RoomKeyDelimiter + k.CategoryID + RoomKeyDelimiter + k.ChannelID
}

// Topic is the broadcaster topic for the room.
func (k RoomKey) Topic() string {
	return pubsub.GroupChatChannel(k.String())
}

// IsZero reports whether k was never parsed.
func (k RoomKey) IsZero() bool {
	return k == RoomKey{}
}
