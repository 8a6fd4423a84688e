package service

import (
	"context"
	"errors"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/hub"
)

var ErrNotAMember = errors.New("user is not a member of this channel")

// ChatService drives one chat connection from connect to disconnect.
type ChatService interface {
	// Connect authorizes the client for the room and subscribes it. Any
	// returned error is a *domain.DenyError; the connection must not be
	// accepted.
	Connect(ctx context.Context, client *hub.Client, roomName string) error
	// HandleFrame processes one inbound frame. Failures are reported to the
	// client only and never end the connection.
	HandleFrame(ctx context.Context, client *hub.Client, frame []byte)
	// HandleDisconnect releases the subscription. Safe to call repeatedly
	// and on clients that never connected.
	HandleDisconnect(ctx context.Context, client *hub.Client)
	Start(ctx context.Context) error
	Stop() error
}

// MembershipAuthority answers whether a user may join a channel's chat.
type MembershipAuthority interface {
	UserExists(ctx context.Context, identity domain.Identity) (bool, error)
	// FindChannel returns repository.ErrChannelNotFound for unknown ids.
	FindChannel(ctx context.Context, channelID string) (*domain.Channel, error)
	IsMember(ctx context.Context, channel *domain.Channel, identity domain.Identity) (bool, error)
}

// MessageStore persists chat messages. Errors are *domain.ValidationError
// or *domain.PersistenceError.
type MessageStore interface {
	CreateTextMessage(ctx context.Context, sender domain.Identity, channel *domain.Channel, content string) (*domain.GroupMessage, error)
	CreateFileMessage(ctx context.Context, sender domain.Identity, channel *domain.Channel, fileName string, data []byte) (*domain.GroupMessage, error)
}

// HistoryService serves the member-only channel history and presence APIs.
type HistoryService interface {
	ListMessages(ctx context.Context, identity domain.Identity, channelID, cursor string, limit int) (*domain.HistoryPage, error)
	OnlineUsers(ctx context.Context, identity domain.Identity, key domain.RoomKey) ([]string, error)
}
