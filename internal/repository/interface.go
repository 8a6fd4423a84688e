package repository

import (
	"context"
	"errors"

	"github.com/weiawesome/asg-rev/internal/domain"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrChannelNotFound = errors.New("channel not found")
)

// History page bounds.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// MembershipRepository answers who may chat in which channel.
type MembershipRepository interface {
	UserExistsByEmail(ctx context.Context, email string) (bool, error)
	GetChannel(ctx context.Context, channelID string) (*domain.Channel, error)
	IsMember(ctx context.Context, channelID, userID string) (bool, error)
}

// MessageRepository persists group chat messages.
type MessageRepository interface {
	// NewID allocates a message id ahead of Create, so blobs can be keyed
	// by it.
	NewID() (string, error)
	Create(ctx context.Context, msg *domain.GroupMessage) error
	// ListByChannel returns messages after cursor (exclusive) in creation
	// order, with the cursor of the next page.
	ListByChannel(ctx context.Context, channelID, cursor string, limit int) ([]domain.GroupMessage, string, bool, error)
}

// ClampLimit applies the history page bounds.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
