package service

import (
	"context"
	"fmt"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/registry"
	"github.com/weiawesome/asg-rev/internal/repository"
)

type historyService struct {
	membership MembershipAuthority
	repo       repository.MessageRepository
	registry   registry.Registry
}

func NewHistoryService(membership MembershipAuthority, repo repository.MessageRepository, reg registry.Registry) HistoryService {
	if reg == nil {
		reg = registry.NewMemoryRegistry()
	}
	return &historyService{
		membership: membership,
		repo:       repo,
		registry:   reg,
	}
}

// authorize returns repository.ErrChannelNotFound or ErrNotAMember when
// identity may not read the channel.
func (s *historyService) authorize(ctx context.Context, identity domain.Identity, channelID string) (*domain.Channel, error) {
	channel, err := s.membership.FindChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	member, err := s.membership.IsMember(ctx, channel, identity)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotAMember
	}
	return channel, nil
}

func (s *historyService) ListMessages(ctx context.Context, identity domain.Identity, channelID, cursor string, limit int) (*domain.HistoryPage, error) {
	channel, err := s.authorize(ctx, identity, channelID)
	if err != nil {
		return nil, err
	}

	msgs, next, hasMore, err := s.repo.ListByChannel(ctx, channel.ID, cursor, repository.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	page := &domain.HistoryPage{
		Messages:   make([]domain.HistoryMessage, 0, len(msgs)),
		NextCursor: next,
		HasMore:    hasMore,
	}
	for i := range msgs {
		page.Messages = append(page.Messages, msgs[i].ToHistory())
	}
	return page, nil
}

func (s *historyService) OnlineUsers(ctx context.Context, identity domain.Identity, key domain.RoomKey) ([]string, error) {
	if _, err := s.authorize(ctx, identity, key.ChannelID); err != nil {
		return nil, err
	}
	users, err := s.registry.Online(ctx, key.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list online users: %w", err)
	}
	if users == nil {
		users = []string{}
	}
	return users, nil
}
