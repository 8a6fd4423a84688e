package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/registry"
	"github.com/weiawesome/asg-rev/internal/repository"
)

func TestHistoryService_ListMessages(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	for _, text := range []string{"one", "two", "three"} {
		_, err := f.store.CreateTextMessage(ctx, alice, general, text)
		require.NoError(t, err)
	}

	svc := NewHistoryService(newFakeMembership(), f.repo, nil)

	page, err := svc.ListMessages(ctx, alice, "c1", "", 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "one", *page.Messages[0].TextContent)
	assert.Equal(t, "alice", page.Messages[0].SenderName)

	page, err = svc.ListMessages(ctx, alice, "c1", page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Messages, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, "three", *page.Messages[0].TextContent)
}

func TestHistoryService_Authorization(t *testing.T) {
	f := newStoreFixture(t)
	svc := NewHistoryService(newFakeMembership(), f.repo, nil)
	ctx := context.Background()

	_, err := svc.ListMessages(ctx, eve, "c1", "", 0)
	assert.ErrorIs(t, err, ErrNotAMember)

	_, err = svc.ListMessages(ctx, alice, "c404", "", 0)
	assert.ErrorIs(t, err, repository.ErrChannelNotFound)
}

func TestHistoryService_OnlineUsers(t *testing.T) {
	f := newStoreFixture(t)
	reg := registry.NewMemoryRegistry()
	svc := NewHistoryService(newFakeMembership(), f.repo, reg)
	ctx := context.Background()
	key, err := domain.ParseRoomKey(testRoom)
	require.NoError(t, err)

	users, err := svc.OnlineUsers(ctx, alice, key)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	require.NoError(t, reg.Register(ctx, testRoom, "conn-1", "u1"))
	require.NoError(t, reg.Register(ctx, testRoom, "conn-2", "u2"))
	require.NoError(t, reg.Register(ctx, testRoom, "conn-3", "u1"))

	users, err = svc.OnlineUsers(ctx, alice, key)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, users)

	_, err = svc.OnlineUsers(ctx, eve, key)
	assert.ErrorIs(t, err, ErrNotAMember)
}
