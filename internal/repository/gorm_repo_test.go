package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.New(&database.Config{
		Driver:       "sqlite",
		FilePath:     ":memory:",
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, domain.Models()...))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seed(t *testing.T, db *gorm.DB) {
	t.Helper()
	require.NoError(t, db.Create(&domain.UserModel{ID: "u1", Username: "alice", Email: "alice@example.com"}).Error)
	require.NoError(t, db.Create(&domain.UserModel{ID: "u2", Username: "bob", Email: "bob@example.com"}).Error)
	require.NoError(t, db.Create(&domain.ChannelModel{ID: "c1", WorkspaceID: "w", CategoryID: "cat", Name: "general"}).Error)
	require.NoError(t, db.Create(&domain.ChannelRoleModel{UserID: "u1", ChannelID: "c1", Role: domain.RoleReviewer}).Error)
}

func TestGormMembershipRepository(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	repo := NewGormMembershipRepository(db)
	ctx := context.Background()

	exists, err := repo.UserExistsByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UserExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = repo.UserExistsByEmail(ctx, "")
	require.NoError(t, err)
	assert.False(t, exists)

	ch, err := repo.GetChannel(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, &domain.Channel{ID: "c1", WorkspaceID: "w", CategoryID: "cat", Name: "general"}, ch)

	_, err = repo.GetChannel(ctx, "missing")
	assert.ErrorIs(t, err, ErrChannelNotFound)

	member, err := repo.IsMember(ctx, "c1", "u1")
	require.NoError(t, err)
	assert.True(t, member)

	member, err = repo.IsMember(ctx, "c1", "u2")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestGormMessageRepository_Create(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	repo := NewGormMessageRepository(db)

	content := "hello"
	msg := &domain.GroupMessage{SenderID: "u1", ChannelID: "c1", TextContent: &content}
	require.NoError(t, repo.Create(context.Background(), msg))

	assert.Len(t, msg.ID, 26)
	assert.False(t, msg.CreatedAt.IsZero())

	var stored domain.GroupMessageModel
	require.NoError(t, db.First(&stored, "id = ?", msg.ID).Error)
	require.NotNil(t, stored.TextContent)
	assert.Equal(t, "hello", *stored.TextContent)
	assert.Nil(t, stored.File)
}

func TestGormMessageRepository_ListByChannel(t *testing.T) {
	db := newTestDB(t)
	seed(t, db)
	repo := NewGormMessageRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Second)
		repo.now = func() time.Time { return at }

		text := fmt.Sprintf("m%d", i)
		msg := &domain.GroupMessage{SenderID: "u1", ChannelID: "c1", TextContent: &text}
		require.NoError(t, repo.Create(ctx, msg))
		ids = append(ids, msg.ID)
	}
	other := "elsewhere"
	require.NoError(t, repo.Create(ctx, &domain.GroupMessage{SenderID: "u1", ChannelID: "c2", TextContent: &other}))

	page, next, hasMore, err := repo.ListByChannel(ctx, "c1", "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, hasMore)
	assert.Equal(t, ids[1], next)
	assert.Equal(t, ids[0], page[0].ID)
	assert.Equal(t, "alice", page[0].SenderName)
	assert.Equal(t, "m0", *page[0].TextContent)

	page, next, hasMore, err = repo.ListByChannel(ctx, "c1", next, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[3]}, []string{page[0].ID, page[1].ID})
	assert.True(t, hasMore)

	page, next, hasMore, err = repo.ListByChannel(ctx, "c1", next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[4], page[0].ID)
	assert.False(t, hasMore)
	assert.Empty(t, next)

	page, _, _, err = repo.ListByChannel(ctx, "c1", "", 0)
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultPageSize, ClampLimit(0))
	assert.Equal(t, DefaultPageSize, ClampLimit(-3))
	assert.Equal(t, 10, ClampLimit(10))
	assert.Equal(t, MaxPageSize, ClampLimit(1000))
}
