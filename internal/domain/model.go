package domain

import (
	"time"
)

// UserModel is the GORM model for users table.
type UserModel struct {
	ID         string    `gorm:"type:varchar(36);primaryKey"`
	Username   string    `gorm:"type:varchar(150);not null"`
	Email      string    `gorm:"type:varchar(254);uniqueIndex;not null"`
	ProfilePic string    `gorm:"type:varchar(500)"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for UserModel.
func (UserModel) TableName() string {
	return "users"
}

// ChannelModel is the GORM model for channels table.
type ChannelModel struct {
	ID          string    `gorm:"type:varchar(36);primaryKey"`
	WorkspaceID string    `gorm:"type:varchar(36);index;not null"`
	CategoryID  string    `gorm:"type:varchar(36);index;not null"`
	Name        string    `gorm:"type:varchar(100);not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// TableName specifies the table name for ChannelModel.
func (ChannelModel) TableName() string {
	return "channels"
}

// ToDomain converts ChannelModel to domain Channel.
func (m *ChannelModel) ToDomain() *Channel {
	return &Channel{
		ID:          m.ID,
		WorkspaceID: m.WorkspaceID,
		CategoryID:  m.CategoryID,
		Name:        m.Name,
	}
}

// ChannelRoleModel is the GORM model for channel_roles table. One row per
// (user, channel) pair makes the user a member.
type ChannelRoleModel struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"`
	UserID    string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_channel_role_user_channel"`
	ChannelID string  `gorm:"type:varchar(36);not null;uniqueIndex:idx_channel_role_user_channel;index"`
	Role      string  `gorm:"type:varchar(20);not null;default:'reviewer'"`
	TeamID    *string `gorm:"type:varchar(36)"`
}

// TableName specifies the table name for ChannelRoleModel.
func (ChannelRoleModel) TableName() string {
	return "channel_roles"
}

// GroupMessageModel is the GORM model for group_messages table. IDs are
// ULIDs, so ordering by id follows creation order.
type GroupMessageModel struct {
	ID          string     `gorm:"type:varchar(26);primaryKey;index:idx_group_messages_channel_id_id,priority:2"`
	SenderID    string     `gorm:"type:varchar(36);index;not null"`
	ChannelID   string     `gorm:"type:varchar(36);index:idx_group_messages_channel_id_id,priority:1;not null"`
	TextContent *string    `gorm:"type:text"`
	File        *string    `gorm:"type:varchar(1024)"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	Sender      *UserModel `gorm:"foreignKey:SenderID;references:ID"`
}

// TableName specifies the table name for GroupMessageModel.
func (GroupMessageModel) TableName() string {
	return "group_messages"
}

// ToDomain converts GroupMessageModel to domain GroupMessage.
func (m *GroupMessageModel) ToDomain() *GroupMessage {
	msg := &GroupMessage{
		ID:          m.ID,
		SenderID:    m.SenderID,
		ChannelID:   m.ChannelID,
		TextContent: m.TextContent,
		File:        m.File,
		CreatedAt:   m.CreatedAt,
	}
	if m.Sender != nil {
		msg.SenderName = m.Sender.Username
	}
	return msg
}

// GroupMessageToModel converts domain GroupMessage to GroupMessageModel.
func GroupMessageToModel(msg *GroupMessage) *GroupMessageModel {
	return &GroupMessageModel{
		ID:          msg.ID,
		SenderID:    msg.SenderID,
		ChannelID:   msg.ChannelID,
		TextContent: msg.TextContent,
		File:        msg.File,
		CreatedAt:   msg.CreatedAt,
	}
}

// Models lists every table owned by the chat backend, in migration order.
func Models() []interface{} {
	return []interface{}{
		&UserModel{},
		&ChannelModel{},
		&ChannelRoleModel{},
		&GroupMessageModel{},
	}
}
