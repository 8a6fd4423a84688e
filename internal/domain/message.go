package domain

import (
	"time"
)

// InboundKind tags a decoded frame.
type InboundKind int

const (
	InboundText InboundKind = iota + 1
	InboundFile
)

func (k InboundKind) String() string {
	switch k {
	case InboundText:
		return "text"
	case InboundFile:
		return "file"
	default:
		return "unknown"
	}
}

// InboundMessage is one decoded client frame. Content is set for text
// frames; FileName and Data for file uploads.
type InboundMessage struct {
	Kind     InboundKind
	Content  string
	FileName string
	Data     []byte
}

// NewTextMessage builds a text inbound message.
func NewTextMessage(content string) *InboundMessage {
	return &InboundMessage{Kind: InboundText, Content: content}
}

// NewFileMessage builds a file-upload inbound message.
func NewFileMessage(fileName string, data []byte) *InboundMessage {
	return &InboundMessage{Kind: InboundFile, FileName: fileName, Data: data}
}

// GroupMessage is a persisted chat message. At least one of TextContent and
// File is set.
type GroupMessage struct {
	ID          string
	SenderID    string
	SenderName  string
	ChannelID   string
	TextContent *string
	File        *string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}

// Outbound events. Every payload written to a client is one of these, as a
// flat JSON object.

// ChatMessageEvent is broadcast for a persisted text message.
type ChatMessageEvent struct {
	ID          string `json:"id"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Content     string `json:"content"`
	Channel     string `json:"channel"`
	CreatedAt   string `json:"created_at"`
}

// ChatFileEvent is broadcast for a persisted file upload. MessageID is
// always present on the wire, null when no id was assigned.
type ChatFileEvent struct {
	Sender    string  `json:"sender"`
	FileName  string  `json:"file_name"`
	MessageID *string `json:"message_id"`
}

// ErrorEvent is sent to the originator of a failed frame only.
type ErrorEvent struct {
	Error string `json:"error"`
}

// TimeFormat renders created_at in outbound events.
const TimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// NewChatMessageEvent builds the canonical event for msg.
func NewChatMessageEvent(msg *GroupMessage, sender Identity, content string) *ChatMessageEvent {
	return &ChatMessageEvent{
		ID:          msg.ID,
		SenderName:  sender.DisplayName(),
		SenderEmail: sender.Email,
		Content:     content,
		Channel:     msg.ChannelID,
		CreatedAt:   msg.CreatedAt.UTC().Format(TimeFormat),
	}
}

// NewChatFileEvent builds the canonical event for an uploaded file.
func NewChatFileEvent(msg *GroupMessage, sender Identity, fileName string) *ChatFileEvent {
	ev := &ChatFileEvent{
		Sender:   sender.DisplayName(),
		FileName: fileName,
	}
	if msg != nil && msg.ID != "" {
		id := msg.ID
		ev.MessageID = &id
	}
	return ev
}

// HistoryMessage is one row of the channel history API.
type HistoryMessage struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	SenderName  string    `json:"sender_name"`
	TextContent *string   `json:"text_content"`
	File        *string   `json:"file"`
	CreatedAt   time.Time `json:"created_at"`
	Channel     string    `json:"channel"`
}

// ToHistory converts a persisted message for the history API.
func (m *GroupMessage) ToHistory() HistoryMessage {
	return HistoryMessage{
		ID:          m.ID,
		Sender:      m.SenderID,
		SenderName:  m.SenderName,
		TextContent: m.TextContent,
		File:        m.File,
		CreatedAt:   m.CreatedAt,
		Channel:     m.ChannelID,
	}
}

// HistoryPage is a cursor page of channel history.
type HistoryPage struct {
	Messages   []HistoryMessage `json:"messages"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// MessageCreatedEvent is emitted on the message event stream after a
// message is persisted.
type MessageCreatedEvent struct {
	MessageID   string    `json:"message_id"`
	ChannelID   string    `json:"channel_id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	Kind        string    `json:"kind"`
	TextContent *string   `json:"text_content,omitempty"`
	File        *string   `json:"file,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
