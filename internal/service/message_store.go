package service

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/kafka"
	"github.com/weiawesome/asg-rev/internal/repository"
	"github.com/weiawesome/asg-rev/pkg/log"
	"github.com/weiawesome/asg-rev/pkg/storage"
)

const maxFileNameLen = 255

type messageStore struct {
	repo        repository.MessageRepository
	storage     storage.Storage
	producer    kafka.EventProducer
	maxFileSize int64
	urlExpiry   time.Duration
}

// NewMessageStore persists messages through repo, attachments through
// store, and announces each saved message on producer.
func NewMessageStore(
	repo repository.MessageRepository,
	store storage.Storage,
	producer kafka.EventProducer,
	maxFileSize int64,
	urlExpiry time.Duration,
) MessageStore {
	if producer == nil {
		producer = kafka.NopProducer{}
	}
	return &messageStore{
		repo:        repo,
		storage:     store,
		producer:    producer,
		maxFileSize: maxFileSize,
		urlExpiry:   urlExpiry,
	}
}

func (s *messageStore) CreateTextMessage(ctx context.Context, sender domain.Identity, channel *domain.Channel, content string) (*domain.GroupMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &domain.ValidationError{Field: "content", Message: "text content or file is required"}
	}

	msg := &domain.GroupMessage{
		SenderID:    sender.UserID,
		SenderName:  sender.DisplayName(),
		ChannelID:   channel.ID,
		TextContent: &content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, &domain.PersistenceError{Op: "save message", Err: err}
	}

	s.emit(ctx, msg, domain.InboundText)
	return msg, nil
}

func (s *messageStore) CreateFileMessage(ctx context.Context, sender domain.Identity, channel *domain.Channel, fileName string, data []byte) (*domain.GroupMessage, error) {
	name := SanitizeFileName(fileName)
	if name == "" {
		return nil, &domain.ValidationError{Field: "file_name", Message: "file name is required"}
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return nil, &domain.ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("file exceeds maximum size of %d bytes", s.maxFileSize),
		}
	}

	id, err := s.repo.NewID()
	if err != nil {
		return nil, &domain.PersistenceError{Op: "allocate message id", Err: err}
	}

	contentType := mimetype.Detect(data).String()
	key := path.Join("chat", channel.ID, id, name)

	if err := s.storage.Write(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return nil, &domain.PersistenceError{Op: "store file", Err: err}
	}

	url, err := s.storage.GetURL(ctx, key, s.urlExpiry)
	if err != nil {
		s.discard(ctx, key)
		return nil, &domain.PersistenceError{Op: "resolve file url", Err: err}
	}

	msg := &domain.GroupMessage{
		ID:          id,
		SenderID:    sender.UserID,
		SenderName:  sender.DisplayName(),
		ChannelID:   channel.ID,
		File:        &url,
		FileName:    name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		s.discard(ctx, key)
		return nil, &domain.PersistenceError{Op: "save message", Err: err}
	}

	s.emit(ctx, msg, domain.InboundFile)
	return msg, nil
}

// discard removes a blob whose message row was never written.
func (s *messageStore) discard(ctx context.Context, key string) {
	if err := s.storage.Delete(ctx, key); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str("key", key).Msg("failed to remove orphaned file")
	}
}

func (s *messageStore) emit(ctx context.Context, msg *domain.GroupMessage, kind domain.InboundKind) {
	event := &domain.MessageCreatedEvent{
		MessageID:   msg.ID,
		ChannelID:   msg.ChannelID,
		SenderID:    msg.SenderID,
		SenderName:  msg.SenderName,
		Kind:        kind.String(),
		TextContent: msg.TextContent,
		File:        msg.File,
		FileName:    msg.FileName,
		ContentType: msg.ContentType,
		Size:        msg.Size,
		CreatedAt:   msg.CreatedAt,
	}
	if err := s.producer.ProduceMessageCreated(ctx, event); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldMessageID, msg.ID).Msg("failed to emit message event")
	}
}

// SanitizeFileName reduces a client-supplied name to a safe base name.
func SanitizeFileName(raw string) string {
	name := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	if len(name) > maxFileNameLen {
		cut := maxFileNameLen
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name
}
