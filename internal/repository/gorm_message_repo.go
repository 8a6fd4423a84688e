package repository

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/log"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{
		db:  db,
		now: time.Now,
	}
}

// NewID returns a ULID; ids sort in creation order.
func (r *GormMessageRepository) NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(r.now()), ulid.DefaultEntropy())
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Create assigns an id and timestamp when missing and inserts msg.
func (r *GormMessageRepository) Create(ctx context.Context, msg *domain.GroupMessage) error {
	l := log.Ctx(ctx)

	if msg.ID == "" {
		id, err := r.NewID()
		if err != nil {
			return err
		}
		msg.ID = id
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now().UTC()
	}

	model := domain.GroupMessageToModel(msg)
	if err := r.db.WithContext(ctx).Omit("Sender").Create(model).Error; err != nil {
		l.Error().Err(err).Str(log.FieldChannelID, msg.ChannelID).Msg("failed to create message in db")
		return err
	}

	msg.CreatedAt = model.CreatedAt
	l.Debug().Str(log.FieldMessageID, msg.ID).Msg("message created in db")
	return nil
}

func (r *GormMessageRepository) ListByChannel(ctx context.Context, channelID, cursor string, limit int) ([]domain.GroupMessage, string, bool, error) {
	limit = ClampLimit(limit)

	query := r.db.WithContext(ctx).
		Preload("Sender").
		Where("channel_id = ?", channelID)
	if cursor != "" {
		query = query.Where("id > ?", cursor)
	}

	var models []domain.GroupMessageModel
	if err := query.Order("id ASC").Limit(limit + 1).Find(&models).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Msg("failed to list messages")
		return nil, "", false, err
	}

	hasMore := len(models) > limit
	if hasMore {
		models = models[:limit]
	}

	messages := make([]domain.GroupMessage, 0, len(models))
	for i := range models {
		messages = append(messages, *models[i].ToDomain())
	}

	var next string
	if hasMore && len(messages) > 0 {
		next = messages[len(messages)-1].ID
	}
	return messages, next, hasMore, nil
}

// DB exposes the handle for migrations.
func (r *GormMessageRepository) DB() *gorm.DB {
	return r.db
}
