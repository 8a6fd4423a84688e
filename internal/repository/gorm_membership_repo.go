package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/pkg/log"
)

// GormMembershipRepository implements MembershipRepository using GORM.
type GormMembershipRepository struct {
	db *gorm.DB
}

func NewGormMembershipRepository(db *gorm.DB) *GormMembershipRepository {
	return &GormMembershipRepository{db: db}
}

func (r *GormMembershipRepository) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldEmail, email).Msg("failed to look up user")
		return false, err
	}
	return count > 0, nil
}

func (r *GormMembershipRepository) GetChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	var model domain.ChannelModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", channelID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChannelNotFound
		}
		l := log.Ctx(ctx)
		l.Error().Err(result.Error).Str(log.FieldChannelID, channelID).Msg("failed to get channel by id")
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

func (r *GormMembershipRepository) IsMember(ctx context.Context, channelID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.ChannelRoleModel{}).
		Where("channel_id = ? AND user_id = ?", channelID, userID).
		Count(&count).Error
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldChannelID, channelID).Str(log.FieldUserID, userID).Msg("failed to check channel role")
		return false, err
	}
	return count > 0, nil
}
