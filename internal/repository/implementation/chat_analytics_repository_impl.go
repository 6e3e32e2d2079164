package implementation

import (
	"context"
	"errors"
	"time"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/mapper"
	"ragchat-be/internal/model"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatAnalyticsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatAnalyticsRepository(db *gorm.DB) contract.ChatAnalyticsRepository {
	return &ChatAnalyticsRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatAnalyticsRepositoryImpl) Increment(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, messages int64, tokens int64) error {
	row := model.ChatAnalytics{
		Id:           uuid.New(),
		UserId:       userId,
		ChatId:       chatId,
		MessageCount: messages,
		TotalTokens:  tokens,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"message_count": gorm.Expr("chat_analytics.message_count + ?", messages),
			"total_tokens":  gorm.Expr("chat_analytics.total_tokens + ?", tokens),
			"updated_at":    time.Now(),
		}),
	}).Create(&row).Error
}

func (r *ChatAnalyticsRepositoryImpl) FindByChat(ctx context.Context, chatId uuid.UUID) (*entity.ChatAnalytics, error) {
	var m model.ChatAnalytics
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatId).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.AnalyticsToEntity(&m), nil
}

func (r *ChatAnalyticsRepositoryImpl) SumTokensByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	var total int64
	err := specification.UserOwnedBy{UserID: userId}.
		Apply(r.db.WithContext(ctx).Model(&model.ChatAnalytics{})).
		Select("COALESCE(SUM(total_tokens), 0)").
		Scan(&total).Error
	return total, err
}
