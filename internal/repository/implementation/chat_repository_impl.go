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

type ChatRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewChatRepository(db *gorm.DB) contract.ChatRepository {
	return &ChatRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ChatRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ChatRepositoryImpl) Create(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) Update(ctx context.Context, chat *entity.Chat) error {
	m := r.mapper.ChatToModel(chat)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*chat = *r.mapper.ChatToEntity(m)
	return nil
}

func (r *ChatRepositoryImpl) FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Chat, error) {
	var m model.Chat
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveChat{},
	)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) FindAllWithCount(ctx context.Context, userId uuid.UUID) ([]*entity.ChatWithCount, error) {
	type result struct {
		model.Chat
		MessageCount int64
	}
	var results []result

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}),
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveChat{},
		specification.OrderBy{Field: "chats.updated_at", Desc: true},
	)
	err := query.
		Select("chats.*, (SELECT COUNT(*) FROM messages WHERE messages.chat_id = chats.id AND messages.is_deleted = false) AS message_count").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	chats := make([]*entity.ChatWithCount, len(results))
	for i := range results {
		chats[i] = &entity.ChatWithCount{
			Chat:         *r.mapper.ChatToEntity(&results[i].Chat),
			MessageCount: results[i].MessageCount,
		}
	}
	return chats, nil
}

func (r *ChatRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ? AND user_id = ? AND is_active = ?", id, userId, true).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *ChatRepositoryImpl) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.Chat{}).
		Where("id = ?", id).
		UpdateColumn("updated_at", at).Error
}

func (r *ChatRepositoryImpl) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	var m model.Chat
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ChatToEntity(&m), nil
}

func (r *ChatRepositoryImpl) Count(ctx context.Context, userId uuid.UUID) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Chat{}),
		specification.UserOwnedBy{UserID: userId},
		specification.ActiveChat{},
	)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
