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
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) findOne(ctx context.Context, specs ...specification.Specification) (*entity.Message, error) {
	var m model.Message
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}).Select("messages.*"), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MessageToEntity(&m), nil
}

func (r *MessageRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	return r.findOne(ctx, specification.Filter("messages.id", id))
}

func (r *MessageRepositoryImpl) FindOwned(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Message, error) {
	return r.findOne(ctx,
		specification.Filter("messages.id", id),
		specification.MessageNotDeleted{},
		specification.MessageOwnedBy{UserID: userId},
	)
}

func (r *MessageRepositoryImpl) FindActiveByChat(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByChatID{ChatID: chatId},
		specification.MessageNotDeleted{},
		specification.OrderBy{Field: "messages.created_at"},
		specification.OrderBy{Field: "messages.path"},
	)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) CountActiveChildren(ctx context.Context, parentId uuid.UUID) (int64, error) {
	return r.count(ctx, specification.ByParentID{ParentID: parentId}, specification.MessageNotDeleted{})
}

func (r *MessageRepositoryImpl) CountActiveRoots(ctx context.Context, chatId uuid.UUID) (int64, error) {
	return r.count(ctx,
		specification.ByChatID{ChatID: chatId},
		specification.RootMessage{},
		specification.MessageNotDeleted{},
	)
}

func (r *MessageRepositoryImpl) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	return r.count(ctx, specification.MessageNotDeleted{}, specification.MessageOwnedBy{UserID: userId})
}

func (r *MessageRepositoryImpl) SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	ownedChats := r.db.Model(&model.Chat{}).
		Select("id").
		Where("user_id = ? AND is_active = ?", userId, true)

	res := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("id = ? AND is_deleted = ? AND chat_id IN (?)", id, false, ownedChats).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
