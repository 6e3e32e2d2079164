package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/apperror"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/unitofwork"
	"ragchat-be/pkg/utils"

	"github.com/google/uuid"
)

// NewMessage describes a message to append to a chat tree.
type NewMessage struct {
	ChatId   uuid.UUID
	Role     entity.MessageRole
	Content  string
	ParentId *uuid.UUID
	Metadata *entity.MessageMetadata
}

type IChatTreeService interface {
	CreateChat(ctx context.Context, userId uuid.UUID, title string, description *string) (*entity.Chat, error)
	GetChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) (*entity.Chat, error)
	GetUserChats(ctx context.Context, userId uuid.UUID) ([]*entity.ChatWithCount, error)
	UpdateChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID, title *string, description *string) (*entity.Chat, error)
	DeleteChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) (bool, error)
	GetStats(ctx context.Context, userId uuid.UUID) (*entity.ChatStats, error)

	AddMessage(ctx context.Context, msg NewMessage) (*entity.Message, error)
	GetMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID) (*entity.Message, error)
	GetChatMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) ([]*entity.MessageNode, error)
	GetLinearMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) ([]*entity.Message, error)
	GetBranchMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID, leafId *uuid.UUID) ([]*entity.Message, error)
	EditMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID, content string, metadata *entity.MessageMetadata) (*entity.Message, error)
	RegenerateMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID, content string, metadata *entity.MessageMetadata) (*entity.Message, error)
	DeleteMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID) (bool, error)
}

type chatTreeService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher IDomainEventPublisher
	logger         logger.ILogger
}

func NewChatTreeService(
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher IDomainEventPublisher,
	logger logger.ILogger,
) IChatTreeService {
	if eventPublisher == nil {
		eventPublisher = NewDomainEventPublisher(nil, logger)
	}
	return &chatTreeService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (s *chatTreeService) CreateChat(ctx context.Context, userId uuid.UUID, title string, description *string) (*entity.Chat, error) {
	if strings.TrimSpace(title) == "" {
		title = entity.DefaultChatTitle
	}

	now := time.Now()
	chat := &entity.Chat{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       title,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatRepository().Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	s.eventPublisher.PublishChatCreated(ctx, chat)
	return chat, nil
}

func (s *chatTreeService) GetChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) (*entity.Chat, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := uow.ChatRepository().FindOne(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NotFound("chat")
	}
	return chat, nil
}

func (s *chatTreeService) GetUserChats(ctx context.Context, userId uuid.UUID) ([]*entity.ChatWithCount, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatRepository().FindAllWithCount(ctx, userId)
}

func (s *chatTreeService) UpdateChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID, title *string, description *string) (*entity.Chat, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	chat, err := uow.ChatRepository().FindOne(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}
	if chat == nil {
		return nil, apperror.NotFound("chat")
	}

	if title != nil && strings.TrimSpace(*title) != "" {
		chat.Title = strings.TrimSpace(*title)
	}
	if description != nil {
		chat.Description = description
	}

	if err := uow.ChatRepository().Update(ctx, chat); err != nil {
		return nil, fmt.Errorf("update chat: %w", err)
	}
	return chat, nil
}

func (s *chatTreeService) DeleteChat(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.ChatRepository().SoftDelete(ctx, chatId, userId)
}

func (s *chatTreeService) GetStats(ctx context.Context, userId uuid.UUID) (*entity.ChatStats, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	chats, err := uow.ChatRepository().Count(ctx, userId)
	if err != nil {
		return nil, err
	}
	messages, err := uow.MessageRepository().CountByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	tokens, err := uow.ChatAnalyticsRepository().SumTokensByUser(ctx, userId)
	if err != nil {
		return nil, err
	}

	return &entity.ChatStats{
		TotalChats:    chats,
		TotalMessages: messages,
		TotalTokens:   tokens,
	}, nil
}

// AddMessage numbers the new message among its live siblings while holding the chat row lock,
// so concurrent appends to one chat cannot pick the same path.
func (s *chatTreeService) AddMessage(ctx context.Context, msg NewMessage) (*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	chat, err := uow.ChatRepository().LockForUpdate(ctx, msg.ChatId)
	if err != nil {
		return nil, err
	}
	if chat == nil || !chat.IsActive {
		return nil, apperror.NotFound("chat")
	}

	depth := 0
	var path string
	if msg.ParentId != nil {
		parent, err := uow.MessageRepository().FindById(ctx, *msg.ParentId)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.IsDeleted || parent.ChatId != msg.ChatId {
			return nil, apperror.NotFound("parent message")
		}

		siblings, err := uow.MessageRepository().CountActiveChildren(ctx, parent.Id)
		if err != nil {
			return nil, err
		}
		depth = parent.Depth + 1
		path = parent.Path + "." + strconv.FormatInt(siblings+1, 10)
	} else {
		roots, err := uow.MessageRepository().CountActiveRoots(ctx, msg.ChatId)
		if err != nil {
			return nil, err
		}
		path = strconv.FormatInt(roots+1, 10)
	}

	tokens := utils.EstimateTokens(msg.Content)
	now := time.Now()
	message := &entity.Message{
		Id:         uuid.New(),
		ChatId:     msg.ChatId,
		ParentId:   msg.ParentId,
		Role:       msg.Role,
		Content:    msg.Content,
		Metadata:   msg.Metadata,
		TokenCount: &tokens,
		Depth:      depth,
		Path:       path,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	if err := uow.ChatRepository().Touch(ctx, msg.ChatId, now); err != nil {
		return nil, fmt.Errorf("touch chat: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return message, nil
}

func (s *chatTreeService) GetMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID) (*entity.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	message, err := uow.MessageRepository().FindOwned(ctx, messageId, userId)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, apperror.NotFound("message")
	}
	return message, nil
}

func (s *chatTreeService) loadActive(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) ([]*entity.Message, error) {
	if _, err := s.GetChat(ctx, chatId, userId); err != nil {
		return nil, err
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().FindActiveByChat(ctx, chatId)
}

func (s *chatTreeService) GetChatMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) ([]*entity.MessageNode, error) {
	messages, err := s.loadActive(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}
	return BuildMessageTree(messages), nil
}

func (s *chatTreeService) GetLinearMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID) ([]*entity.Message, error) {
	messages, err := s.loadActive(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}
	return FlattenMessageTree(BuildMessageTree(messages)), nil
}

// GetBranchMessages returns the root-to-leaf path ending at leafId, or at the newest visible
// message when leafId is nil.
func (s *chatTreeService) GetBranchMessages(ctx context.Context, chatId uuid.UUID, userId uuid.UUID, leafId *uuid.UUID) ([]*entity.Message, error) {
	messages, err := s.loadActive(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}

	visible := make(map[uuid.UUID]*entity.Message, len(messages))
	for _, m := range FlattenMessageTree(BuildMessageTree(messages)) {
		visible[m.Id] = m
	}

	var leaf *entity.Message
	if leafId != nil {
		leaf = visible[*leafId]
		if leaf == nil {
			return nil, apperror.NotFound("message")
		}
	} else {
		for i := len(messages) - 1; i >= 0; i-- {
			if m, ok := visible[messages[i].Id]; ok {
				leaf = m
				break
			}
		}
	}
	if leaf == nil {
		return []*entity.Message{}, nil
	}

	var branch []*entity.Message
	for m := leaf; m != nil; {
		branch = append(branch, m)
		if m.ParentId == nil {
			break
		}
		m = visible[*m.ParentId]
	}
	for i, j := 0, len(branch)-1; i < j; i, j = i+1, j-1 {
		branch[i], branch[j] = branch[j], branch[i]
	}
	return branch, nil
}

func (s *chatTreeService) EditMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID, content string, metadata *entity.MessageMetadata) (*entity.Message, error) {
	original, err := s.GetMessage(ctx, messageId, userId)
	if err != nil {
		return nil, err
	}
	return s.branchFrom(ctx, original, content, metadata)
}

func (s *chatTreeService) RegenerateMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID, content string, metadata *entity.MessageMetadata) (*entity.Message, error) {
	original, err := s.GetMessage(ctx, messageId, userId)
	if err != nil {
		return nil, err
	}
	if original.Role != entity.RoleAssistant {
		return nil, apperror.InvalidOperation("only assistant messages can be regenerated")
	}
	return s.branchFrom(ctx, original, content, metadata)
}

// branchFrom adds a sibling of original; the original row is never modified.
func (s *chatTreeService) branchFrom(ctx context.Context, original *entity.Message, content string, metadata *entity.MessageMetadata) (*entity.Message, error) {
	return s.AddMessage(ctx, NewMessage{
		ChatId:   original.ChatId,
		Role:     original.Role,
		Content:  content,
		ParentId: original.ParentId,
		Metadata: metadata,
	})
}

func (s *chatTreeService) DeleteMessage(ctx context.Context, messageId uuid.UUID, userId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.MessageRepository().SoftDelete(ctx, messageId, userId)
}

// BuildMessageTree links messages (in creation order) under their parents. A message whose
// parent is not in the slice is left out together with its descendants.
func BuildMessageTree(messages []*entity.Message) []*entity.MessageNode {
	nodes := make(map[uuid.UUID]*entity.MessageNode, len(messages))
	for _, m := range messages {
		nodes[m.Id] = &entity.MessageNode{Message: m, Children: []*entity.MessageNode{}}
	}

	roots := make([]*entity.MessageNode, 0)
	for _, m := range messages {
		node := nodes[m.Id]
		if m.ParentId == nil {
			roots = append(roots, node)
			continue
		}
		if parent, ok := nodes[*m.ParentId]; ok {
			parent.Children = append(parent.Children, node)
		}
	}
	return roots
}

// FlattenMessageTree is a pre-order walk: each parent, then its children in order.
func FlattenMessageTree(roots []*entity.MessageNode) []*entity.Message {
	out := make([]*entity.Message, 0)
	var walk func(nodes []*entity.MessageNode)
	walk = func(nodes []*entity.MessageNode) {
		for _, n := range nodes {
			out = append(out, n.Message)
			walk(n.Children)
		}
	}
	walk(roots)
	return out
}
