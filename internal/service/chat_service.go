package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"ragchat-be/internal/config"
	"ragchat-be/internal/dto"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/apperror"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/llm"
	"ragchat-be/pkg/rag"
	"ragchat-be/pkg/rag/prompt"
	"ragchat-be/pkg/utils"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var chatTracer = otel.Tracer("ragchat-be/chat")

const autoTitleLength = 50

type IChatService interface {
	Completion(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, request *dto.CompletionRequest) (*dto.CompletionResponse, error)
	RegenerateReply(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) (*dto.CompletionResponse, error)
}

type chatService struct {
	chatTree   IChatTreeService
	ragService IRagService
	llm        llm.LLMProvider
	publisher  IPublisherService
	gate       *rag.Gate
	cfg        config.RagConfig
	logger     logger.ILogger
	promptLog  logger.ILogger
}

// modelAnswer is one model turn, or its fallback.
type modelAnswer struct {
	content   string
	citations []entity.Citation
	kind      rag.QueryKind
	fallback  bool
}

func NewChatService(
	chatTree IChatTreeService,
	ragService IRagService,
	llmProvider llm.LLMProvider,
	publisher IPublisherService,
	cfg config.RagConfig,
	logger logger.ILogger,
	promptLog logger.ILogger,
) IChatService {
	return &chatService{
		chatTree:   chatTree,
		ragService: ragService,
		llm:        llmProvider,
		publisher:  publisher,
		gate: &rag.Gate{
			Classifier:        rag.NewClassifier(cfg.DocumentKeywords),
			DocumentThreshold: cfg.DocumentThreshold,
			GeneralThreshold:  cfg.GeneralThreshold,
		},
		cfg:       cfg,
		logger:    logger,
		promptLog: promptLog,
	}
}

func (cs *chatService) Completion(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, request *dto.CompletionRequest) (*dto.CompletionResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.Completion")
	defer span.End()
	span.SetAttributes(attribute.String("chat.id", chatId.String()))

	chat, err := cs.chatTree.GetChat(ctx, chatId, userId)
	if err != nil {
		return nil, err
	}

	// Without an explicit parent the message continues the newest branch.
	history, err := cs.chatTree.GetBranchMessages(ctx, chatId, userId, request.ParentId)
	if err != nil {
		return nil, err
	}
	var parentId *uuid.UUID
	if len(history) > 0 {
		parentId = &history[len(history)-1].Id
	}

	sent, err := cs.chatTree.AddMessage(ctx, NewMessage{
		ChatId:   chatId,
		Role:     entity.RoleUser,
		Content:  request.Content,
		ParentId: parentId,
	})
	if err != nil {
		return nil, err
	}

	ans := cs.answer(ctx, userId, chatId, history, request.Content)

	reply, err := cs.chatTree.AddMessage(ctx, NewMessage{
		ChatId:   chatId,
		Role:     entity.RoleAssistant,
		Content:  ans.content,
		ParentId: &sent.Id,
		Metadata: &entity.MessageMetadata{Citations: ans.citations},
	})
	if err != nil {
		return nil, err
	}

	title := chat.Title
	if title == entity.DefaultChatTitle {
		title = cs.autoTitle(ctx, chatId, userId, request.Content)
	}

	cs.publishExchange(ctx, userId, chatId, sent, reply)

	return &dto.CompletionResponse{
		ChatId:    chatId,
		ChatTitle: title,
		Sent:      dto.NewMessageResponse(sent),
		Reply:     dto.NewMessageResponse(reply),
		Citations: ans.citations,
		QueryKind: string(ans.kind),
		Fallback:  ans.fallback,
	}, nil
}

// RegenerateReply asks the model again for the user turn that an assistant message answered,
// and stores the result as a sibling of that message.
func (cs *chatService) RegenerateReply(ctx context.Context, userId uuid.UUID, messageId uuid.UUID) (*dto.CompletionResponse, error) {
	ctx, span := chatTracer.Start(ctx, "ChatService.RegenerateReply")
	defer span.End()

	original, err := cs.chatTree.GetMessage(ctx, messageId, userId)
	if err != nil {
		return nil, err
	}
	if original.Role != entity.RoleAssistant {
		return nil, apperror.InvalidOperation("only assistant messages can be regenerated")
	}
	if original.ParentId == nil {
		return nil, apperror.InvalidOperation("message has no prompt to answer")
	}

	branch, err := cs.chatTree.GetBranchMessages(ctx, original.ChatId, userId, original.ParentId)
	if err != nil {
		return nil, err
	}
	query := branch[len(branch)-1]

	ans := cs.answer(ctx, userId, original.ChatId, branch[:len(branch)-1], query.Content)

	reply, err := cs.chatTree.RegenerateMessage(ctx, messageId, userId, ans.content, &entity.MessageMetadata{Citations: ans.citations})
	if err != nil {
		return nil, err
	}

	chat, err := cs.chatTree.GetChat(ctx, original.ChatId, userId)
	if err != nil {
		return nil, err
	}

	cs.publishExchange(ctx, userId, original.ChatId, reply)

	return &dto.CompletionResponse{
		ChatId:    original.ChatId,
		ChatTitle: chat.Title,
		Sent:      dto.NewMessageResponse(query),
		Reply:     dto.NewMessageResponse(reply),
		Citations: ans.citations,
		QueryKind: string(ans.kind),
		Fallback:  ans.fallback,
	}, nil
}

// answer retrieves context for query and asks the model. It does not fail: retrieval errors
// leave the prompt without sources and provider errors produce the fallback text.
func (cs *chatService) answer(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, history []*entity.Message, query string) modelAnswer {
	results, err := cs.ragService.Search(ctx, userId, query, cs.cfg.TopK)
	if err != nil {
		cs.logger.Warn("CHAT", "Retrieval failed, answering without sources", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		results = nil
	}

	sources, kind := cs.gate.Apply(query, results)
	citations := rag.BuildCitations(sources, cs.cfg.ExcerptLength)

	builder := prompt.NewContextualBuilder(sources, history, query)
	messages := builder.Messages()

	cs.promptLog.Info("PROMPT", "Assembled completion request", map[string]interface{}{
		"chat_id":    chatId.String(),
		"query_kind": string(kind),
		"retrieved":  len(results),
		"sources":    len(sources),
		"history":    len(history),
		"system":     messages[0].Content,
		"query":      query,
	})

	content, err := cs.llm.Chat(ctx, messages)
	if err == nil && strings.TrimSpace(content) != "" {
		return modelAnswer{content: content, citations: citations, kind: kind}
	}

	details := map[string]interface{}{
		"chat_id":  chatId.String(),
		"provider": cs.llm.Name(),
	}
	if err != nil {
		details["error"] = err.Error()
		details["overloaded"] = isOverloaded(err)
	}
	cs.logger.Warn("CHAT", "Completion provider failed, using fallback", details)

	return modelAnswer{
		content:   prompt.Fallback(citations),
		citations: citations,
		kind:      kind,
		fallback:  true,
	}
}

func isOverloaded(err error) bool {
	return errors.Is(err, llm.ErrProviderOverloaded)
}

func (cs *chatService) autoTitle(ctx context.Context, chatId uuid.UUID, userId uuid.UUID, content string) string {
	title := utils.Truncate(strings.TrimSpace(content), autoTitleLength)
	if title == "" {
		return entity.DefaultChatTitle
	}

	updated, err := cs.chatTree.UpdateChat(ctx, chatId, userId, &title, nil)
	if err != nil {
		cs.logger.Warn("CHAT", "Failed to auto-title chat", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
		return entity.DefaultChatTitle
	}
	return updated.Title
}

func (cs *chatService) publishExchange(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, messages ...*entity.Message) {
	if cs.publisher == nil {
		return
	}

	var tokens int64
	for _, m := range messages {
		if m.TokenCount != nil {
			tokens += int64(*m.TokenCount)
		}
	}

	payload, err := json.Marshal(dto.ChatExchangeCompletedMessage{
		UserId:   userId,
		ChatId:   chatId,
		Messages: int64(len(messages)),
		Tokens:   tokens,
	})
	if err != nil {
		return
	}

	if err := cs.publisher.Publish(ctx, payload); err != nil {
		cs.logger.Error("CHAT", "Failed to publish exchange analytics", map[string]interface{}{
			"chat_id": chatId.String(),
			"error":   err.Error(),
		})
	}
}
