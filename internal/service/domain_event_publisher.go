package service

import (
	"context"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/pkg/events"

	"github.com/google/uuid"
)

// IDomainEventPublisher emits events for other systems. Publishing never fails the caller.
type IDomainEventPublisher interface {
	PublishChatCreated(ctx context.Context, chat *entity.Chat)
	PublishDocumentIngested(ctx context.Context, document *entity.Document, chunks int)
	PublishDocumentDeleted(ctx context.Context, userId uuid.UUID, documentId uuid.UUID)
}

type domainEventPublisher struct {
	publisher events.Publisher
	logger    logger.ILogger
}

// NewDomainEventPublisher accepts a nil publisher, in which case events are dropped.
func NewDomainEventPublisher(publisher events.Publisher, logger logger.ILogger) IDomainEventPublisher {
	return &domainEventPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *domainEventPublisher) PublishChatCreated(ctx context.Context, chat *entity.Chat) {
	p.publish(ctx, events.New(events.TypeChatCreated, map[string]interface{}{
		"chat_id":     chat.Id.String(),
		"user_id":     chat.UserId.String(),
		"title":       chat.Title,
		"entity_type": "chat",
		"entity_id":   chat.Id.String(),
	}))
}

func (p *domainEventPublisher) PublishDocumentIngested(ctx context.Context, document *entity.Document, chunks int) {
	p.publish(ctx, events.New(events.TypeDocumentIngested, map[string]interface{}{
		"document_id": document.Id.String(),
		"user_id":     document.UserId.String(),
		"title":       document.Title,
		"file_type":   document.FileType,
		"chunks":      chunks,
		"entity_type": "document",
		"entity_id":   document.Id.String(),
	}))
}

func (p *domainEventPublisher) PublishDocumentDeleted(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) {
	p.publish(ctx, events.New(events.TypeDocumentDeleted, map[string]interface{}{
		"document_id": documentId.String(),
		"user_id":     userId.String(),
		"entity_type": "document",
		"entity_id":   documentId.String(),
	}))
}

func (p *domainEventPublisher) publish(ctx context.Context, evt events.BaseEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("EVENTS", "Failed to publish "+evt.Type+" event", map[string]interface{}{"error": err.Error()})
	}
}
