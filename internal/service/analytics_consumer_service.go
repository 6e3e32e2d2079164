package service

import (
	"context"
	"encoding/json"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/unitofwork"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// analyticsConsumerService folds completed exchanges into chat_analytics.
type analyticsConsumerService struct {
	subscriber message.Subscriber
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewAnalyticsConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	logger logger.ILogger,
) IConsumerService {
	return &analyticsConsumerService{
		subscriber: subscriber,
		topicName:  topicName,
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (cs *analyticsConsumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *analyticsConsumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ChatExchangeCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("ANALYTICS", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		// Malformed payloads would never succeed on retry.
		msg.Ack()
		return
	}

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	err := uow.ChatAnalyticsRepository().Increment(ctx, payload.UserId, payload.ChatId, payload.Messages, payload.Tokens)
	if err != nil {
		cs.logger.Error("ANALYTICS", "Failed to record chat exchange", map[string]interface{}{
			"chat_id": payload.ChatId.String(),
			"error":   err.Error(),
		})
		msg.Nack()
		return
	}

	cs.logger.Debug("ANALYTICS", "Recorded chat exchange", map[string]interface{}{
		"chat_id":  payload.ChatId.String(),
		"messages": payload.Messages,
		"tokens":   payload.Tokens,
	})
	msg.Ack()
}
