package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ragchat-be/internal/dto"
	"ragchat-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsConsumerRecordsExchanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env := newTestEnv(t)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	consumer := NewAnalyticsConsumerService(pubSub, "chat.exchange.completed", env.factory, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("chat.exchange.completed", pubSub)
	userId := uuid.New()
	chatId := uuid.New()

	require.NoError(t, publisher.Publish(ctx, []byte("not json")))
	for _, tokens := range []int64{10, 25} {
		payload, err := json.Marshal(dto.ChatExchangeCompletedMessage{UserId: userId, ChatId: chatId, Messages: 2, Tokens: tokens})
		require.NoError(t, err)
		require.NoError(t, publisher.Publish(ctx, payload))
	}

	uow := env.factory.NewUnitOfWork(ctx)
	assert.Eventually(t, func() bool {
		row, err := uow.ChatAnalyticsRepository().FindByChat(ctx, chatId)
		return err == nil && row != nil && row.TotalTokens == 35
	}, 2*time.Second, 10*time.Millisecond)

	row, err := uow.ChatAnalyticsRepository().FindByChat(ctx, chatId)
	require.NoError(t, err)
	assert.Equal(t, int64(4), row.MessageCount)
	assert.Equal(t, userId, row.UserId)
}
