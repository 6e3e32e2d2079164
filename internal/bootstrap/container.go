package bootstrap

import (
	"context"
	"log"

	"ragchat-be/internal/config"
	"ragchat-be/internal/controller"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/internal/repository/unitofwork"
	"ragchat-be/internal/service"
	"ragchat-be/pkg/embedding"
	"ragchat-be/pkg/events"
	"ragchat-be/pkg/llm/factory"
	pktNats "ragchat-be/pkg/nats"
	"ragchat-be/pkg/storage"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// Background Services (Exposed for main.go to run)
	AnalyticsConsumer service.IConsumerService

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every dependency. A nil db selects the in-memory repositories.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	promptLogger := logger.NewIsolatedLogger(cfg.App.PromptLogFilePath)
	c.Logger = sysLogger
	c.closers = append(c.closers, func() {
		_ = sysLogger.Sync()
		_ = promptLogger.Sync()
	})

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		log.Printf("[WARN] No database configured, using in-memory repositories")
		uowFactory = memory.NewRepositoryFactory(memory.NewStore())
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	var domainPublisher events.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			domainPublisher = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var vectorCache embedding.Cache
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		vectorCache = embedding.NewRedisCache(rdb, cfg.Ai.EmbeddingCacheTTL)
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	} else {
		vectorCache = embedding.NewMemoryCache(cfg.Ai.EmbeddingCacheTTL)
	}

	var objectStore storage.ObjectStore
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(
			context.Background(),
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			log.Printf("[WARN] Failed to connect to object storage: %v", err)
		} else {
			objectStore = minioStore
		}
	}

	// 4. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbeddingModel,
			cfg.Ai.EmbeddingDimension,
			cfg.Ai.EmbeddingTimeout,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbeddingModel)
	} else {
		embeddingProvider = embedding.NewServiceProvider(
			cfg.Ai.EmbeddingServiceURL,
			cfg.Ai.EmbeddingModel,
			cfg.Ai.EmbeddingDimension,
			cfg.Ai.EmbeddingTimeout,
		)
		log.Printf("[INFO] Using Embedding Provider: SERVICE (%s)", cfg.Ai.EmbeddingModel)
	}
	embeddingProvider = embedding.NewCachedProvider(embeddingProvider, vectorCache)

	llmProvider, err := factory.NewLLMProvider(factory.Config{
		Provider: cfg.Ai.LLMProvider,
		Model:    cfg.Ai.LLMModel,
		BaseURL:  cfg.Ai.LLMBaseURL,
		APIKey:   cfg.Ai.LLMAPIKey(),
		Timeout:  cfg.Ai.LLMTimeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 5. Services
	eventPublisher := service.NewDomainEventPublisher(domainPublisher, sysLogger)
	publisherService := service.NewPublisherService(cfg.App.AnalyticsTopic, pubSub)
	c.AnalyticsConsumer = service.NewAnalyticsConsumerService(pubSub, cfg.App.AnalyticsTopic, uowFactory, sysLogger)

	chatTreeService := service.NewChatTreeService(uowFactory, eventPublisher, sysLogger)
	ragService := service.NewRagService(
		uowFactory,
		embeddingProvider,
		objectStore,
		eventPublisher,
		sysLogger,
		cfg.Rag,
		cfg.Ai.EmbeddingHealthTimeout,
	)
	chatService := service.NewChatService(
		chatTreeService,
		ragService,
		llmProvider,
		publisherService,
		cfg.Rag,
		sysLogger,
		promptLogger,
	)

	// 6. Controllers
	c.ChatController = controller.NewChatController(chatTreeService, chatService)
	c.DocumentController = controller.NewDocumentController(ragService)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
