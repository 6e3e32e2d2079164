package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"ragchat-be/internal/config"
	"ragchat-be/internal/entity"
	"ragchat-be/internal/pkg/apperror"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/unitofwork"
	"ragchat-be/pkg/embedding"
	"ragchat-be/pkg/parser"
	"ragchat-be/pkg/storage"
	"ragchat-be/pkg/utils"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ragTracer = otel.Tracer("ragchat-be/rag")

const healthCacheKey = "embedding_health"

// DocumentInput is the caller-provided part of a new document.
type DocumentInput struct {
	Title     string
	Content   string
	SourceUrl *string
	FilePath  *string
	FileType  string
	FileSize  int64
}

type IRagService interface {
	AddDocument(ctx context.Context, userId uuid.UUID, input DocumentInput) (uuid.UUID, error)
	UploadDocument(ctx context.Context, userId uuid.UUID, filename string, content []byte) (uuid.UUID, error)
	Search(ctx context.Context, userId uuid.UUID, query string, limit int) ([]*entity.SearchResult, error)
	GetUserDocuments(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, int64, error)
	DeleteDocument(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (bool, error)
	CheckEmbeddingService(ctx context.Context) bool
	EmbeddingInfo() (model string, dimension int)
}

type ragService struct {
	uowFactory     unitofwork.RepositoryFactory
	embedder       embedding.EmbeddingProvider
	objectStore    storage.ObjectStore
	eventPublisher IDomainEventPublisher
	logger         logger.ILogger
	cfg            config.RagConfig
	healthTimeout  time.Duration
	healthCache    *cache.Cache
}

// NewRagService accepts a nil objectStore; uploads then keep only the parsed text.
func NewRagService(
	uowFactory unitofwork.RepositoryFactory,
	embedder embedding.EmbeddingProvider,
	objectStore storage.ObjectStore,
	eventPublisher IDomainEventPublisher,
	logger logger.ILogger,
	cfg config.RagConfig,
	healthTimeout time.Duration,
) IRagService {
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}
	if eventPublisher == nil {
		eventPublisher = NewDomainEventPublisher(nil, logger)
	}
	return &ragService{
		uowFactory:     uowFactory,
		embedder:       embedder,
		objectStore:    objectStore,
		eventPublisher: eventPublisher,
		logger:         logger,
		cfg:            cfg,
		healthTimeout:  healthTimeout,
		healthCache:    cache.New(10*time.Second, time.Minute),
	}
}

func (s *ragService) AddDocument(ctx context.Context, userId uuid.UUID, input DocumentInput) (uuid.UUID, error) {
	ctx, span := ragTracer.Start(ctx, "RagService.AddDocument")
	defer span.End()

	now := time.Now()
	fileType := input.FileType
	if fileType == "" {
		fileType = "text"
	}
	fileSize := input.FileSize
	if fileSize <= 0 {
		fileSize = int64(len(input.Content))
	}

	document := &entity.Document{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     input.Title,
		Content:   input.Content,
		SourceUrl: input.SourceUrl,
		FilePath:  input.FilePath,
		FileType:  fileType,
		FileSize:  fileSize,
		CreatedAt: now,
		UpdatedAt: now,
	}

	pieces := utils.SplitWords(input.Content, s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	chunks := make([]*entity.Chunk, 0, len(pieces))
	embeddings := make([]*entity.Embedding, 0, len(pieces))
	for _, piece := range pieces {
		chunk := &entity.Chunk{
			Id:         uuid.New(),
			DocumentId: document.Id,
			Content:    piece.Content,
			ChunkIndex: piece.Index,
			StartChar:  piece.StartChar,
			EndChar:    piece.EndChar,
			CreatedAt:  now,
		}
		chunks = append(chunks, chunk)
		embeddings = append(embeddings, &entity.Embedding{
			Id:        uuid.New(),
			ChunkId:   chunk.Id,
			Vector:    s.getEmbedding(ctx, piece.Content, embedding.TaskRetrievalDocument),
			ModelName: s.embedder.ModelName(),
			Dimension: s.embedder.Dimension(),
			CreatedAt: now,
		})
	}
	span.SetAttributes(
		attribute.String("document.id", document.Id.String()),
		attribute.Int("document.chunks", len(chunks)),
	)

	if err := s.persistDocument(ctx, document, chunks, embeddings); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingestion failed")
		s.logger.Error("RAG", "Document ingestion failed", map[string]interface{}{
			"document_id": document.Id.String(),
			"error":       err.Error(),
		})
		return uuid.Nil, apperror.NewIngestionError(err)
	}

	s.logger.Info("RAG", "Document ingested", map[string]interface{}{
		"document_id": document.Id.String(),
		"chunks":      len(chunks),
	})
	s.eventPublisher.PublishDocumentIngested(ctx, document, len(chunks))

	return document.Id, nil
}

func (s *ragService) persistDocument(ctx context.Context, document *entity.Document, chunks []*entity.Chunk, embeddings []*entity.Embedding) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.DocumentRepository().Create(ctx, document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if len(chunks) > 0 {
		if err := uow.ChunkRepository().CreateBulk(ctx, chunks); err != nil {
			return fmt.Errorf("create chunks: %w", err)
		}
		if err := uow.EmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
			return fmt.Errorf("create embeddings: %w", err)
		}
	}

	return uow.Commit()
}

func (s *ragService) UploadDocument(ctx context.Context, userId uuid.UUID, filename string, content []byte) (uuid.UUID, error) {
	parsed, err := parser.Parse(filename, content)
	if err != nil {
		return uuid.Nil, apperror.NewIngestionError(err)
	}

	input := DocumentInput{
		Title:    parsed.Title,
		Content:  parsed.Content,
		FileType: parsed.FileType,
		FileSize: parsed.FileSize,
	}

	var key string
	if s.objectStore != nil {
		key = storage.DocumentKey(userId, uuid.New(), filename)
		if err := s.objectStore.Put(ctx, key, bytes.NewReader(content), int64(len(content)), parsed.FileType); err != nil {
			// The parsed text is still useful without the original.
			s.logger.Warn("RAG", "Failed to store original file", map[string]interface{}{
				"filename": filename,
				"error":    err.Error(),
			})
			key = ""
		} else {
			input.FilePath = &key
		}
	}

	id, err := s.AddDocument(ctx, userId, input)
	if err != nil && key != "" {
		if delErr := s.objectStore.Delete(ctx, key); delErr != nil {
			s.logger.Warn("RAG", "Failed to remove orphaned original", map[string]interface{}{"key": key, "error": delErr.Error()})
		}
	}
	return id, err
}

func (s *ragService) Search(ctx context.Context, userId uuid.UUID, query string, limit int) ([]*entity.SearchResult, error) {
	ctx, span := ragTracer.Start(ctx, "RagService.Search")
	defer span.End()

	if limit <= 0 {
		limit = 5
	}
	span.SetAttributes(attribute.Int("search.limit", limit))

	vector := s.getEmbedding(ctx, query, embedding.TaskRetrievalQuery)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	results, err := uow.EmbeddingRepository().SearchSimilar(ctx, vector, limit, userId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		return nil, apperror.NewRetrievalError(err)
	}

	span.SetAttributes(attribute.Int("search.results", len(results)))
	return results, nil
}

func (s *ragService) GetUserDocuments(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	documents, err := uow.DocumentRepository().FindAll(ctx, userId, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := uow.DocumentRepository().Count(ctx, userId)
	if err != nil {
		return nil, 0, err
	}
	return documents, total, nil
}

func (s *ragService) DeleteDocument(ctx context.Context, userId uuid.UUID, documentId uuid.UUID) (bool, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	document, err := uow.DocumentRepository().FindOne(ctx, documentId, userId)
	if err != nil {
		return false, err
	}
	if document == nil {
		return false, apperror.NotFound("document")
	}

	deleted, err := uow.DocumentRepository().Delete(ctx, documentId, userId)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	if !deleted {
		return false, nil
	}

	if document.FilePath != nil && s.objectStore != nil {
		if err := s.objectStore.Delete(ctx, *document.FilePath); err != nil {
			s.logger.Warn("RAG", "Failed to delete stored original", map[string]interface{}{
				"document_id": documentId.String(),
				"error":       err.Error(),
			})
		}
	}

	s.eventPublisher.PublishDocumentDeleted(ctx, userId, documentId)
	return true, nil
}

// CheckEmbeddingService probes the provider, caching the answer briefly.
func (s *ragService) CheckEmbeddingService(ctx context.Context) bool {
	if cached, found := s.healthCache.Get(healthCacheKey); found {
		return cached.(bool)
	}

	ctx, cancel := context.WithTimeout(ctx, s.healthTimeout)
	defer cancel()

	healthy := s.embedder.Health(ctx) == nil
	s.healthCache.Set(healthCacheKey, healthy, cache.DefaultExpiration)
	return healthy
}

func (s *ragService) EmbeddingInfo() (string, int) {
	return s.embedder.ModelName(), s.embedder.Dimension()
}

// getEmbedding never fails: any provider error or malformed response yields a zero vector.
func (s *ragService) getEmbedding(ctx context.Context, text string, taskType string) []float32 {
	dimension := s.embedder.Dimension()

	res, err := s.embedder.Generate(ctx, text, taskType)
	if err == nil && res != nil && len(res.Embedding.Values) == dimension {
		return res.Embedding.Values
	}

	details := map[string]interface{}{"dimension": dimension}
	if err != nil {
		details["error"] = err.Error()
	}
	s.logger.Warn("RAG", "Embedding unavailable, using zero vector", details)
	return make([]float32, dimension)
}
