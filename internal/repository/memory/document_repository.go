package memory

import (
	"context"
	"math"
	"sort"
	"time"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type documentRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *documentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if document.Id == uuid.Nil {
		document.Id = uuid.New()
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = now
	}
	if document.UpdatedAt.IsZero() {
		document.UpdatedAt = document.CreatedAt
	}
	r.u.remember(undoRow(r.s.documents, document.Id))
	r.s.track(document.Id)
	r.s.documents[document.Id] = *document
	return nil
}

func (r *documentRepository) FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserId != userId {
		return nil, nil
	}
	return &doc, nil
}

func (r *documentRepository) FindAll(ctx context.Context, userId uuid.UUID, limit, offset int) ([]*entity.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var docs []*entity.Document
	for _, d := range r.s.documents {
		if d.UserId == userId {
			doc := d
			docs = append(docs, &doc)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].UpdatedAt.Equal(docs[j].UpdatedAt) {
			return docs[i].UpdatedAt.After(docs[j].UpdatedAt)
		}
		return r.s.order[docs[i].Id] > r.s.order[docs[j].Id]
	})

	if offset >= len(docs) {
		return []*entity.Document{}, nil
	}
	docs = docs[offset:]
	if limit > 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	return docs, nil
}

func (r *documentRepository) Count(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, d := range r.s.documents {
		if d.UserId == userId {
			n++
		}
	}
	return n, nil
}

// Delete cascades to chunks and embeddings like the foreign keys do in Postgres.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	doc, ok := r.s.documents[id]
	if !ok || doc.UserId != userId {
		return false, nil
	}

	for chunkId, c := range r.s.chunks {
		if c.DocumentId != id {
			continue
		}
		for embId, e := range r.s.embeddings {
			if e.ChunkId == chunkId {
				r.u.remember(undoRow(r.s.embeddings, embId))
				delete(r.s.embeddings, embId)
			}
		}
		r.u.remember(undoRow(r.s.chunks, chunkId))
		delete(r.s.chunks, chunkId)
	}
	r.u.remember(undoRow(r.s.documents, id))
	delete(r.s.documents, id)
	return true, nil
}

type chunkRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *chunkRepository) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for _, c := range chunks {
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		r.u.remember(undoRow(r.s.chunks, c.Id))
		r.s.track(c.Id)
		r.s.chunks[c.Id] = *c
	}
	return nil
}

func (r *chunkRepository) FindByDocument(ctx context.Context, documentId uuid.UUID) ([]*entity.Chunk, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Chunk
	for _, c := range r.s.chunks {
		if c.DocumentId == documentId {
			chunk := c
			out = append(out, &chunk)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out, nil
}

func (r *chunkRepository) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, c := range r.s.chunks {
		if c.DocumentId == documentId {
			n++
		}
	}
	return n, nil
}

type embeddingRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *embeddingRepository) CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	for _, e := range embeddings {
		if e.Id == uuid.Nil {
			e.Id = uuid.New()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		stored := *e
		stored.Vector = append([]float32(nil), e.Vector...)
		r.u.remember(undoRow(r.s.embeddings, e.Id))
		r.s.track(e.Id)
		r.s.embeddings[e.Id] = stored
	}
	return nil
}

func (r *embeddingRepository) FindByChunk(ctx context.Context, chunkId uuid.UUID) (*entity.Embedding, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, e := range r.s.embeddings {
		if e.ChunkId == chunkId {
			emb := e
			return &emb, nil
		}
	}
	return nil, nil
}

func (r *embeddingRepository) CountByDocument(ctx context.Context, documentId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, e := range r.s.embeddings {
		if c, ok := r.s.chunks[e.ChunkId]; ok && c.DocumentId == documentId {
			n++
		}
	}
	return n, nil
}

// SearchSimilar is a brute-force cosine scan over the user's chunks.
func (r *embeddingRepository) SearchSimilar(ctx context.Context, embedding []float32, limit int, userId uuid.UUID) ([]*entity.SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var results []*entity.SearchResult
	for _, e := range r.s.embeddings {
		chunk, ok := r.s.chunks[e.ChunkId]
		if !ok {
			continue
		}
		doc, ok := r.s.documents[chunk.DocumentId]
		if !ok || doc.UserId != userId {
			continue
		}
		results = append(results, &entity.SearchResult{
			Content:    chunk.Content,
			ChunkIndex: chunk.ChunkIndex,
			DocumentId: doc.Id,
			Title:      doc.Title,
			SourceUrl:  doc.SourceUrl,
			Similarity: cosine(embedding, e.Vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		if results[i].DocumentId != results[j].DocumentId {
			return r.s.order[results[i].DocumentId] < r.s.order[results[j].DocumentId]
		}
		return results[i].ChunkIndex < results[j].ChunkIndex
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// cosine returns 0 when either vector has no magnitude, matching the Postgres backend.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
