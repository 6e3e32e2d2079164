package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ragchat-be/internal/entity"
	"ragchat-be/internal/repository/contract"
	"ragchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store keeps every table in process memory. It backs DB_DRIVER=memory and the service tests.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex // held from Begin until Commit or Rollback

	seq        int64
	order      map[uuid.UUID]int64
	chats      map[uuid.UUID]entity.Chat
	messages   map[uuid.UUID]entity.Message
	analytics  map[uuid.UUID]entity.ChatAnalytics // keyed by chat id
	documents  map[uuid.UUID]entity.Document
	chunks     map[uuid.UUID]entity.Chunk
	embeddings map[uuid.UUID]entity.Embedding
}

func NewStore() *Store {
	return &Store{
		order:      make(map[uuid.UUID]int64),
		chats:      make(map[uuid.UUID]entity.Chat),
		messages:   make(map[uuid.UUID]entity.Message),
		analytics:  make(map[uuid.UUID]entity.ChatAnalytics),
		documents:  make(map[uuid.UUID]entity.Document),
		chunks:     make(map[uuid.UUID]entity.Chunk),
		embeddings: make(map[uuid.UUID]entity.Embedding),
	}
}

// undoRow captures the current state of one row so it can be put back. Caller holds mu.
func undoRow[K comparable, V any](m map[K]V, k K) func() {
	old, existed := m[k]
	return func() {
		if existed {
			m[k] = old
		} else {
			delete(m, k)
		}
	}
}

// track records insertion order so rows with equal timestamps sort stably. Caller holds mu.
func (s *Store) track(id uuid.UUID) {
	if _, ok := s.order[id]; ok {
		return
	}
	s.seq++
	s.order[id] = s.seq
}

func (s *Store) before(aId uuid.UUID, aAt time.Time, bId uuid.UUID, bAt time.Time) bool {
	if !aAt.Equal(bAt) {
		return aAt.Before(bAt)
	}
	return s.order[aId] < s.order[bId]
}

// RepositoryFactory hands out units of work over a shared Store.
type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork serializes transactions on the store. Rollback reverts only the
// writes made through this unit of work since Begin.
type UnitOfWork struct {
	store  *Store
	active bool
	undo   []func()
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.store.txMu.Lock()
	u.active = true
	u.undo = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	u.undo = nil
	u.store.txMu.Unlock()
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.store.mu.Unlock()

	u.active = false
	u.undo = nil
	u.store.txMu.Unlock()
	return nil
}

// remember keeps an inverse of a write made inside a transaction. Caller holds store.mu.
func (u *UnitOfWork) remember(undo func()) {
	if u.active {
		u.undo = append(u.undo, undo)
	}
}

func (u *UnitOfWork) ChatRepository() contract.ChatRepository {
	return &chatRepository{s: u.store, u: u}
}

func (u *UnitOfWork) MessageRepository() contract.MessageRepository {
	return &messageRepository{s: u.store, u: u}
}

func (u *UnitOfWork) ChatAnalyticsRepository() contract.ChatAnalyticsRepository {
	return &chatAnalyticsRepository{s: u.store, u: u}
}

func (u *UnitOfWork) DocumentRepository() contract.DocumentRepository {
	return &documentRepository{s: u.store, u: u}
}

func (u *UnitOfWork) ChunkRepository() contract.ChunkRepository {
	return &chunkRepository{s: u.store, u: u}
}

func (u *UnitOfWork) EmbeddingRepository() contract.EmbeddingRepository {
	return &embeddingRepository{s: u.store, u: u}
}

func sortByCreated[T any](s *Store, rows []T, key func(T) (uuid.UUID, time.Time)) {
	sort.SliceStable(rows, func(i, j int) bool {
		ai, at := key(rows[i])
		bi, bt := key(rows[j])
		return s.before(ai, at, bi, bt)
	})
}
