package memory

import (
	"context"
	"sort"
	"time"

	"ragchat-be/internal/entity"

	"github.com/google/uuid"
)

type chatRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *chatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	if chat.Id == uuid.Nil {
		chat.Id = uuid.New()
	}
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	if chat.UpdatedAt.IsZero() {
		chat.UpdatedAt = chat.CreatedAt
	}
	r.u.remember(undoRow(r.s.chats, chat.Id))
	r.s.track(chat.Id)
	r.s.chats[chat.Id] = *chat
	return nil
}

func (r *chatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat.UpdatedAt = time.Now()
	r.u.remember(undoRow(r.s.chats, chat.Id))
	r.s.track(chat.Id)
	r.s.chats[chat.Id] = *chat
	return nil
}

func (r *chatRepository) FindOne(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chat, ok := r.s.chats[id]
	if !ok || chat.UserId != userId || !chat.IsActive {
		return nil, nil
	}
	return &chat, nil
}

func (r *chatRepository) FindAllWithCount(ctx context.Context, userId uuid.UUID) ([]*entity.ChatWithCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[uuid.UUID]int64)
	for _, m := range r.s.messages {
		if !m.IsDeleted {
			counts[m.ChatId]++
		}
	}

	var out []*entity.ChatWithCount
	for _, c := range r.s.chats {
		if c.UserId != userId || !c.IsActive {
			continue
		}
		out = append(out, &entity.ChatWithCount{Chat: c, MessageCount: counts[c.Id]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return r.s.order[out[i].Id] > r.s.order[out[j].Id]
	})
	return out, nil
}

func (r *chatRepository) SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[id]
	if !ok || chat.UserId != userId || !chat.IsActive {
		return false, nil
	}
	r.u.remember(undoRow(r.s.chats, id))
	chat.IsActive = false
	chat.UpdatedAt = time.Now()
	r.s.chats[id] = chat
	return true, nil
}

func (r *chatRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if chat, ok := r.s.chats[id]; ok {
		r.u.remember(undoRow(r.s.chats, id))
		chat.UpdatedAt = at
		r.s.chats[id] = chat
	}
	return nil
}

// LockForUpdate is a plain read; the unit of work already serializes transactions.
func (r *chatRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*entity.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	chat, ok := r.s.chats[id]
	if !ok {
		return nil, nil
	}
	return &chat, nil
}

func (r *chatRepository) Count(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, c := range r.s.chats {
		if c.UserId == userId && c.IsActive {
			n++
		}
	}
	return n, nil
}

type messageRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *messageRepository) Create(ctx context.Context, message *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if message.Id == uuid.Nil {
		message.Id = uuid.New()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	if message.UpdatedAt.IsZero() {
		message.UpdatedAt = message.CreatedAt
	}
	r.u.remember(undoRow(r.s.messages, message.Id))
	r.s.track(message.Id)
	r.s.messages[message.Id] = *message
	return nil
}

func (r *messageRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// ownedBy reports whether the message's chat is active and owned by userId. Caller holds mu.
func (r *messageRepository) ownedBy(m entity.Message, userId uuid.UUID) bool {
	chat, ok := r.s.chats[m.ChatId]
	return ok && chat.IsActive && chat.UserId == userId
}

func (r *messageRepository) FindOwned(ctx context.Context, id uuid.UUID, userId uuid.UUID) (*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.messages[id]
	if !ok || m.IsDeleted || !r.ownedBy(m, userId) {
		return nil, nil
	}
	return &m, nil
}

func (r *messageRepository) FindActiveByChat(ctx context.Context, chatId uuid.UUID) ([]*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*entity.Message
	for _, m := range r.s.messages {
		if m.ChatId == chatId && !m.IsDeleted {
			msg := m
			out = append(out, &msg)
		}
	}
	sortByCreated(r.s, out, func(m *entity.Message) (uuid.UUID, time.Time) { return m.Id, m.CreatedAt })
	return out, nil
}

func (r *messageRepository) CountActiveChildren(ctx context.Context, parentId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, m := range r.s.messages {
		if m.ParentId != nil && *m.ParentId == parentId && !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *messageRepository) CountActiveRoots(ctx context.Context, chatId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, m := range r.s.messages {
		if m.ChatId == chatId && m.ParentId == nil && !m.IsDeleted {
			n++
		}
	}
	return n, nil
}

func (r *messageRepository) SoftDelete(ctx context.Context, id uuid.UUID, userId uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.messages[id]
	if !ok || m.IsDeleted || !r.ownedBy(m, userId) {
		return false, nil
	}
	r.u.remember(undoRow(r.s.messages, id))
	m.IsDeleted = true
	m.UpdatedAt = time.Now()
	r.s.messages[id] = m
	return true, nil
}

func (r *messageRepository) CountByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, m := range r.s.messages {
		if !m.IsDeleted && r.ownedBy(m, userId) {
			n++
		}
	}
	return n, nil
}

type chatAnalyticsRepository struct {
	s *Store
	u *UnitOfWork
}

func (r *chatAnalyticsRepository) Increment(ctx context.Context, userId uuid.UUID, chatId uuid.UUID, messages int64, tokens int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := time.Now()
	r.u.remember(undoRow(r.s.analytics, chatId))
	row, ok := r.s.analytics[chatId]
	if !ok {
		row = entity.ChatAnalytics{Id: uuid.New(), UserId: userId, ChatId: chatId, CreatedAt: now}
	}
	row.MessageCount += messages
	row.TotalTokens += tokens
	row.UpdatedAt = now
	r.s.analytics[chatId] = row
	return nil
}

func (r *chatAnalyticsRepository) FindByChat(ctx context.Context, chatId uuid.UUID) (*entity.ChatAnalytics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.analytics[chatId]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (r *chatAnalyticsRepository) SumTokensByUser(ctx context.Context, userId uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var total int64
	for _, row := range r.s.analytics {
		if row.UserId == userId {
			total += row.TotalTokens
		}
	}
	return total, nil
}
