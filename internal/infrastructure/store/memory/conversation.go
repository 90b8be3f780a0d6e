package memory

import (
	"context"
	"sync"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/metrics"
)

// ConversationStore keeps in-flight dialogues in process memory for the
// lifetime of the service; nothing is persisted. The mutex protects the map
// itself — concurrent updates to the same conversation id are last-write-wins
// with no atomicity guarantee, which matches the single-writer-per-dialogue
// assumption of the callers.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*entity.Conversation
}

func NewConversationStore() repository.ConversationRepository {
	return &ConversationStore{
		conversations: make(map[string]*entity.Conversation),
	}
}

func (s *ConversationStore) Create(_ context.Context, conv *entity.Conversation) error {
	metrics.IncConversationsCreated()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	return nil
}

func (s *ConversationStore) GetByID(_ context.Context, id string) (*entity.Conversation, error) {
	metrics.IncDBOp("get")

	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (s *ConversationStore) Update(_ context.Context, id, question, answer string, merged entity.ParameterSet, remaining []string) (*entity.Conversation, error) {
	metrics.IncDBOp("put")

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	conv.ApplyTurn(question, answer, merged, remaining)
	copied := *conv
	return &copied, nil
}

func (s *ConversationStore) RecordQuestion(_ context.Context, id, question string) error {
	metrics.IncDBOp("put")

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return repository.ErrNotFound
	}
	conv.LastQuestion = question
	return nil
}

func (s *ConversationStore) Complete(_ context.Context, id string) (*entity.Conversation, error) {
	metrics.IncDBOp("put")

	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	conv.MarkComplete()
	copied := *conv
	return &copied, nil
}

func (s *ConversationStore) Delete(_ context.Context, id string) (bool, error) {
	metrics.IncDBOp("delete")

	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conversations[id]
	if ok {
		delete(s.conversations, id)
	}
	return ok, nil
}
