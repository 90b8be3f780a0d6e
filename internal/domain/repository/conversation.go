package repository

import (
	"context"
	"errors"

	"deploybot/internal/domain/entity"
)

// ErrNotFound is returned by stores when the requested id is unknown.
var ErrNotFound = errors.New("not found")

// ConversationRepository holds in-flight clarification dialogues. The store
// owns every Conversation it hands out; callers pass merged state back through
// Update rather than mutating shared instances.
type ConversationRepository interface {
	Create(ctx context.Context, conv *entity.Conversation) error
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	// Update records a turn: currentParams is replaced wholesale with merged,
	// the question/answer pair is appended, and completion recomputed.
	Update(ctx context.Context, id, question, answer string, merged entity.ParameterSet, remaining []string) (*entity.Conversation, error)
	// RecordQuestion stores the follow-up currently awaiting an answer so the
	// next Update can pair it into the turn history.
	RecordQuestion(ctx context.Context, id, question string) error
	// Complete forces the dialogue complete without touching other fields.
	Complete(ctx context.Context, id string) (*entity.Conversation, error)
	Delete(ctx context.Context, id string) (bool, error)
}
