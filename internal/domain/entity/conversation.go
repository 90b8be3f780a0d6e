package entity

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one question/answer exchange in a clarification dialogue.
type Turn struct {
	Question string    `json:"question"`
	Answer   string    `json:"answer"`
	AskedAt  time.Time `json:"asked_at"`
}

// Conversation tracks one in-flight clarification dialogue. OriginalText is
// immutable after creation; Params is replaced wholesale by the state manager
// on each turn (the orchestrator merges before calling update).
type Conversation struct {
	ID           string       `json:"id"`
	OriginalText string       `json:"original_text"`
	Params       ParameterSet `json:"params"`
	Missing      []string     `json:"missing"`
	History      []Turn       `json:"history"`
	// LastQuestion is the follow-up currently awaiting an answer; it pairs
	// with that answer in History once the next turn arrives.
	LastQuestion string    `json:"last_question,omitempty"`
	Complete     bool      `json:"complete"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewConversation(originalText string, params ParameterSet, missing []string) *Conversation {
	now := time.Now()
	return &Conversation{
		ID:           uuid.New().String(),
		OriginalText: originalText,
		Params:       params,
		Missing:      missing,
		Complete:     len(missing) == 0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ApplyTurn records a question/answer pair and the merged result of re-running
// extraction over the answer. Completion is recomputed from the remaining gaps.
func (c *Conversation) ApplyTurn(question, answer string, merged ParameterSet, remaining []string) {
	c.History = append(c.History, Turn{Question: question, Answer: answer, AskedAt: time.Now()})
	c.Params = merged
	c.Missing = remaining
	c.LastQuestion = ""
	c.Complete = len(remaining) == 0
	c.UpdatedAt = time.Now()
}

func (c *Conversation) MarkComplete() {
	c.Complete = true
	c.UpdatedAt = time.Now()
}
