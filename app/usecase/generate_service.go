package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/extractor"
	"deploybot/internal/infrastructure/manifest"
	"deploybot/internal/infrastructure/metrics"
	"deploybot/internal/infrastructure/store/filesystem"
)

// ErrMissingInput is returned when a request carries neither a description
// nor a conversation id with an answer.
var ErrMissingInput = errors.New("either description or conversation_id with answer is required")

// FollowUpFallback is the deterministic question template used whenever the
// LLM cannot produce one.
const FollowUpFallback = "I need some additional information to complete your deployment. Could you please provide: %s?"

type GenerateRequest struct {
	Description      string `json:"description,omitempty"`
	ConversationID   string `json:"conversation_id,omitempty"`
	Answer           string `json:"answer,omitempty"`
	ExistingDocument string `json:"existing_document,omitempty"`
}

type GenerateResult struct {
	ConversationID   string   `json:"conversation_id"`
	Complete         bool     `json:"complete"`
	Question         string   `json:"question,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`
	Document         string   `json:"document,omitempty"`
	Valid            bool     `json:"valid,omitempty"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
}

type GenerateUsecase interface {
	Process(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	GetConversation(ctx context.Context, id string) (*entity.Conversation, error)
	DeleteConversation(ctx context.Context, id string) (bool, error)
}

var _ GenerateUsecase = (*GenerateService)(nil)

// GenerateService drives the extraction pipeline: pattern extraction, the
// optional LLM enhancement pass, missing-parameter evaluation, the
// clarification dialogue, and finally manifest rendering. Each step runs to
// completion before the next; nothing is retried — every failure inside the
// pipeline falls back to a deterministic default.
type GenerateService struct {
	conversations repository.ConversationRepository
	enhancer      repository.Enhancer
	manifests     filesystem.FileRepository
	logger        *slog.Logger
}

// NewGenerateService wires the pipeline. A nil enhancer disables the
// enhancement pass entirely; extraction alone then feeds the evaluator.
func NewGenerateService(
	conversations repository.ConversationRepository,
	enhancer repository.Enhancer,
	manifests filesystem.FileRepository,
	logger *slog.Logger,
) *GenerateService {
	return &GenerateService{
		conversations: conversations,
		enhancer:      enhancer,
		manifests:     manifests,
		logger:        logger,
	}
}

func (s *GenerateService) Process(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if req.ConversationID != "" {
		return s.continueConversation(ctx, req)
	}
	if strings.TrimSpace(req.Description) == "" {
		return GenerateResult{}, ErrMissingInput
	}
	return s.startConversation(ctx, req)
}

func (s *GenerateService) startConversation(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	params := s.extractAndEnhance(ctx, req.Description)
	missing := params.MissingParams()
	for _, field := range missing {
		metrics.IncMissingField(field)
	}

	conv := entity.NewConversation(req.Description, params, missing)
	if err := s.conversations.Create(ctx, conv); err != nil {
		return GenerateResult{}, fmt.Errorf("create conversation: %w", err)
	}

	if len(missing) > 0 {
		question := s.followUp(ctx, missing, req.Description)
		if err := s.conversations.RecordQuestion(ctx, conv.ID, question); err != nil {
			s.logger.Warn("record question failed", "conversation_id", conv.ID, "err", err)
		}
		return GenerateResult{
			ConversationID: conv.ID,
			Complete:       false,
			Question:       question,
			MissingFields:  missing,
		}, nil
	}

	return s.finalize(ctx, conv.ID, params, req.ExistingDocument, 0)
}

func (s *GenerateService) continueConversation(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	if strings.TrimSpace(req.Answer) == "" {
		return GenerateResult{}, ErrMissingInput
	}

	conv, err := s.conversations.GetByID(ctx, req.ConversationID)
	if err != nil {
		// Unknown ids surface to the caller; a new conversation is never
		// silently created here.
		return GenerateResult{}, fmt.Errorf("conversation %s: %w", req.ConversationID, err)
	}

	// Re-run the full pipeline over the original text plus the new answer,
	// then merge over what the dialogue has accumulated so far.
	synthetic := conv.OriginalText + " " + req.Answer
	extracted := s.extractAndEnhance(ctx, synthetic)
	merged := entity.MergeParams(conv.Params, extracted)
	remaining := merged.MissingParams()

	updated, err := s.conversations.Update(ctx, conv.ID, conv.LastQuestion, req.Answer, merged, remaining)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("update conversation %s: %w", conv.ID, err)
	}

	if len(remaining) > 0 {
		question := s.followUp(ctx, remaining, conv.OriginalText)
		if err := s.conversations.RecordQuestion(ctx, conv.ID, question); err != nil {
			s.logger.Warn("record question failed", "conversation_id", conv.ID, "err", err)
		}
		return GenerateResult{
			ConversationID: conv.ID,
			Complete:       false,
			Question:       question,
			MissingFields:  remaining,
		}, nil
	}

	return s.finalize(ctx, conv.ID, merged, req.ExistingDocument, len(updated.History))
}

// finalize renders (or patches) the document, validates it, persists the
// manifest on disk and marks the conversation complete. Render and update
// never hard-fail for structurally valid params, so by this point the only
// error path left is store bookkeeping.
func (s *GenerateService) finalize(ctx context.Context, conversationID string, params entity.ParameterSet, existingDocument string, turns int) (GenerateResult, error) {
	var doc string
	var err error
	if existingDocument != "" {
		doc, err = manifest.Update(existingDocument, params)
	} else {
		doc, err = manifest.Render(params)
	}
	if err != nil {
		metrics.IncError("generate", "render")
		return GenerateResult{}, fmt.Errorf("render document: %w", err)
	}

	validation := manifest.Validate(doc)

	if err := s.manifests.SaveManifest(ctx, conversationID, doc, params); err != nil {
		s.logger.Warn("save manifest to disk failed", "conversation_id", conversationID, "err", err)
	}

	if _, err := s.conversations.Complete(ctx, conversationID); err != nil {
		s.logger.Warn("mark conversation complete failed", "conversation_id", conversationID, "err", err)
	}
	metrics.IncConversationsCompleted()
	metrics.ObserveConversationTurns(turns)

	return GenerateResult{
		ConversationID:   conversationID,
		Complete:         true,
		Document:         doc,
		Valid:            validation.Valid,
		ValidationErrors: validation.Errors,
	}, nil
}

// extractAndEnhance runs pattern extraction and, when an enhancer is
// configured, the LLM refinement pass. Enhancement failure falls back to the
// pre-enhancement parameter set.
func (s *GenerateService) extractAndEnhance(ctx context.Context, text string) entity.ParameterSet {
	metrics.IncExtractionRun()
	params := extractor.Extract(text)

	if s.enhancer == nil {
		return params
	}

	enhanced, err := s.enhancer.Enhance(ctx, text, params)
	if err != nil {
		metrics.IncLLMFallback("enhance")
		s.logger.Warn("enhancement failed, using extracted params", "err", err)
		return params
	}
	return enhanced
}

// followUp asks the LLM for a clarification question, falling back to the
// fixed template over the missing-field labels.
func (s *GenerateService) followUp(ctx context.Context, missing []string, originalText string) string {
	if s.enhancer != nil {
		question, err := s.enhancer.FollowUpQuestion(ctx, missing, originalText)
		if err == nil {
			return question
		}
		metrics.IncLLMFallback("follow_up")
		s.logger.Warn("follow-up generation failed, using template", "err", err)
	}
	return fmt.Sprintf(FollowUpFallback, strings.Join(missing, ", "))
}

func (s *GenerateService) GetConversation(ctx context.Context, id string) (*entity.Conversation, error) {
	return s.conversations.GetByID(ctx, id)
}

func (s *GenerateService) DeleteConversation(ctx context.Context, id string) (bool, error) {
	return s.conversations.Delete(ctx, id)
}
