package usecase

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deploybot/internal/domain/entity"
	"deploybot/internal/domain/repository"
	"deploybot/internal/infrastructure/manifest"
	"deploybot/internal/infrastructure/store/filesystem"
	"deploybot/internal/infrastructure/store/memory"
)

// stubEnhancer fails both operations so the pipeline exercises its
// deterministic fallbacks.
type stubEnhancer struct {
	enhanceErr  bool
	followUpErr bool
	question    string
	enhance     func(entity.ParameterSet) entity.ParameterSet
}

func (s *stubEnhancer) Enhance(_ context.Context, _ string, params entity.ParameterSet) (entity.ParameterSet, error) {
	if s.enhanceErr {
		return params, errors.New("llm unreachable")
	}
	if s.enhance != nil {
		return s.enhance(params), nil
	}
	return params, nil
}

func (s *stubEnhancer) FollowUpQuestion(_ context.Context, _ []string, _ string) (string, error) {
	if s.followUpErr {
		return "", errors.New("llm unreachable")
	}
	return s.question, nil
}

func newTestService(t *testing.T, enhancer repository.Enhancer) *GenerateService {
	t.Helper()
	manifests, err := filesystem.NewFileRepository(t.TempDir())
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewGenerateService(memory.NewConversationStore(), enhancer, manifests, logger)
}

func TestProcessRequiresInput(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Process(context.Background(), GenerateRequest{})
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = svc.Process(context.Background(), GenerateRequest{ConversationID: "some-id"})
	assert.ErrorIs(t, err, ErrMissingInput)
}

func TestProcessUnknownConversationSurfaces(t *testing.T) {
	svc := newTestService(t, nil)

	_, err := svc.Process(context.Background(), GenerateRequest{ConversationID: "nope", Answer: "8 cores"})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProcessOpensDialogueWhenGapsRemain(t *testing.T) {
	svc := newTestService(t, &stubEnhancer{enhanceErr: true, followUpErr: true})

	res, err := svc.Process(context.Background(), GenerateRequest{Description: "I need 8 cores and 16GB RAM"})
	require.NoError(t, err)

	assert.False(t, res.Complete)
	assert.NotEmpty(t, res.ConversationID)
	assert.Equal(t, []string{entity.LabelStorage, entity.LabelDuration}, res.MissingFields)
	// Both LLM calls failed: the deterministic template carries the labels.
	assert.Equal(t,
		"I need some additional information to complete your deployment. Could you please provide: storage size, deployment duration?",
		res.Question,
	)

	conv, err := svc.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, res.Question, conv.LastQuestion)
	assert.Equal(t, 8, conv.Params.CPUUnits)
	assert.Equal(t, "16Gi", conv.Params.MemorySize)
}

func TestDialogueCompletesAfterAnswer(t *testing.T) {
	svc := newTestService(t, &stubEnhancer{enhanceErr: true, question: "What storage and duration do you need?"})
	ctx := context.Background()

	res, err := svc.Process(ctx, GenerateRequest{Description: "I need 8 cores and 16GB RAM"})
	require.NoError(t, err)
	require.False(t, res.Complete)
	assert.Equal(t, "What storage and duration do you need?", res.Question)

	res, err = svc.Process(ctx, GenerateRequest{
		ConversationID: res.ConversationID,
		Answer:         "500GB storage for 3 hours",
	})
	require.NoError(t, err)

	assert.True(t, res.Complete)
	assert.True(t, res.Valid)
	assert.Empty(t, res.ValidationErrors)
	assert.NotEmpty(t, res.Document)

	validation := manifest.Validate(res.Document)
	assert.True(t, validation.Valid)

	conv, err := svc.GetConversation(ctx, res.ConversationID)
	require.NoError(t, err)
	assert.True(t, conv.Complete)
	require.Len(t, conv.History, 1)
	assert.Equal(t, "What storage and duration do you need?", conv.History[0].Question)
	assert.Equal(t, "500GB storage for 3 hours", conv.History[0].Answer)
	assert.Equal(t, "500Gi", conv.Params.StorageSize)
	assert.Equal(t, "3h", conv.Params.Duration)
	assert.Equal(t, float64(9), conv.Params.Amount)
}

func TestMergePreservesEarlierTurns(t *testing.T) {
	svc := newTestService(t, &stubEnhancer{enhanceErr: true, followUpErr: true})
	ctx := context.Background()

	res, err := svc.Process(ctx, GenerateRequest{Description: "a pytorch box with an a100"})
	require.NoError(t, err)
	require.False(t, res.Complete)

	res, err = svc.Process(ctx, GenerateRequest{ConversationID: res.ConversationID, Answer: "8 cores and 16GB RAM"})
	require.NoError(t, err)
	require.False(t, res.Complete)

	conv, err := svc.GetConversation(ctx, res.ConversationID)
	require.NoError(t, err)
	// The GPU from turn one survived the merge of turn two.
	require.NotNil(t, conv.Params.GPU)
	assert.Equal(t, "a100", conv.Params.GPU.Model)
	assert.Equal(t, 8, conv.Params.CPUUnits)
}

func TestEnhancedParamsAreUsedWhenAvailable(t *testing.T) {
	svc := newTestService(t, &stubEnhancer{
		enhance: func(p entity.ParameterSet) entity.ParameterSet {
			p.CPUUnits = 32
			return p
		},
	})

	res, err := svc.Process(context.Background(), GenerateRequest{
		Description: "8 cores, 16GB RAM, 500GB storage, for 3 hours",
	})
	require.NoError(t, err)
	require.True(t, res.Complete)

	conv, err := svc.GetConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 32, conv.Params.CPUUnits)
}

func TestProcessPatchesExistingDocument(t *testing.T) {
	svc := newTestService(t, nil)

	existing, err := manifest.Render(entity.ParameterSet{CPUUnits: 4, MemorySize: "8Gi"})
	require.NoError(t, err)

	res, err := svc.Process(context.Background(), GenerateRequest{
		Description:      "16 cores, 32GB RAM, 100GB storage, for 2 hours",
		ExistingDocument: existing,
	})
	require.NoError(t, err)
	require.True(t, res.Complete)

	assert.Contains(t, res.Document, "units: 16")
	assert.Contains(t, res.Document, "size: 32Gi")
}

func TestDeleteConversation(t *testing.T) {
	svc := newTestService(t, nil)

	res, err := svc.Process(context.Background(), GenerateRequest{Description: "a box"})
	require.NoError(t, err)

	existed, err := svc.DeleteConversation(context.Background(), res.ConversationID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = svc.GetConversation(context.Background(), res.ConversationID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
