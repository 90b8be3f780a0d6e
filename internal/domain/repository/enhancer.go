package repository

import (
	"context"

	"deploybot/internal/domain/entity"
)

// Enhancer is the external LLM capability. Both operations may fail on
// transport or parse errors; callers are expected to fall back to the
// pre-enhancement parameter set or the deterministic question template —
// enhancement failure is never fatal to the pipeline.
type Enhancer interface {
	// Enhance refines a regex-extracted parameter set against the original text.
	Enhance(ctx context.Context, originalText string, params entity.ParameterSet) (entity.ParameterSet, error)
	// FollowUpQuestion drafts one natural-language question covering the
	// missing field labels.
	FollowUpQuestion(ctx context.Context, missingLabels []string, originalText string) (string, error)
}
