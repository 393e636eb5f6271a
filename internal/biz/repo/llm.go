package repo

import (
	"context"

	"friday/internal/biz/domain"
)

// LLMRepo is the completion service interface.
// Complete never fails on malformed model output; that degrades to a
// result carrying the raw text as the summary. Transport and auth
// failures are returned as errors for the caller to retry.
type LLMRepo interface {
	Complete(ctx context.Context, doc *domain.ContextDocument) (*domain.ProcessResult, error)
}
