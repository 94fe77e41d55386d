package moderation

import (
	"context"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

// Result is what a classification provider reports for one text.
type Result struct {
	Safe   bool
	Reason string
}

// Classifier is the contract of an external text-classification provider.
// Implementations may block, fail or hang; Client bounds and absorbs that.
type Classifier interface {
	Classify(ctx context.Context, text string) (Result, error)
}

// Moderator turns a text into a Verdict without ever failing.
type Moderator interface {
	Classify(ctx context.Context, text string) domain.Verdict
}
