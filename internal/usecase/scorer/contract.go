package scorer

import (
	"context"

	"github.com/kailas-cloud/talentmatch/internal/domain"
)

// Encoder vectorizes text inputs.
type Encoder interface {
	Encode(ctx context.Context, text string) (domain.EmbeddingResult, error)
}
