package resolve

import (
	"context"

	"github.com/okian/formfill/internal/domain/model"
)

// ProfileProvider returns the user's profile. A nil profile with a nil error
// means no profile is stored.
type ProfileProvider interface {
	Profile(ctx context.Context) (*model.Profile, error)
}

// AnswerStore looks up and records answers keyed by normalized question.
type AnswerStore interface {
	Resolve(ctx context.Context, question string, intent model.Intent) (model.Lookup, error)
	Upsert(ctx context.Context, rec model.AnswerRecord) (model.UpsertResult, error)
}

// Drafter writes a free-text answer for an open-ended question.
type Drafter interface {
	Draft(ctx context.Context, req model.DraftRequest) (string, error)
}
