// Package repository stores answer records, per-intent answers and the
// candidate profile.
package repository

import (
	"context"

	"github.com/okian/formfill/internal/domain/model"
)

// Store provides read/write access to the answer memory.
type Store interface {
	// Get returns the record for a normalized question key.
	// Returns ErrNotFound if the key is unknown.
	Get(ctx context.Context, key string) (model.AnswerRecord, error)

	// Put inserts or replaces the record under rec.Key, last writer wins.
	// Returns true when an existing record held a different answer.
	Put(ctx context.Context, rec model.AnswerRecord) (bool, error)

	// IntentAnswer returns the latest answer given for an intent.
	// Returns ErrNotFound if none was recorded.
	IntentAnswer(ctx context.Context, intent model.Intent) (string, error)

	// PutIntentAnswer records the latest answer for an intent.
	// Returns true when a different answer was replaced.
	PutIntentAnswer(ctx context.Context, intent model.Intent, answer string) (bool, error)

	// List returns records, most recently updated first. limit <= 0 means all.
	List(ctx context.Context, limit int) ([]model.AnswerRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// SaveProfile replaces the stored profile.
	SaveProfile(ctx context.Context, p model.Profile) error

	// LoadProfile returns the stored profile.
	// Returns ErrNotFound if none was saved.
	LoadProfile(ctx context.Context) (model.Profile, error)

	Close() error
}
