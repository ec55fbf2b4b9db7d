package driven

import (
	"context"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// UserStore persists the local user identity cache.
type UserStore interface {
	// Upsert inserts or updates a user keyed by its Ragic record id.
	Upsert(ctx context.Context, user model.User) error

	// GetByRagicID returns nil, nil when the user does not exist.
	GetByRagicID(ctx context.Context, ragicID int64) (*model.User, error)

	// FindVerifiedByDisplayName returns all verified users with the exact
	// display name. Callers treat more than one match as ambiguous.
	FindVerifiedByDisplayName(ctx context.Context, displayName string) ([]model.User, error)

	// FindByEmailHash looks a user up by the blind index of their email.
	// Returns nil, nil when no user matches.
	FindByEmailHash(ctx context.Context, emailHash string) (*model.User, error)

	ListAll(ctx context.Context) ([]model.User, error)

	// Delete removes a user by Ragic id, reporting whether a row existed.
	Delete(ctx context.Context, ragicID int64) (bool, error)
}
