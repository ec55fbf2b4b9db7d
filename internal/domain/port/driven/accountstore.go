package driven

import (
	"context"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// AccountStore persists the local employee account cache.
type AccountStore interface {
	// Upsert inserts or updates an account keyed by its Ragic record id.
	Upsert(ctx context.Context, account model.Account) error

	// GetByRagicID returns nil, nil when the account does not exist.
	GetByRagicID(ctx context.Context, ragicID int64) (*model.Account, error)

	// FindByEmailHash looks an account up by the blind index of its email.
	// Returns nil, nil when no account matches.
	FindByEmailHash(ctx context.Context, emailHash string) (*model.Account, error)

	ListAll(ctx context.Context) ([]model.Account, error)

	// Delete removes an account by Ragic id, reporting whether a row existed.
	Delete(ctx context.Context, ragicID int64) (bool, error)
}
