package driven

import (
	"context"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// LeaveTypeStore persists the local leave-type master data cache.
type LeaveTypeStore interface {
	// Upsert inserts or updates a leave type keyed by its Ragic record id.
	Upsert(ctx context.Context, lt model.LeaveType) error

	// GetByRagicID returns nil, nil when the leave type does not exist.
	GetByRagicID(ctx context.Context, ragicID int64) (*model.LeaveType, error)

	// GetByCode returns nil, nil when no leave type has the code.
	GetByCode(ctx context.Context, code string) (*model.LeaveType, error)

	ListAll(ctx context.Context) ([]model.LeaveType, error)

	// Delete removes a leave type by Ragic id, reporting whether a row existed.
	Delete(ctx context.Context, ragicID int64) (bool, error)
}
