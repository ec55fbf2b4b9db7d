// Package driven defines the port interfaces implemented by driven adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// RagicClient is the port to the remote record store. Implementations handle
// authentication, pagination, and bounded retry of transient failures;
// non-retryable failures surface to the caller with HTTP status detail.
type RagicClient interface {
	// ListRecords fetches all records of a sheet, paging internally.
	// Filters are remote field id -> exact value.
	ListRecords(ctx context.Context, sheetPath string, filters map[string]string) ([]model.RemoteRecord, error)

	// GetRecord fetches a single record by its remote id. Returns nil, nil
	// when the record does not exist.
	GetRecord(ctx context.Context, sheetPath string, ragicID int64) (model.RemoteRecord, error)

	// CreateRecord creates a record and returns the remote-assigned id.
	CreateRecord(ctx context.Context, sheetPath string, fields map[string]string) (int64, error)

	// UpdateRecord overwrites the given fields of an existing record.
	UpdateRecord(ctx context.Context, sheetPath string, ragicID int64, fields map[string]string) error

	// DeleteRecord removes a record from the remote store.
	DeleteRecord(ctx context.Context, sheetPath string, ragicID int64) error
}
