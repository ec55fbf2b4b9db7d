// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

// Syncer is one domain's synchronization service: it pulls records from a
// Ragic sheet into the local cache, and applies single-record changes pushed
// by webhooks.
type Syncer interface {
	// Key is the stable identifier used for webhook routing and status
	// reporting, e.g. "core_user".
	Key() string

	// Name is a human-readable service name for logs and status output.
	Name() string

	// Module names the owning domain module, e.g. "administrative".
	Module() string

	// SyncAll fetches every record of the sheet and upserts it locally.
	// A fetch failure aborts the run; per-record failures are recorded in
	// the result and do not stop the remaining records.
	SyncAll(ctx context.Context) (*model.SyncResult, error)

	// SyncRecord fetches one record by Ragic id and upserts it. A record
	// that no longer exists remotely is removed from the cache.
	SyncRecord(ctx context.Context, ragicID int64) error

	// DeleteRecord removes a record from the local cache, reporting whether
	// it existed.
	DeleteRecord(ctx context.Context, ragicID int64) (bool, error)
}

// DuplicateKeyError reports a second service registration under an
// already-taken sync key.
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("sync service key %q already registered", e.Key)
}

// fetchLogical lists all records of a form and remaps them from field ids to
// the logical names in the registry mapping. The Ragic id rides along.
func fetchLogical(ctx context.Context, client driven.RagicClient, reg *registry.Registry, formKey string, filters map[string]string) ([]model.RemoteRecord, error) {
	sheetPath, err := reg.SheetPath(formKey)
	if err != nil {
		return nil, err
	}

	records, err := client.ListRecords(ctx, sheetPath, filters)
	if err != nil {
		return nil, err
	}

	mapping, err := reg.FieldMapping(formKey)
	if err != nil {
		return nil, err
	}

	logical := make([]model.RemoteRecord, 0, len(records))
	for _, rec := range records {
		logical = append(logical, remapRecord(mapping, rec))
	}
	return logical, nil
}

// fetchOneLogical fetches a single record remapped to logical names.
// Returns nil, nil when the record does not exist remotely.
func fetchOneLogical(ctx context.Context, client driven.RagicClient, reg *registry.Registry, formKey string, ragicID int64) (model.RemoteRecord, error) {
	sheetPath, err := reg.SheetPath(formKey)
	if err != nil {
		return nil, err
	}

	rec, err := client.GetRecord(ctx, sheetPath, ragicID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	mapping, err := reg.FieldMapping(formKey)
	if err != nil {
		return nil, err
	}
	return remapRecord(mapping, rec), nil
}

func remapRecord(mapping map[string]string, rec model.RemoteRecord) model.RemoteRecord {
	logical := make(model.RemoteRecord, len(mapping)+1)
	logical[model.RagicIDKey] = rec.Get(model.RagicIDKey)
	for name, fieldID := range mapping {
		logical[name] = rec.Get(fieldID)
	}
	return logical
}
