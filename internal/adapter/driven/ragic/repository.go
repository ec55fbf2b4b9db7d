package ragic

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

// Codec maps between a domain entity and the flat field values of one sheet.
// Encode keys are logical field names from the registry, not remote ids.
type Codec[T any] interface {
	Decode(rec model.RemoteRecord) (T, error)
	Encode(entity T) map[string]string
	RagicID(entity T) int64
}

// Repository is a typed remote-sheet accessor. Field names resolve through
// the registry on every call, so a registry reload takes effect immediately.
type Repository[T any] struct {
	client  driven.RagicClient
	reg     *registry.Registry
	formKey string
	codec   Codec[T]
}

func NewRepository[T any](client driven.RagicClient, reg *registry.Registry, formKey string, codec Codec[T]) *Repository[T] {
	return &Repository[T]{
		client:  client,
		reg:     reg,
		formKey: formKey,
		codec:   codec,
	}
}

// FindAll fetches and decodes every record of the sheet. Records that fail
// to decode abort the call; per-record tolerance belongs to sync services,
// which work on raw records.
func (r *Repository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.FindBy(ctx, nil)
}

// FindBy fetches records matching exact-value filters keyed by logical
// field name.
func (r *Repository[T]) FindBy(ctx context.Context, filters map[string]string) ([]T, error) {
	sheetPath, err := r.reg.SheetPath(r.formKey)
	if err != nil {
		return nil, err
	}

	remoteFilters, err := r.resolveFilters(filters)
	if err != nil {
		return nil, err
	}

	records, err := r.client.ListRecords(ctx, sheetPath, remoteFilters)
	if err != nil {
		return nil, err
	}

	mapping, err := r.reg.FieldMapping(r.formKey)
	if err != nil {
		return nil, err
	}

	entities := make([]T, 0, len(records))
	for _, rec := range records {
		entity, err := r.decodeRecord(mapping, rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.RagicID(), err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// FindOneBy returns the first match or nil, nil when nothing matches.
func (r *Repository[T]) FindOneBy(ctx context.Context, filters map[string]string) (*T, error) {
	entities, err := r.FindBy(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, nil
	}
	return &entities[0], nil
}

// Get fetches one record by remote id. Returns nil, nil when absent.
func (r *Repository[T]) Get(ctx context.Context, ragicID int64) (*T, error) {
	sheetPath, err := r.reg.SheetPath(r.formKey)
	if err != nil {
		return nil, err
	}

	rec, err := r.client.GetRecord(ctx, sheetPath, ragicID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	mapping, err := r.reg.FieldMapping(r.formKey)
	if err != nil {
		return nil, err
	}

	entity, err := r.decodeRecord(mapping, rec)
	if err != nil {
		return nil, fmt.Errorf("record %d: %w", ragicID, err)
	}
	return &entity, nil
}

// decodeRecord translates a remote record keyed by field id into one keyed by
// logical field name, then hands it to the codec. Fields absent from the
// mapping are dropped.
func (r *Repository[T]) decodeRecord(mapping map[string]string, rec model.RemoteRecord) (T, error) {
	logical := make(model.RemoteRecord, len(mapping)+1)
	logical[model.RagicIDKey] = rec.Get(model.RagicIDKey)
	for name, fieldID := range mapping {
		logical[name] = rec.Get(fieldID)
	}
	return r.codec.Decode(logical)
}

// Save creates the entity remotely when it has no id yet, otherwise updates
// the existing record. Returns the record id either way.
func (r *Repository[T]) Save(ctx context.Context, entity T) (int64, error) {
	sheetPath, err := r.reg.SheetPath(r.formKey)
	if err != nil {
		return 0, err
	}

	fields, err := r.resolveFields(r.codec.Encode(entity))
	if err != nil {
		return 0, err
	}

	ragicID := r.codec.RagicID(entity)
	if ragicID == 0 {
		return r.client.CreateRecord(ctx, sheetPath, fields)
	}
	if err := r.client.UpdateRecord(ctx, sheetPath, ragicID, fields); err != nil {
		return 0, err
	}
	return ragicID, nil
}

// Delete removes the entity's remote record.
func (r *Repository[T]) Delete(ctx context.Context, entity T) error {
	sheetPath, err := r.reg.SheetPath(r.formKey)
	if err != nil {
		return err
	}
	ragicID := r.codec.RagicID(entity)
	if ragicID == 0 {
		return fmt.Errorf("cannot delete %s record without an id", r.formKey)
	}
	return r.client.DeleteRecord(ctx, sheetPath, ragicID)
}

func (r *Repository[T]) resolveFilters(filters map[string]string) (map[string]string, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	return r.resolveFields(filters)
}

func (r *Repository[T]) resolveFields(byName map[string]string) (map[string]string, error) {
	resolved := make(map[string]string, len(byName))
	for name, value := range byName {
		fieldID, err := r.reg.FieldID(r.formKey, name)
		if err != nil {
			return nil, err
		}
		resolved[fieldID] = value
	}
	return resolved, nil
}
