package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

// LeaveTypeSyncKey routes leave-type webhooks and status queries to this
// service.
const LeaveTypeSyncKey = "administrative_leave_type"

// Compile-time interface satisfaction check.
var _ Syncer = (*LeaveTypeSyncService)(nil)

// LeaveTypeSyncService mirrors the leave-type master data sheet into the
// local cache.
type LeaveTypeSyncService struct {
	client driven.RagicClient
	store  driven.LeaveTypeStore
	reg    *registry.Registry
	logger *slog.Logger
}

func NewLeaveTypeSyncService(client driven.RagicClient, store driven.LeaveTypeStore, reg *registry.Registry, logger *slog.Logger) *LeaveTypeSyncService {
	return &LeaveTypeSyncService{
		client: client,
		store:  store,
		reg:    reg,
		logger: logger,
	}
}

func (s *LeaveTypeSyncService) Key() string    { return LeaveTypeSyncKey }
func (s *LeaveTypeSyncService) Name() string   { return "leave type sync" }
func (s *LeaveTypeSyncService) Module() string { return "administrative" }

func (s *LeaveTypeSyncService) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	start := time.Now()

	records, err := fetchLogical(ctx, s.client, s.reg, s.formKey(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch leave types: %w", err)
	}

	result := &model.SyncResult{}
	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		lt, err := s.decode(rec)
		if err != nil {
			s.logger.Warn("skipping leave type", "ragic_id", rec.RagicID(), "reason", err)
			result.Skipped++
			continue
		}

		if err := s.store.Upsert(ctx, lt); err != nil {
			s.logger.Error("leave type upsert failed", "ragic_id", lt.RagicID, "error", err)
			result.RecordError(fmt.Sprintf("leave type %d: %v", lt.RagicID, err))
			continue
		}
		result.Synced++
	}

	result.Duration = time.Since(start)
	s.logger.Info("leave type sync complete",
		"fetched", len(records),
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

func (s *LeaveTypeSyncService) SyncRecord(ctx context.Context, ragicID int64) error {
	rec, err := fetchOneLogical(ctx, s.client, s.reg, s.formKey(), ragicID)
	if err != nil {
		return fmt.Errorf("fetch leave type %d: %w", ragicID, err)
	}
	if rec == nil {
		existed, err := s.store.Delete(ctx, ragicID)
		if err != nil {
			return err
		}
		if existed {
			s.logger.Info("removed leave type no longer in ragic", "ragic_id", ragicID)
		}
		return nil
	}

	lt, err := s.decode(rec)
	if err != nil {
		return fmt.Errorf("leave type %d: %w", ragicID, err)
	}
	return s.store.Upsert(ctx, lt)
}

func (s *LeaveTypeSyncService) DeleteRecord(ctx context.Context, ragicID int64) (bool, error) {
	return s.store.Delete(ctx, ragicID)
}

func (s *LeaveTypeSyncService) formKey() string {
	if formKey, ok := s.reg.FormByWebhookKey(LeaveTypeSyncKey); ok {
		return formKey
	}
	return LeaveTypeSyncKey
}

func (s *LeaveTypeSyncService) decode(rec model.RemoteRecord) (model.LeaveType, error) {
	code := rec.Text("CODE")
	if code == "" {
		return model.LeaveType{}, fmt.Errorf("record has no code")
	}

	multiplier, err := rec.Float("DEDUCTION_MULTIPLIER")
	if err != nil {
		return model.LeaveType{}, err
	}
	if multiplier == 0 {
		// Unset multiplier means full deduction.
		multiplier = 1.0
	}

	return model.LeaveType{
		RagicID:             rec.RagicID(),
		Code:                code,
		Name:                rec.Text("NAME"),
		DeductionMultiplier: multiplier,
		LastSyncedAt:        time.Now().UTC(),
	}, nil
}
