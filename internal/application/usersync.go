package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/blindindex"
	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

// UserSyncKey routes core user webhooks and status queries to this service.
const UserSyncKey = "core_user"

// Compile-time interface satisfaction check.
var _ Syncer = (*UserSyncService)(nil)

// UserSyncService mirrors the user identity sheet into the local user cache.
type UserSyncService struct {
	client driven.RagicClient
	store  driven.UserStore
	reg    *registry.Registry
	hasher *blindindex.Hasher
	logger *slog.Logger
}

func NewUserSyncService(client driven.RagicClient, store driven.UserStore, reg *registry.Registry, hasher *blindindex.Hasher, logger *slog.Logger) *UserSyncService {
	return &UserSyncService{
		client: client,
		store:  store,
		reg:    reg,
		hasher: hasher,
		logger: logger,
	}
}

func (s *UserSyncService) Key() string    { return UserSyncKey }
func (s *UserSyncService) Name() string   { return "user sync" }
func (s *UserSyncService) Module() string { return "core" }

func (s *UserSyncService) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	start := time.Now()

	records, err := fetchLogical(ctx, s.client, s.reg, s.formKey(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	result := &model.SyncResult{}
	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		user, skip := s.decode(rec)
		if skip {
			result.Skipped++
			continue
		}

		if err := s.store.Upsert(ctx, user); err != nil {
			s.logger.Error("user upsert failed", "ragic_id", user.RagicID, "error", err)
			result.RecordError(fmt.Sprintf("user %d: %v", user.RagicID, err))
			continue
		}
		result.Synced++
	}

	result.Duration = time.Since(start)
	s.logger.Info("user sync complete",
		"fetched", len(records),
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

func (s *UserSyncService) SyncRecord(ctx context.Context, ragicID int64) error {
	rec, err := fetchOneLogical(ctx, s.client, s.reg, s.formKey(), ragicID)
	if err != nil {
		return fmt.Errorf("fetch user %d: %w", ragicID, err)
	}
	if rec == nil {
		// Gone remotely; drop the cached row if present.
		existed, err := s.store.Delete(ctx, ragicID)
		if err != nil {
			return err
		}
		if existed {
			s.logger.Info("removed user no longer in ragic", "ragic_id", ragicID)
		}
		return nil
	}

	user, skip := s.decode(rec)
	if skip {
		return fmt.Errorf("user %d: record has no email", ragicID)
	}
	return s.store.Upsert(ctx, user)
}

func (s *UserSyncService) DeleteRecord(ctx context.Context, ragicID int64) (bool, error) {
	return s.store.Delete(ctx, ragicID)
}

func (s *UserSyncService) formKey() string {
	if formKey, ok := s.reg.FormByWebhookKey(UserSyncKey); ok {
		return formKey
	}
	return UserSyncKey
}

// decode builds a user from a logical record. Records without an email carry
// no usable identity and are skipped.
func (s *UserSyncService) decode(rec model.RemoteRecord) (model.User, bool) {
	email := rec.Text("EMAIL")
	if email == "" {
		s.logger.Warn("skipping user without email", "ragic_id", rec.RagicID())
		return model.User{}, true
	}

	lineUserID := rec.Text("LINE_USER_ID")
	return model.User{
		RagicID:      rec.RagicID(),
		Email:        email,
		EmailHash:    s.hasher.SumNormalized(email),
		LineUserID:   lineUserID,
		LineUserHash: s.hasher.Sum(lineUserID),
		DisplayName:  rec.Text("DISPLAY_NAME"),
		IsVerified:   rec.Bool("IS_VERIFIED"),
		LastSyncedAt: time.Now().UTC(),
	}, false
}
