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

// AccountSyncKey routes administrative account webhooks and status queries
// to this service.
const AccountSyncKey = "administrative_account"

// Compile-time interface satisfaction check.
var _ Syncer = (*AccountSyncService)(nil)

// AccountSyncService mirrors the employee account sheet into the local
// account cache. Accounts without an email fall back to the user identity
// cache: a single verified user with the exact same display name donates
// their email. Every fallback hit is logged for audit; no match, or an
// ambiguous name (more than one match), skips the record.
type AccountSyncService struct {
	client driven.RagicClient
	store  driven.AccountStore
	users  driven.UserStore
	reg    *registry.Registry
	hasher *blindindex.Hasher
	logger *slog.Logger
}

func NewAccountSyncService(client driven.RagicClient, store driven.AccountStore, users driven.UserStore, reg *registry.Registry, hasher *blindindex.Hasher, logger *slog.Logger) *AccountSyncService {
	return &AccountSyncService{
		client: client,
		store:  store,
		users:  users,
		reg:    reg,
		hasher: hasher,
		logger: logger,
	}
}

func (s *AccountSyncService) Key() string    { return AccountSyncKey }
func (s *AccountSyncService) Name() string   { return "account sync" }
func (s *AccountSyncService) Module() string { return "administrative" }

func (s *AccountSyncService) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	start := time.Now()

	records, err := fetchLogical(ctx, s.client, s.reg, s.formKey(), nil)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}

	result := &model.SyncResult{}
	for _, rec := range records {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.syncOne(ctx, rec, result)
	}

	result.Duration = time.Since(start)
	s.logger.Info("account sync complete",
		"fetched", len(records),
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return result, nil
}

func (s *AccountSyncService) SyncRecord(ctx context.Context, ragicID int64) error {
	rec, err := fetchOneLogical(ctx, s.client, s.reg, s.formKey(), ragicID)
	if err != nil {
		return fmt.Errorf("fetch account %d: %w", ragicID, err)
	}
	if rec == nil {
		existed, err := s.store.Delete(ctx, ragicID)
		if err != nil {
			return err
		}
		if existed {
			s.logger.Info("removed account no longer in ragic", "ragic_id", ragicID)
		}
		return nil
	}

	result := &model.SyncResult{}
	s.syncOne(ctx, rec, result)
	if result.Failed > 0 {
		return fmt.Errorf("account %d: %s", ragicID, result.Errors[0])
	}
	if result.Skipped > 0 {
		return fmt.Errorf("account %d: record skipped", ragicID)
	}
	return nil
}

func (s *AccountSyncService) DeleteRecord(ctx context.Context, ragicID int64) (bool, error) {
	return s.store.Delete(ctx, ragicID)
}

func (s *AccountSyncService) formKey() string {
	if formKey, ok := s.reg.FormByWebhookKey(AccountSyncKey); ok {
		return formKey
	}
	return AccountSyncKey
}

func (s *AccountSyncService) syncOne(ctx context.Context, rec model.RemoteRecord, result *model.SyncResult) {
	account, err := s.decode(ctx, rec)
	if err != nil {
		s.logger.Warn("skipping account", "ragic_id", rec.RagicID(), "reason", err)
		result.Skipped++
		return
	}

	if err := s.store.Upsert(ctx, account); err != nil {
		s.logger.Error("account upsert failed", "ragic_id", account.RagicID, "error", err)
		result.RecordError(fmt.Sprintf("account %d: %v", account.RagicID, err))
		return
	}
	result.Synced++
}

func (s *AccountSyncService) decode(ctx context.Context, rec model.RemoteRecord) (model.Account, error) {
	employeeID := rec.Text("EMPLOYEE_ID")
	if employeeID == "" {
		return model.Account{}, fmt.Errorf("record has no employee id")
	}

	effective, err := rec.Date("EFFECTIVE_DATE")
	if err != nil {
		return model.Account{}, err
	}
	resignation, err := rec.Date("RESIGNATION_DATE")
	if err != nil {
		return model.Account{}, err
	}

	displayName := rec.Text("DISPLAY_NAME")
	email := rec.Text("EMAIL")
	if email == "" {
		email, err = s.emailFromUserCache(ctx, rec.RagicID(), employeeID, displayName)
		if err != nil {
			return model.Account{}, err
		}
	}

	return model.Account{
		RagicID:         rec.RagicID(),
		EmployeeID:      employeeID,
		Name:            rec.Text("NAME"),
		DisplayName:     displayName,
		Email:           email,
		EmailHash:       s.hasher.SumNormalized(email),
		Department:      rec.Text("DEPARTMENT"),
		Status:          rec.Text("STATUS"),
		EffectiveDate:   effective,
		ResignationDate: resignation,
		LastSyncedAt:    time.Now().UTC(),
	}, nil
}

// emailFromUserCache resolves a missing account email through the verified
// user cache by exact display-name match. One match donates its email.
// No match or more than one match is an error, which skips the record: an
// account is never cached with an email it cannot resolve.
func (s *AccountSyncService) emailFromUserCache(ctx context.Context, ragicID int64, employeeID, displayName string) (string, error) {
	if displayName == "" {
		return "", fmt.Errorf("record has no email and no display name to resolve one")
	}

	matches, err := s.users.FindVerifiedByDisplayName(ctx, displayName)
	if err != nil {
		return "", fmt.Errorf("user cache lookup: %w", err)
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no verified user matches display name %q", displayName)
	case 1:
		s.logger.Warn("account email resolved from user cache",
			"ragic_id", ragicID,
			"employee_id", employeeID,
			"display_name", displayName,
			"user_ragic_id", matches[0].RagicID,
		)
		return matches[0].Email, nil
	default:
		return "", fmt.Errorf("display name %q matches %d verified users", displayName, len(matches))
	}
}
