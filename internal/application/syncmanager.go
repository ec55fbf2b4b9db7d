package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

// ErrUnknownService is returned for a sync key no service is registered under.
var ErrUnknownService = errors.New("unknown sync service")

// WebhookAction is the change type reported by a Ragic webhook notification.
type WebhookAction string

const (
	ActionCreate WebhookAction = "create"
	ActionUpdate WebhookAction = "update"
	ActionDelete WebhookAction = "delete"
)

// refreshRequest is a manual full-sync trigger handed to the run loop.
type refreshRequest struct {
	key  string // empty means all services
	done chan error
}

// SyncManager owns the registered sync services. It runs the startup sync,
// the optional periodic re-sync, and routes webhook notifications to the
// right service. Registration order is preserved: user identities sync
// before accounts so the account email fallback has a warm user cache.
type SyncManager struct {
	logger    *slog.Logger
	interval  time.Duration
	refreshCh chan refreshRequest

	mu       sync.Mutex
	order    []string
	services map[string]Syncer
	statuses map[string]*model.SyncStatus
}

// NewSyncManager creates a manager. A zero interval disables periodic
// re-sync; webhooks then carry all changes after the startup sync.
func NewSyncManager(interval time.Duration, logger *slog.Logger) *SyncManager {
	return &SyncManager{
		logger:    logger,
		interval:  interval,
		refreshCh: make(chan refreshRequest),
		services:  make(map[string]Syncer),
		statuses:  make(map[string]*model.SyncStatus),
	}
}

// Register adds a sync service under its key. Registering a key twice
// returns a DuplicateKeyError.
func (m *SyncManager) Register(svc Syncer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := svc.Key()
	if _, exists := m.services[key]; exists {
		return &DuplicateKeyError{Key: key}
	}

	m.services[key] = svc
	m.order = append(m.order, key)
	m.statuses[key] = &model.SyncStatus{
		Key:    key,
		Name:   svc.Name(),
		Module: svc.Module(),
		State:  model.SyncStateIdle,
	}
	return nil
}

// Keys returns the registered sync keys in registration order.
func (m *SyncManager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// SyncAll runs every registered service sequentially in registration order.
// One service failing does not stop the others; the first error is returned
// after all services have run.
func (m *SyncManager) SyncAll(ctx context.Context) error {
	var firstErr error
	for _, key := range m.Keys() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.SyncOne(ctx, key); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// SyncOne runs a single service's full sync and records its status.
func (m *SyncManager) SyncOne(ctx context.Context, key string) error {
	svc, err := m.service(key)
	if err != nil {
		return err
	}

	m.setState(key, model.SyncStateSyncing)

	result, err := svc.SyncAll(ctx)
	if err != nil {
		m.logger.Error("sync failed", "service", key, "error", err)
		m.recordResult(key, nil, model.SyncStateError)
		return fmt.Errorf("sync %s: %w", key, err)
	}

	state := model.SyncStateIdle
	if !result.OK() {
		state = model.SyncStateError
	}
	m.recordResult(key, result, state)
	return nil
}

// HandleWebhook applies one record change pushed by a Ragic webhook.
// Create and update (and unknown actions) re-fetch the record; delete
// removes it from the cache.
func (m *SyncManager) HandleWebhook(ctx context.Context, key string, ragicID int64, action WebhookAction) error {
	svc, err := m.service(key)
	if err != nil {
		return err
	}

	switch action {
	case ActionDelete:
		existed, err := svc.DeleteRecord(ctx, ragicID)
		if err != nil {
			return fmt.Errorf("webhook delete %s/%d: %w", key, ragicID, err)
		}
		m.logger.Info("webhook delete applied", "service", key, "ragic_id", ragicID, "existed", existed)
		return nil
	default:
		if err := svc.SyncRecord(ctx, ragicID); err != nil {
			return fmt.Errorf("webhook sync %s/%d: %w", key, ragicID, err)
		}
		m.logger.Info("webhook record synced", "service", key, "ragic_id", ragicID, "action", string(action))
		return nil
	}
}

// Refresh triggers a full sync of one service (or all, with an empty key)
// through the run loop, bypassing the interval. It blocks until the sync
// completes or the context is canceled. Valid only while Start is running.
func (m *SyncManager) Refresh(ctx context.Context, key string) error {
	done := make(chan error, 1)

	select {
	case m.refreshCh <- refreshRequest{key: key, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Statuses returns a snapshot of every service's status, in registration
// order.
func (m *SyncManager) Statuses() []model.SyncStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.SyncStatus, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, *m.statuses[key])
	}
	return out
}

// Start runs the startup sync, then serves refresh requests and the optional
// periodic re-sync until the context is canceled.
func (m *SyncManager) Start(ctx context.Context) {
	if err := m.SyncAll(ctx); err != nil {
		m.logger.Error("startup sync failed", "error", err)
	}

	var tick <-chan time.Time
	if m.interval > 0 {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("sync manager stopped")
			return
		case <-tick:
			if err := m.SyncAll(ctx); err != nil {
				m.logger.Error("periodic sync failed", "error", err)
			}
		case req := <-m.refreshCh:
			req.done <- m.handleRefresh(ctx, req)
		}
	}
}

func (m *SyncManager) handleRefresh(ctx context.Context, req refreshRequest) error {
	if req.key != "" {
		return m.SyncOne(ctx, req.key)
	}
	return m.SyncAll(ctx)
}

func (m *SyncManager) service(key string) (Syncer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	svc, ok := m.services[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, key)
	}
	return svc, nil
}

func (m *SyncManager) setState(key string, state model.SyncState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status, ok := m.statuses[key]; ok {
		status.State = state
	}
}

func (m *SyncManager) recordResult(key string, result *model.SyncResult, state model.SyncState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if status, ok := m.statuses[key]; ok {
		status.State = state
		status.LastSyncAt = time.Now().UTC()
		if result != nil {
			status.LastResult = result
		}
	}
}
