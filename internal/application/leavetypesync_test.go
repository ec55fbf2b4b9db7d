package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

const leaveTypeSheet = "/HSIBAdmSys/test/14"

func leaveTypeRecord(ragicID, code, name, multiplier string) model.RemoteRecord {
	return model.RemoteRecord{
		model.RagicIDKey: ragicID,
		"1007001":        code,
		"1007002":        name,
		"1007003":        multiplier,
	}
}

func newLeaveTypeSync(t *testing.T, client *mockRagicClient, store *mockLeaveTypeStore) *LeaveTypeSyncService {
	t.Helper()
	return NewLeaveTypeSyncService(client, store, testRegistry(t), testLogger())
}

func TestLeaveTypeSyncAll(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		leaveTypeSheet: {
			leaveTypeRecord("1", "annual", "Annual Leave", "1"),
			leaveTypeRecord("2", "half_pay_sick", "Sick Leave (half pay)", "0.5"),
		},
	}}
	store := newMockLeaveTypeStore()

	result, err := newLeaveTypeSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0.5, store.types[2].DeductionMultiplier)
}

func TestLeaveTypeSyncDefaultsMultiplier(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		leaveTypeSheet: {leaveTypeRecord("1", "annual", "Annual Leave", "")},
	}}
	store := newMockLeaveTypeStore()

	_, err := newLeaveTypeSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1.0, store.types[1].DeductionMultiplier)
}

func TestLeaveTypeSyncSkipsMissingCode(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		leaveTypeSheet: {leaveTypeRecord("1", "", "Nameless", "1")},
	}}
	store := newMockLeaveTypeStore()

	result, err := newLeaveTypeSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, store.types)
}

func TestLeaveTypeSyncSkipsBadMultiplier(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		leaveTypeSheet: {leaveTypeRecord("1", "annual", "Annual Leave", "half")},
	}}
	store := newMockLeaveTypeStore()

	result, err := newLeaveTypeSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Skipped)
	assert.Empty(t, store.types)
}

func TestLeaveTypeSyncRecordRemovesVanishedRecord(t *testing.T) {
	client := &mockRagicClient{}
	store := newMockLeaveTypeStore()
	store.types[3] = model.LeaveType{RagicID: 3, Code: "annual"}

	require.NoError(t, newLeaveTypeSync(t, client, store).SyncRecord(context.Background(), 3))
	assert.Empty(t, store.types)
}
