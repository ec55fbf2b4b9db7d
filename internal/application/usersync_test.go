package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

const userSheet = "/HSIBAdmSys/test/5"

func userRecord(ragicID, email, name string, verified string) model.RemoteRecord {
	return model.RemoteRecord{
		model.RagicIDKey: ragicID,
		"1001001":        email,
		"1001003":        name,
		"1001004":        verified,
	}
}

func newUserSync(t *testing.T, client *mockRagicClient, store *mockUserStore) *UserSyncService {
	t.Helper()
	return NewUserSyncService(client, store, testRegistry(t), testHasher(), testLogger())
}

func TestUserSyncAll(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		userSheet: {
			userRecord("1", "alice@example.com", "Alice Chen", "true"),
			userRecord("2", "bob@example.com", "Bob Lin", "false"),
		},
	}}
	store := newMockUserStore()

	result, err := newUserSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 0, result.Skipped)
	assert.True(t, result.OK())

	alice := store.users[1]
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Len(t, alice.EmailHash, 64)
	assert.True(t, alice.IsVerified)
	assert.False(t, store.users[2].IsVerified)
	assert.False(t, alice.LastSyncedAt.IsZero())
}

func TestUserSyncAllSkipsRecordsWithoutEmail(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		userSheet: {
			userRecord("1", "alice@example.com", "Alice Chen", "true"),
			userRecord("2", "", "No Email", "true"),
		},
	}}
	store := newMockUserStore()

	result, err := newUserSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Synced)
	assert.Equal(t, 1, result.Skipped)
	assert.Len(t, store.users, 1)
}

func TestUserSyncAllIsolatesStoreFailures(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		userSheet: {
			userRecord("1", "alice@example.com", "Alice Chen", "true"),
			userRecord("2", "bob@example.com", "Bob Lin", "true"),
			userRecord("3", "carol@example.com", "Carol Wu", "true"),
		},
	}}
	store := newMockUserStore()
	store.upsertErrOn = 2

	result, err := newUserSync(t, client, store).SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Synced)
	assert.Equal(t, 1, result.Failed)
	assert.False(t, result.OK())
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "user 2")
}

func TestUserSyncAllAbortsOnFetchFailure(t *testing.T) {
	client := &mockRagicClient{listErr: errors.New("connection refused")}
	store := newMockUserStore()

	_, err := newUserSync(t, client, store).SyncAll(context.Background())
	require.Error(t, err)
	assert.Empty(t, store.users)
}

func TestUserSyncRecord(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		userSheet: {userRecord("42", "alice@example.com", "Alice Chen", "true")},
	}}
	store := newMockUserStore()

	require.NoError(t, newUserSync(t, client, store).SyncRecord(context.Background(), 42))
	assert.Equal(t, "alice@example.com", store.users[42].Email)
}

func TestUserSyncRecordRemovesVanishedRecord(t *testing.T) {
	client := &mockRagicClient{}
	store := newMockUserStore()
	store.users[42] = model.User{RagicID: 42}

	require.NoError(t, newUserSync(t, client, store).SyncRecord(context.Background(), 42))
	assert.Empty(t, store.users)
	assert.Equal(t, []int64{42}, store.deleted)
}

func TestUserSyncIdempotent(t *testing.T) {
	client := &mockRagicClient{recordsBySheet: map[string][]model.RemoteRecord{
		userSheet: {userRecord("1", "alice@example.com", "Alice Chen", "true")},
	}}
	store := newMockUserStore()
	svc := newUserSync(t, client, store)

	_, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	_, err = svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Len(t, store.users, 1)
}
