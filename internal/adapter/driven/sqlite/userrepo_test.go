package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

func testUser(ragicID int64) model.User {
	return model.User{
		RagicID:      ragicID,
		Email:        "alice@example.com",
		EmailHash:    "hash-alice",
		LineUserID:   "U123",
		LineUserHash: "hash-line",
		DisplayName:  "Alice Chen",
		IsVerified:   true,
		LastSyncedAt: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestUserRepoUpsertAndGet(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testUser(42)))

	got, err := repo.GetByRagicID(ctx, 42)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "hash-alice", got.EmailHash)
	assert.True(t, got.IsVerified)
}

func TestUserRepoUpsertIsIdempotent(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	user := testUser(42)
	require.NoError(t, repo.Upsert(ctx, user))

	user.DisplayName = "Alice C."
	user.IsVerified = false
	require.NoError(t, repo.Upsert(ctx, user))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Alice C.", all[0].DisplayName)
	assert.False(t, all[0].IsVerified)
}

func TestUserRepoGetAbsent(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))

	got, err := repo.GetByRagicID(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoFindVerifiedByDisplayName(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	verified := testUser(1)
	unverified := testUser(2)
	unverified.IsVerified = false
	other := testUser(3)
	other.DisplayName = "Bob Lin"
	require.NoError(t, repo.Upsert(ctx, verified))
	require.NoError(t, repo.Upsert(ctx, unverified))
	require.NoError(t, repo.Upsert(ctx, other))

	matches, err := repo.FindVerifiedByDisplayName(ctx, "Alice Chen")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, int64(1), matches[0].RagicID)

	// Two verified users with the same name both come back; the caller
	// decides what ambiguity means.
	second := testUser(4)
	require.NoError(t, repo.Upsert(ctx, second))
	matches, err = repo.FindVerifiedByDisplayName(ctx, "Alice Chen")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestUserRepoFindByEmailHash(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testUser(42)))

	got, err := repo.FindByEmailHash(ctx, "hash-alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(42), got.RagicID)

	got, err = repo.FindByEmailHash(ctx, "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserRepoDelete(t *testing.T) {
	repo := NewUserRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testUser(42)))

	existed, err := repo.Delete(ctx, 42)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, 42)
	require.NoError(t, err)
	assert.False(t, existed)
}
