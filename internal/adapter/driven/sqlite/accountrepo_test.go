package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
)

func testAccount(ragicID int64) model.Account {
	return model.Account{
		RagicID:       ragicID,
		EmployeeID:    "E12345",
		Name:          "Chen, Alice",
		DisplayName:   "Alice Chen",
		Email:         "alice@example.com",
		EmailHash:     "hash-alice",
		Department:    "Engineering",
		Status:        "active",
		EffectiveDate: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		LastSyncedAt:  time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestAccountRepoUpsertAndGet(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testAccount(7)))

	got, err := repo.GetByRagicID(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "E12345", got.EmployeeID)
	assert.Equal(t, "Engineering", got.Department)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), got.EffectiveDate)
	assert.True(t, got.ResignationDate.IsZero())
}

func TestAccountRepoUpsertIsIdempotent(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	account := testAccount(7)
	require.NoError(t, repo.Upsert(ctx, account))

	account.Status = "resigned"
	account.ResignationDate = time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, account))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "resigned", all[0].Status)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), all[0].ResignationDate)
}

func TestAccountRepoFindByEmailHash(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testAccount(7)))

	got, err := repo.FindByEmailHash(ctx, "hash-alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), got.RagicID)

	got, err = repo.FindByEmailHash(ctx, "no-such-hash")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAccountRepoListAllOrdersByEmployeeID(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	second := testAccount(2)
	second.EmployeeID = "E20000"
	second.EmailHash = "hash-2"
	first := testAccount(1)
	first.EmployeeID = "E10000"
	first.EmailHash = "hash-1"
	require.NoError(t, repo.Upsert(ctx, second))
	require.NoError(t, repo.Upsert(ctx, first))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "E10000", all[0].EmployeeID)
	assert.Equal(t, "E20000", all[1].EmployeeID)
}

func TestAccountRepoDelete(t *testing.T) {
	repo := NewAccountRepo(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, testAccount(7)))

	existed, err := repo.Delete(ctx, 7)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = repo.Delete(ctx, 7)
	require.NoError(t, err)
	assert.False(t, existed)
}
