package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/ragicsync/internal/blindindex"
	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/registry"
)

const syncTestRegistry = `{
	"schema_version": "1",
	"forms": {
		"user_form": {
			"ragic_path": "/HSIBAdmSys/test/5",
			"webhook_key": "core_user",
			"field_mapping": {
				"EMAIL": "1001001",
				"LINE_USER_ID": "1001002",
				"DISPLAY_NAME": "1001003",
				"IS_VERIFIED": "1001004"
			}
		},
		"account_form": {
			"ragic_path": "/HSIBAdmSys/test/11",
			"webhook_key": "administrative_account",
			"field_mapping": {
				"EMPLOYEE_ID": "1005971",
				"NAME": "1005975",
				"DISPLAY_NAME": "1006076",
				"EMAIL": "1006073",
				"DEPARTMENT": "1005980",
				"STATUS": "1005985",
				"EFFECTIVE_DATE": "1005990",
				"RESIGNATION_DATE": "1005995"
			}
		},
		"leave_type_form": {
			"ragic_path": "/HSIBAdmSys/test/14",
			"webhook_key": "administrative_leave_type",
			"field_mapping": {
				"CODE": "1007001",
				"NAME": "1007002",
				"DEDUCTION_MULTIPLIER": "1007003"
			}
		}
	}
}`

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(syncTestRegistry), 0o600))
	reg, err := registry.Load(path)
	require.NoError(t, err)
	return reg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testHasher() *blindindex.Hasher {
	return blindindex.New([]byte("0123456789abcdef0123456789abcdef"))
}

// mockRagicClient serves canned records per sheet path.
type mockRagicClient struct {
	recordsBySheet map[string][]model.RemoteRecord
	listErr        error
	getErr         error
}

func (m *mockRagicClient) ListRecords(_ context.Context, sheetPath string, _ map[string]string) ([]model.RemoteRecord, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.recordsBySheet[sheetPath], nil
}

func (m *mockRagicClient) GetRecord(_ context.Context, sheetPath string, ragicID int64) (model.RemoteRecord, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, rec := range m.recordsBySheet[sheetPath] {
		if rec.RagicID() == ragicID {
			return rec, nil
		}
	}
	return nil, nil
}

func (m *mockRagicClient) CreateRecord(_ context.Context, _ string, _ map[string]string) (int64, error) {
	return 0, errors.New("not implemented")
}

func (m *mockRagicClient) UpdateRecord(_ context.Context, _ string, _ int64, _ map[string]string) error {
	return errors.New("not implemented")
}

func (m *mockRagicClient) DeleteRecord(_ context.Context, _ string, _ int64) error {
	return errors.New("not implemented")
}

// mockUserStore is an in-memory UserStore.
type mockUserStore struct {
	users       map[int64]model.User
	upsertErrOn int64 // Upsert fails for this ragic id
	deleted     []int64
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[int64]model.User)}
}

func (m *mockUserStore) Upsert(_ context.Context, user model.User) error {
	if m.upsertErrOn != 0 && user.RagicID == m.upsertErrOn {
		return errors.New("store write failed")
	}
	m.users[user.RagicID] = user
	return nil
}

func (m *mockUserStore) GetByRagicID(_ context.Context, ragicID int64) (*model.User, error) {
	if user, ok := m.users[ragicID]; ok {
		return &user, nil
	}
	return nil, nil
}

func (m *mockUserStore) FindVerifiedByDisplayName(_ context.Context, displayName string) ([]model.User, error) {
	var matches []model.User
	for _, user := range m.users {
		if user.IsVerified && user.DisplayName == displayName {
			matches = append(matches, user)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].RagicID < matches[j].RagicID })
	return matches, nil
}

func (m *mockUserStore) FindByEmailHash(_ context.Context, emailHash string) (*model.User, error) {
	for _, user := range m.users {
		if user.EmailHash == emailHash {
			u := user
			return &u, nil
		}
	}
	return nil, nil
}

func (m *mockUserStore) ListAll(_ context.Context) ([]model.User, error) {
	var all []model.User
	for _, user := range m.users {
		all = append(all, user)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RagicID < all[j].RagicID })
	return all, nil
}

func (m *mockUserStore) Delete(_ context.Context, ragicID int64) (bool, error) {
	m.deleted = append(m.deleted, ragicID)
	if _, ok := m.users[ragicID]; !ok {
		return false, nil
	}
	delete(m.users, ragicID)
	return true, nil
}

// mockAccountStore is an in-memory AccountStore.
type mockAccountStore struct {
	accounts    map[int64]model.Account
	upsertErrOn int64
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{accounts: make(map[int64]model.Account)}
}

func (m *mockAccountStore) Upsert(_ context.Context, account model.Account) error {
	if m.upsertErrOn != 0 && account.RagicID == m.upsertErrOn {
		return errors.New("store write failed")
	}
	m.accounts[account.RagicID] = account
	return nil
}

func (m *mockAccountStore) GetByRagicID(_ context.Context, ragicID int64) (*model.Account, error) {
	if account, ok := m.accounts[ragicID]; ok {
		return &account, nil
	}
	return nil, nil
}

func (m *mockAccountStore) FindByEmailHash(_ context.Context, emailHash string) (*model.Account, error) {
	for _, account := range m.accounts {
		if account.EmailHash == emailHash {
			a := account
			return &a, nil
		}
	}
	return nil, nil
}

func (m *mockAccountStore) ListAll(_ context.Context) ([]model.Account, error) {
	var all []model.Account
	for _, account := range m.accounts {
		all = append(all, account)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].RagicID < all[j].RagicID })
	return all, nil
}

func (m *mockAccountStore) Delete(_ context.Context, ragicID int64) (bool, error) {
	if _, ok := m.accounts[ragicID]; !ok {
		return false, nil
	}
	delete(m.accounts, ragicID)
	return true, nil
}

// mockLeaveTypeStore is an in-memory LeaveTypeStore.
type mockLeaveTypeStore struct {
	types map[int64]model.LeaveType
}

func newMockLeaveTypeStore() *mockLeaveTypeStore {
	return &mockLeaveTypeStore{types: make(map[int64]model.LeaveType)}
}

func (m *mockLeaveTypeStore) Upsert(_ context.Context, lt model.LeaveType) error {
	m.types[lt.RagicID] = lt
	return nil
}

func (m *mockLeaveTypeStore) GetByRagicID(_ context.Context, ragicID int64) (*model.LeaveType, error) {
	if lt, ok := m.types[ragicID]; ok {
		return &lt, nil
	}
	return nil, nil
}

func (m *mockLeaveTypeStore) GetByCode(_ context.Context, code string) (*model.LeaveType, error) {
	for _, lt := range m.types {
		if lt.Code == code {
			l := lt
			return &l, nil
		}
	}
	return nil, nil
}

func (m *mockLeaveTypeStore) ListAll(_ context.Context) ([]model.LeaveType, error) {
	var all []model.LeaveType
	for _, lt := range m.types {
		all = append(all, lt)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all, nil
}

func (m *mockLeaveTypeStore) Delete(_ context.Context, ragicID int64) (bool, error) {
	if _, ok := m.types[ragicID]; !ok {
		return false, nil
	}
	delete(m.types, ragicID)
	return true, nil
}
