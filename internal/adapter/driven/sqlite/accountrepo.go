package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.AccountStore = (*AccountRepo)(nil)

// AccountRepo is the SQLite implementation of the AccountStore port interface.
type AccountRepo struct {
	db *DB
}

// NewAccountRepo creates a new AccountRepo backed by the given DB.
func NewAccountRepo(db *DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Upsert inserts or replaces an account keyed by its Ragic record id.
// Zero dates are stored as NULL.
func (r *AccountRepo) Upsert(ctx context.Context, account model.Account) error {
	const query = `
		INSERT INTO accounts (
			ragic_id, employee_id, name, display_name, email, email_hash,
			department, status, effective_date, resignation_date, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ragic_id) DO UPDATE SET
			employee_id = excluded.employee_id,
			name = excluded.name,
			display_name = excluded.display_name,
			email = excluded.email,
			email_hash = excluded.email_hash,
			department = excluded.department,
			status = excluded.status,
			effective_date = excluded.effective_date,
			resignation_date = excluded.resignation_date,
			last_synced_at = excluded.last_synced_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		account.RagicID, account.EmployeeID, account.Name, account.DisplayName,
		account.Email, account.EmailHash, account.Department, account.Status,
		nullableTime(account.EffectiveDate), nullableTime(account.ResignationDate),
		account.LastSyncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert account %d: %w", account.RagicID, err)
	}

	return nil
}

// GetByRagicID retrieves an account by its Ragic record id.
// Returns nil, nil if the account does not exist.
func (r *AccountRepo) GetByRagicID(ctx context.Context, ragicID int64) (*model.Account, error) {
	const query = accountSelect + ` WHERE ragic_id = ?`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, ragicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", ragicID, err)
	}
	return &account, nil
}

// FindByEmailHash retrieves an account by the blind index of its email.
// Returns nil, nil if no account matches.
func (r *AccountRepo) FindByEmailHash(ctx context.Context, emailHash string) (*model.Account, error) {
	const query = accountSelect + ` WHERE email_hash = ? LIMIT 1`

	account, err := scanAccount(r.db.Reader.QueryRowContext(ctx, query, emailHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find account by email hash: %w", err)
	}
	return &account, nil
}

// ListAll returns all cached accounts ordered by employee id.
func (r *AccountRepo) ListAll(ctx context.Context) ([]model.Account, error) {
	const query = accountSelect + ` ORDER BY employee_id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes an account by Ragic id, reporting whether a row existed.
func (r *AccountRepo) Delete(ctx context.Context, ragicID int64) (bool, error) {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM accounts WHERE ragic_id = ?`, ragicID)
	if err != nil {
		return false, fmt.Errorf("delete account %d: %w", ragicID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete account %d: %w", ragicID, err)
	}
	return affected > 0, nil
}

const accountSelect = `
	SELECT ragic_id, employee_id, name, display_name, email, email_hash,
	       department, status, effective_date, resignation_date, last_synced_at
	FROM accounts`

func scanAccount(row rowScanner) (model.Account, error) {
	var account model.Account
	var effective, resignation sql.NullTime

	err := row.Scan(
		&account.RagicID, &account.EmployeeID, &account.Name, &account.DisplayName,
		&account.Email, &account.EmailHash, &account.Department, &account.Status,
		&effective, &resignation, &account.LastSyncedAt,
	)
	if err != nil {
		return model.Account{}, err
	}

	if effective.Valid {
		account.EffectiveDate = effective.Time
	}
	if resignation.Valid {
		account.ResignationDate = resignation.Time
	}
	return account, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
