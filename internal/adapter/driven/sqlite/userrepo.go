package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.UserStore = (*UserRepo)(nil)

// UserRepo is the SQLite implementation of the UserStore port interface.
type UserRepo struct {
	db *DB
}

// NewUserRepo creates a new UserRepo backed by the given DB.
func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

// Upsert inserts or replaces a user keyed by its Ragic record id.
func (r *UserRepo) Upsert(ctx context.Context, user model.User) error {
	const query = `
		INSERT INTO users (
			ragic_id, email, email_hash, line_user_id, line_user_hash,
			display_name, is_verified, last_synced_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ragic_id) DO UPDATE SET
			email = excluded.email,
			email_hash = excluded.email_hash,
			line_user_id = excluded.line_user_id,
			line_user_hash = excluded.line_user_hash,
			display_name = excluded.display_name,
			is_verified = excluded.is_verified,
			last_synced_at = excluded.last_synced_at
	`

	isVerified := 0
	if user.IsVerified {
		isVerified = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		user.RagicID, user.Email, user.EmailHash, user.LineUserID, user.LineUserHash,
		user.DisplayName, isVerified, user.LastSyncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert user %d: %w", user.RagicID, err)
	}

	return nil
}

// GetByRagicID retrieves a user by its Ragic record id.
// Returns nil, nil if the user does not exist.
func (r *UserRepo) GetByRagicID(ctx context.Context, ragicID int64) (*model.User, error) {
	const query = userSelect + ` WHERE ragic_id = ?`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, ragicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", ragicID, err)
	}
	return &user, nil
}

// FindVerifiedByDisplayName returns all verified users with the exact display
// name, ordered by Ragic id.
func (r *UserRepo) FindVerifiedByDisplayName(ctx context.Context, displayName string) ([]model.User, error) {
	const query = userSelect + ` WHERE display_name = ? AND is_verified = 1 ORDER BY ragic_id`

	return r.queryUsers(ctx, query, displayName)
}

// FindByEmailHash retrieves a user by the blind index of their email.
// Returns nil, nil if no user matches.
func (r *UserRepo) FindByEmailHash(ctx context.Context, emailHash string) (*model.User, error) {
	const query = userSelect + ` WHERE email_hash = ? LIMIT 1`

	user, err := scanUser(r.db.Reader.QueryRowContext(ctx, query, emailHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email hash: %w", err)
	}
	return &user, nil
}

// ListAll returns all cached users ordered by Ragic id.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	return r.queryUsers(ctx, userSelect+` ORDER BY ragic_id`)
}

// Delete removes a user by Ragic id, reporting whether a row existed.
func (r *UserRepo) Delete(ctx context.Context, ragicID int64) (bool, error) {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM users WHERE ragic_id = ?`, ragicID)
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", ragicID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete user %d: %w", ragicID, err)
	}
	return affected > 0, nil
}

const userSelect = `
	SELECT ragic_id, email, email_hash, line_user_id, line_user_hash,
	       display_name, is_verified, last_synced_at
	FROM users`

func (r *UserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var user model.User
	var isVerified int

	err := row.Scan(
		&user.RagicID, &user.Email, &user.EmailHash, &user.LineUserID, &user.LineUserHash,
		&user.DisplayName, &isVerified, &user.LastSyncedAt,
	)
	if err != nil {
		return model.User{}, err
	}

	user.IsVerified = isVerified != 0
	return user, nil
}
