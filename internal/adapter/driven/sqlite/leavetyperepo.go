package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ericfisherdev/ragicsync/internal/domain/model"
	"github.com/ericfisherdev/ragicsync/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LeaveTypeStore = (*LeaveTypeRepo)(nil)

// LeaveTypeRepo is the SQLite implementation of the LeaveTypeStore port interface.
type LeaveTypeRepo struct {
	db *DB
}

// NewLeaveTypeRepo creates a new LeaveTypeRepo backed by the given DB.
func NewLeaveTypeRepo(db *DB) *LeaveTypeRepo {
	return &LeaveTypeRepo{db: db}
}

// Upsert inserts or replaces a leave type keyed by its Ragic record id.
func (r *LeaveTypeRepo) Upsert(ctx context.Context, lt model.LeaveType) error {
	const query = `
		INSERT INTO leave_types (ragic_id, code, name, deduction_multiplier, last_synced_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(ragic_id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			deduction_multiplier = excluded.deduction_multiplier,
			last_synced_at = excluded.last_synced_at
	`

	_, err := r.db.Writer.ExecContext(ctx, query,
		lt.RagicID, lt.Code, lt.Name, lt.DeductionMultiplier, lt.LastSyncedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert leave type %d: %w", lt.RagicID, err)
	}

	return nil
}

// GetByRagicID retrieves a leave type by its Ragic record id.
// Returns nil, nil if the leave type does not exist.
func (r *LeaveTypeRepo) GetByRagicID(ctx context.Context, ragicID int64) (*model.LeaveType, error) {
	const query = leaveTypeSelect + ` WHERE ragic_id = ?`

	lt, err := scanLeaveType(r.db.Reader.QueryRowContext(ctx, query, ragicID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get leave type %d: %w", ragicID, err)
	}
	return &lt, nil
}

// GetByCode retrieves a leave type by its code.
// Returns nil, nil if no leave type has the code.
func (r *LeaveTypeRepo) GetByCode(ctx context.Context, code string) (*model.LeaveType, error) {
	const query = leaveTypeSelect + ` WHERE code = ?`

	lt, err := scanLeaveType(r.db.Reader.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get leave type %q: %w", code, err)
	}
	return &lt, nil
}

// ListAll returns all cached leave types ordered by code.
func (r *LeaveTypeRepo) ListAll(ctx context.Context) ([]model.LeaveType, error) {
	const query = leaveTypeSelect + ` ORDER BY code`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query leave types: %w", err)
	}
	defer rows.Close()

	var types []model.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave type: %w", err)
		}
		types = append(types, lt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave types: %w", err)
	}
	return types, nil
}

// Delete removes a leave type by Ragic id, reporting whether a row existed.
func (r *LeaveTypeRepo) Delete(ctx context.Context, ragicID int64) (bool, error) {
	result, err := r.db.Writer.ExecContext(ctx, `DELETE FROM leave_types WHERE ragic_id = ?`, ragicID)
	if err != nil {
		return false, fmt.Errorf("delete leave type %d: %w", ragicID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete leave type %d: %w", ragicID, err)
	}
	return affected > 0, nil
}

const leaveTypeSelect = `
	SELECT ragic_id, code, name, deduction_multiplier, last_synced_at
	FROM leave_types`

func scanLeaveType(row rowScanner) (model.LeaveType, error) {
	var lt model.LeaveType
	err := row.Scan(&lt.RagicID, &lt.Code, &lt.Name, &lt.DeductionMultiplier, &lt.LastSyncedAt)
	if err != nil {
		return model.LeaveType{}, err
	}
	return lt, nil
}
