package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const signupColumns = `id, event_id, user_id, character_id, role, status, created_at, updated_at`

// GetSignup loads one signup by id.
func (q queries) GetSignup(ctx context.Context, id string) (storage.SignupRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.SignupRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+signupColumns+` FROM signups WHERE id = ?`, id)
	record, err := scanSignup(row.Scan)
	if err != nil {
		return storage.SignupRecord{}, notFound(err, "get signup")
	}
	return record, nil
}

// GetActiveSignup loads the non-withdrawn signup for an event and character.
func (q queries) GetActiveSignup(ctx context.Context, eventID, characterID string) (storage.SignupRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.SignupRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `
SELECT `+signupColumns+`
FROM signups
WHERE event_id = ? AND character_id = ? AND status != ?
`, eventID, characterID, storage.SignupStatusWithdrawn)
	record, err := scanSignup(row.Scan)
	if err != nil {
		return storage.SignupRecord{}, notFound(err, "get active signup")
	}
	return record, nil
}

// ListSignups lists an event's signups matching filter, oldest first.
func (q queries) ListSignups(ctx context.Context, eventID, filter string) ([]storage.SignupRecord, error) {
	if err := q.ready(ctx); err != nil {
		return nil, err
	}
	cond, err := parseSignupFilter(filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidFilter, err)
	}

	query := `SELECT ` + signupColumns + ` FROM signups WHERE event_id = ?`
	args := []any{eventID}
	if cond.Clause != "" {
		query += ` AND ` + cond.Clause
		args = append(args, cond.Params...)
	}
	query += ` ORDER BY created_at, id`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list signups: %w", err)
	}
	defer rows.Close()

	var records []storage.SignupRecord
	for rows.Next() {
		record, err := scanSignup(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan signup row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate signup rows: %w", err)
	}
	return records, nil
}

// ListRoster lists an event's committed signups with display names, in
// commit order.
func (q queries) ListRoster(ctx context.Context, eventID string) ([]storage.RosterEntry, error) {
	if err := q.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT s.id, s.character_id, c.name, c.class, s.role, u.display_name, s.updated_at
FROM signups s
JOIN characters c ON c.id = s.character_id
JOIN users u ON u.id = s.user_id
WHERE s.event_id = ? AND s.status = ?
ORDER BY s.updated_at, s.id
`, eventID, storage.SignupStatusCommitted)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	defer rows.Close()

	var entries []storage.RosterEntry
	for rows.Next() {
		var entry storage.RosterEntry
		var committedAt int64
		if err := rows.Scan(
			&entry.SignupID,
			&entry.CharacterID,
			&entry.CharacterName,
			&entry.Class,
			&entry.Role,
			&entry.UserName,
			&committedAt,
		); err != nil {
			return nil, fmt.Errorf("scan roster row: %w", err)
		}
		entry.CommittedAt = fromMillis(committedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster rows: %w", err)
	}
	return entries, nil
}

// CountSignups returns per-status totals for one event.
func (q queries) CountSignups(ctx context.Context, eventID string) (storage.SignupCounts, error) {
	if err := q.ready(ctx); err != nil {
		return storage.SignupCounts{}, err
	}
	var counts storage.SignupCounts
	err := q.db.QueryRowContext(ctx, `
SELECT
    COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
    COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
FROM signups
WHERE event_id = ?
`, storage.SignupStatusPending, storage.SignupStatusCommitted, storage.SignupStatusWithdrawn, eventID,
	).Scan(&counts.Pending, &counts.Committed, &counts.Withdrawn)
	if err != nil {
		return storage.SignupCounts{}, fmt.Errorf("count signups: %w", err)
	}
	return counts, nil
}

// InsertSignup inserts one signup. A second row for the same event and
// character yields storage.ErrConflict.
func (q queries) InsertSignup(ctx context.Context, record storage.SignupRecord) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, `
INSERT INTO signups (`+signupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		record.ID,
		record.EventID,
		record.UserID,
		record.CharacterID,
		record.Role,
		record.Status,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("insert signup: %w", err)
	}
	return nil
}

// UpdateSignupStatus sets the status of one signup.
func (q queries) UpdateSignupStatus(ctx context.Context, id string, status storage.SignupStatus, at time.Time) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	result, err := q.db.ExecContext(ctx, `
UPDATE signups SET status = ?, updated_at = ? WHERE id = ?
`, status, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("update signup status: %w", err)
	}
	return affectedOrNotFound(result, "update signup status")
}

// WithdrawPending withdraws every pending signup the user holds for the
// event.
func (q queries) WithdrawPending(ctx context.Context, eventID, userID string, at time.Time) (int, error) {
	if err := q.ready(ctx); err != nil {
		return 0, err
	}
	result, err := q.db.ExecContext(ctx, `
UPDATE signups SET status = ?, updated_at = ?
WHERE event_id = ? AND user_id = ? AND status = ?
`, storage.SignupStatusWithdrawn, toMillis(at), eventID, userID, storage.SignupStatusPending)
	if err != nil {
		return 0, fmt.Errorf("withdraw signups: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("withdraw signups rows affected: %w", err)
	}
	return int(n), nil
}

func scanSignup(scan scanner) (storage.SignupRecord, error) {
	var record storage.SignupRecord
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.EventID,
		&record.UserID,
		&record.CharacterID,
		&record.Role,
		&record.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.SignupRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
