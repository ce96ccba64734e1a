package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const characterColumns = `c.id, c.owner_id, c.name, c.class, c.role, c.item_level, c.notes, c.locked_for_event, c.created_at, c.updated_at`

// GetCharacter loads one character by id.
func (q queries) GetCharacter(ctx context.Context, id string) (storage.CharacterRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.CharacterRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+characterColumns+` FROM characters c WHERE c.id = ?`, id)
	record, err := scanCharacter(row.Scan)
	if err != nil {
		return storage.CharacterRecord{}, notFound(err, "get character")
	}
	return record, nil
}

// ListCharactersByOwner lists one user's characters by name.
func (q queries) ListCharactersByOwner(ctx context.Context, ownerID string) ([]storage.CharacterRecord, error) {
	if err := q.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+characterColumns+`
FROM characters c
WHERE c.owner_id = ?
ORDER BY c.name, c.id
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()
	return collectCharacters(rows)
}

// ListAvailableCharacters lists the owner's characters eligible to sign up
// for eventID.
func (q queries) ListAvailableCharacters(ctx context.Context, ownerID, eventID string) ([]storage.CharacterRecord, error) {
	if err := q.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+characterColumns+`
FROM characters c
WHERE c.owner_id = ?
  AND (c.locked_for_event IS NULL OR c.locked_for_event = ?)
  AND NOT EXISTS (
      SELECT 1 FROM signups s
      WHERE s.event_id = ?
        AND s.character_id = c.id
        AND s.status != ?
  )
ORDER BY c.name, c.id
`, ownerID, eventID, eventID, storage.SignupStatusWithdrawn)
	if err != nil {
		return nil, fmt.Errorf("list available characters: %w", err)
	}
	defer rows.Close()
	return collectCharacters(rows)
}

// PutCharacter inserts or updates one character. The lock column is owned
// by SetCharacterLock and is not written here.
func (q queries) PutCharacter(ctx context.Context, record storage.CharacterRecord) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	var itemLevel sql.NullInt64
	if record.ItemLevel != nil {
		itemLevel = sql.NullInt64{Int64: int64(*record.ItemLevel), Valid: true}
	}
	_, err := q.db.ExecContext(ctx, `
INSERT INTO characters (id, owner_id, name, class, role, item_level, notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    class = excluded.class,
    role = excluded.role,
    item_level = excluded.item_level,
    notes = excluded.notes,
    updated_at = excluded.updated_at
`,
		record.ID,
		record.OwnerID,
		record.Name,
		record.Class,
		record.Role,
		itemLevel,
		record.Notes,
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
		return fmt.Errorf("put character: %w", err)
	}
	return nil
}

// SetCharacterLock points the character at eventID, or clears the lock when
// eventID is empty.
func (q queries) SetCharacterLock(ctx context.Context, characterID, eventID string, at time.Time) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	var lock sql.NullString
	if eventID != "" {
		lock = sql.NullString{String: eventID, Valid: true}
	}
	result, err := q.db.ExecContext(ctx, `
UPDATE characters SET locked_for_event = ?, updated_at = ? WHERE id = ?
`, lock, toMillis(at), characterID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("set character lock: %w", err)
	}
	return affectedOrNotFound(result, "set character lock")
}

func scanCharacter(scan scanner) (storage.CharacterRecord, error) {
	var record storage.CharacterRecord
	var itemLevel sql.NullInt64
	var lockedFor sql.NullString
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.OwnerID,
		&record.Name,
		&record.Class,
		&record.Role,
		&itemLevel,
		&record.Notes,
		&lockedFor,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.CharacterRecord{}, err
	}
	if itemLevel.Valid {
		value := int(itemLevel.Int64)
		record.ItemLevel = &value
	}
	record.LockedForEvent = lockedFor.String
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectCharacters(rows *sql.Rows) ([]storage.CharacterRecord, error) {
	var records []storage.CharacterRecord
	for rows.Next() {
		record, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan character row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate character rows: %w", err)
	}
	return records, nil
}
