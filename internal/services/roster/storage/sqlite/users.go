package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const userColumns = `id, external_identity, display_name, role, created_at, updated_at`

// GetUser loads one user by id.
func (q queries) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.UserRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	record, err := scanUser(row.Scan)
	if err != nil {
		return storage.UserRecord{}, notFound(err, "get user")
	}
	return record, nil
}

// GetUserByExternalIdentity loads one user by external identity.
func (q queries) GetUserByExternalIdentity(ctx context.Context, externalIdentity string) (storage.UserRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.UserRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_identity = ?`, externalIdentity)
	record, err := scanUser(row.Scan)
	if err != nil {
		return storage.UserRecord{}, notFound(err, "get user by external identity")
	}
	return record, nil
}

// UpsertUser inserts a user or refreshes the display name and role of the
// row already holding the external identity.
func (q queries) UpsertUser(ctx context.Context, record storage.UserRecord) (storage.UserRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.UserRecord{}, err
	}
	record.ExternalIdentity = strings.TrimSpace(record.ExternalIdentity)
	if record.ID == "" || record.ExternalIdentity == "" {
		return storage.UserRecord{}, fmt.Errorf("user id and external identity are required")
	}

	_, err := q.db.ExecContext(ctx, `
INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(external_identity) DO UPDATE SET
    display_name = excluded.display_name,
    role = excluded.role,
    updated_at = excluded.updated_at
`,
		record.ID,
		record.ExternalIdentity,
		record.DisplayName,
		record.Role,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.UserRecord{}, storage.ErrConflict
		}
		return storage.UserRecord{}, fmt.Errorf("upsert user: %w", err)
	}
	return q.GetUserByExternalIdentity(ctx, record.ExternalIdentity)
}

func scanUser(scan scanner) (storage.UserRecord, error) {
	var record storage.UserRecord
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.ExternalIdentity,
		&record.DisplayName,
		&record.Role,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.UserRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
