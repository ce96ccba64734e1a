package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

const eventColumns = `id, title, scheduled_at, capacity, difficulty, loot_type, description, created_by, channel_ref, announcement_ref, roster_ref, created_at, updated_at`

// GetEvent loads one event by id.
func (q queries) GetEvent(ctx context.Context, id string) (storage.EventRecord, error) {
	if err := q.ready(ctx); err != nil {
		return storage.EventRecord{}, err
	}
	row := q.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	record, err := scanEvent(row.Scan)
	if err != nil {
		return storage.EventRecord{}, notFound(err, "get event")
	}
	return record, nil
}

// ListEvents lists events scheduled at or after from. A non-positive limit
// returns every match.
func (q queries) ListEvents(ctx context.Context, from time.Time, limit int) ([]storage.EventRecord, error) {
	if err := q.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := q.db.QueryContext(ctx, `
SELECT `+eventColumns+`
FROM events
WHERE scheduled_at >= ?
ORDER BY scheduled_at, id
LIMIT ?
`, toMillis(from), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var records []storage.EventRecord
	for rows.Next() {
		record, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}
	return records, nil
}

// PutEvent inserts or updates one event. External message references are
// owned by SetEventRefs and kept on update.
func (q queries) PutEvent(ctx context.Context, record storage.EventRecord) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, `
INSERT INTO events (`+eventColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    scheduled_at = excluded.scheduled_at,
    capacity = excluded.capacity,
    difficulty = excluded.difficulty,
    loot_type = excluded.loot_type,
    description = excluded.description,
    channel_ref = excluded.channel_ref,
    updated_at = excluded.updated_at
`,
		record.ID,
		record.Title,
		toMillis(record.ScheduledAt),
		record.Capacity,
		record.Difficulty,
		record.LootType,
		record.Description,
		record.CreatedBy,
		record.ChannelRef,
		record.AnnouncementRef,
		record.RosterRef,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// SetEventRefs stores the external message references for both surfaces.
func (q queries) SetEventRefs(ctx context.Context, eventID, announcementRef, rosterRef string, at time.Time) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	result, err := q.db.ExecContext(ctx, `
UPDATE events SET announcement_ref = ?, roster_ref = ?, updated_at = ? WHERE id = ?
`, announcementRef, rosterRef, toMillis(at), eventID)
	if err != nil {
		return fmt.Errorf("set event refs: %w", err)
	}
	return affectedOrNotFound(result, "set event refs")
}

// DeleteEvent clears locks held for the event, deletes its signups and then
// the event. Callers wanting atomicity run it inside WithTx.
func (q queries) DeleteEvent(ctx context.Context, id string) error {
	if err := q.ready(ctx); err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx, `UPDATE characters SET locked_for_event = NULL WHERE locked_for_event = ?`, id); err != nil {
		return fmt.Errorf("clear event locks: %w", err)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM signups WHERE event_id = ?`, id); err != nil {
		return fmt.Errorf("delete event signups: %w", err)
	}
	result, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return affectedOrNotFound(result, "delete event")
}

func scanEvent(scan scanner) (storage.EventRecord, error) {
	var record storage.EventRecord
	var scheduledAt, createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.Title,
		&scheduledAt,
		&record.Capacity,
		&record.Difficulty,
		&record.LootType,
		&record.Description,
		&record.CreatedBy,
		&record.ChannelRef,
		&record.AnnouncementRef,
		&record.RosterRef,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.EventRecord{}, err
	}
	record.ScheduledAt = fromMillis(scheduledAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
