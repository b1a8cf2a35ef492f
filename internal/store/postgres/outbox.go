package postgres

import (
	"context"

	"github.com/joao-fontenele/marketplace/internal/store"
)

func (t *tx) EnqueueEvent(ctx context.Context, rec store.OutboxRecord) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO outbox (event_id, topic, key, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.EventID, rec.Topic, rec.Key, string(rec.Payload), rec.CreatedAt)
	return err
}

// PendingEvents returns unsent outbox records, oldest first.
func (s *Store) PendingEvents(ctx context.Context, limit int) ([]store.OutboxRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, event_id, topic, key, payload, created_at, sent_at
		FROM outbox
		WHERE sent_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []store.OutboxRecord
	for rows.Next() {
		var rec store.OutboxRecord
		var payload []byte
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Topic, &rec.Key, &payload, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		rec.Payload = payload
		out = append(out, rec)
	}

	return out, rows.Err()
}

func (s *Store) MarkEventSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE outbox SET sent_at = NOW() WHERE id = $1`, id)
	return err
}
