package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Producer is the broker seam for the outbox worker. The Kafka-backed
// implementation lives in kafka.go; tests inject a fake.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// OutboxWorker drains unpublished outbox rows to the broker. A broker outage
// leaves rows in place for the next tick; audit data is never lost to a
// publish failure, only delayed.
type OutboxWorker struct {
	db        *sql.DB
	producer  Producer
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func NewOutboxWorker(db *sql.DB, producer Producer, logger *slog.Logger) *OutboxWorker {
	return &OutboxWorker{
		db:        db,
		producer:  producer,
		logger:    logger,
		interval:  5 * time.Second,
		batchSize: 100,
	}
}

// Run drains the outbox until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				w.logger.WarnContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce runs a single drain pass outside the ticker loop.
func (w *OutboxWorker) DrainOnce(ctx context.Context) error {
	return w.drain(ctx)
}

type outboxRow struct {
	id          string
	aggregateID string
	payload     []byte
}

func (w *OutboxWorker) drain(ctx context.Context) error {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
	`, w.batchSize)
	if err != nil {
		return fmt.Errorf("select outbox rows: %w", err)
	}
	defer rows.Close()

	var pending []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.aggregateID, &row.payload); err != nil {
			return fmt.Errorf("scan outbox row: %w", err)
		}
		pending = append(pending, row)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("select outbox rows: %w", err)
	}

	for _, row := range pending {
		if err := w.producer.Produce(ctx, []byte(row.aggregateID), row.payload); err != nil {
			// Leave the row unpublished; the next tick retries from here.
			return fmt.Errorf("publish outbox row %s: %w", row.id, err)
		}
		if _, err := w.db.ExecContext(ctx,
			`UPDATE outbox SET published_at = $2 WHERE id = $1`,
			row.id, time.Now(),
		); err != nil {
			return fmt.Errorf("mark outbox row published: %w", err)
		}
	}
	return nil
}
