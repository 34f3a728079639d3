package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "motormint/pkg/domain"
)

// PostgresStore implements Store using the transactional outbox pattern.
// Append writes the audit row and an outbox row in one transaction; the
// outbox worker publishes outbox rows to Kafka and marks them published.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID          string `json:"id"`
	TokenID     string `json:"token_id"`
	Action      string `json:"action"`
	Detail      string `json:"detail,omitempty"`
	ActorWallet string `json:"actor_wallet,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(outboxPayload{
		ID:          entry.ID.String(),
		TokenID:     entry.TokenID.String(),
		Action:      entry.Action,
		Detail:      entry.Detail,
		ActorWallet: entry.ActorWallet,
		CreatedAt:   entry.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO mint_audit (id, token_id, action, detail, actor_wallet, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		entry.ID,
		int64(entry.TokenID),
		entry.Action,
		entry.Detail,
		entry.ActorWallet,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		uuid.New(),
		"vehicle",
		entry.TokenID.String(),
		entry.Action,
		payload,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit audit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByToken(ctx context.Context, tokenID id.TokenID) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, token_id, action, COALESCE(detail, ''), COALESCE(actor_wallet, ''), created_at
		FROM mint_audit
		WHERE token_id = $1
		ORDER BY created_at
	`, int64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			entry    Entry
			rawToken int64
		)
		if err := rows.Scan(&entry.ID, &rawToken, &entry.Action, &entry.Detail, &entry.ActorWallet, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.TokenID = id.TokenID(rawToken)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return out, nil
}
