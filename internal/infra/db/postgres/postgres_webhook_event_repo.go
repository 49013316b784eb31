package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/repository"
)

var _ repository.WebhookEventRepository = (*PostgresWebhookEventRepo)(nil)

// PostgresWebhookEventRepo persists the append-only inbound event log.
// The unique constraint on event_id is the idempotency guard: two
// concurrent deliveries of the same event both pass the lookup, but only
// one insert wins.
type PostgresWebhookEventRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresWebhookEventRepo(pool *pgxpool.Pool) *PostgresWebhookEventRepo {
	return &PostgresWebhookEventRepo{pool: pool}
}

const webhookEventColumns = `id, event_id, event_type, payload, processed, processed_at, error, created_at`

func (r *PostgresWebhookEventRepo) Insert(ctx context.Context, tx repository.Tx, e *model.WebhookEvent) error {
	const q = `
INSERT INTO webhook_events (id, event_id, event_type, payload, processed, processed_at, error, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, e.ID, e.EventID, e.EventType, []byte(e.Payload),
		e.Processed, e.ProcessedAt, e.Error, e.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresWebhookEventRepo) FindByEventID(ctx context.Context, tx repository.Tx, eventID string) (*model.WebhookEvent, error) {
	const q = `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE event_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	e, err := scanWebhookEvent(ex.QueryRow(ctx, q, eventID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *PostgresWebhookEventRepo) MarkProcessed(ctx context.Context, tx repository.Tx, eventID string) error {
	const q = `UPDATE webhook_events SET processed=TRUE, processed_at=NOW(), error=NULL WHERE event_id=$1;`
	return r.exec(ctx, tx, q, eventID)
}

func (r *PostgresWebhookEventRepo) MarkFailed(ctx context.Context, tx repository.Tx, eventID string, errMsg string) error {
	const q = `UPDATE webhook_events SET error=$2 WHERE event_id=$1 AND NOT processed;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, eventID, errMsg)
	return err
}

func (r *PostgresWebhookEventRepo) ListUnprocessed(ctx context.Context, tx repository.Tx, limit int) ([]*model.WebhookEvent, error) {
	const q = `SELECT ` + webhookEventColumns + ` FROM webhook_events WHERE NOT processed ORDER BY id ASC LIMIT $1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *PostgresWebhookEventRepo) exec(ctx context.Context, tx repository.Tx, q string, args ...interface{}) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanWebhookEvent(row pgx.Row) (*model.WebhookEvent, error) {
	var (
		e       model.WebhookEvent
		payload []byte
	)
	if err := row.Scan(&e.ID, &e.EventID, &e.EventType, &payload, &e.Processed,
		&e.ProcessedAt, &e.Error, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}
