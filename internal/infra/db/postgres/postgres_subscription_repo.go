package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saas-starter/internal/domain"
	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)

type PostgresSubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pool *pgxpool.Pool) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, product_id, polar_subscription_id, status, cancel_at_period_end,
       current_period_start, current_period_end, trial_start, trial_end, canceled_at, metadata, created_at, updated_at`

// Upsert inserts or converges a row keyed by polar_subscription_id. Rows
// without an external id fall back to the primary-key conflict target.
func (r *PostgresSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	meta, err := json.Marshal(s.Metadata)
	if err != nil {
		return err
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	if s.PolarSubscriptionID != nil {
		const q = `
INSERT INTO subscriptions (id, user_id, product_id, polar_subscription_id, status, cancel_at_period_end,
  current_period_start, current_period_end, trial_start, trial_end, canceled_at, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
ON CONFLICT (polar_subscription_id) DO UPDATE SET
  user_id=$2, product_id=$3, status=$5, cancel_at_period_end=$6,
  current_period_start=$7, current_period_end=$8, trial_start=$9, trial_end=$10,
  canceled_at=$11, metadata=$12, updated_at=NOW();`
		_, err = ex.Exec(ctx, q, s.ID, s.UserID, s.ProductID, s.PolarSubscriptionID, s.Status,
			s.CancelAtPeriodEnd, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.TrialStart, s.TrialEnd,
			s.CanceledAt, meta, s.CreatedAt)
		return err
	}

	const q = `
INSERT INTO subscriptions (id, user_id, product_id, polar_subscription_id, status, cancel_at_period_end,
  current_period_start, current_period_end, trial_start, trial_end, canceled_at, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW())
ON CONFLICT (id) DO UPDATE SET
  user_id=$2, product_id=$3, status=$5, cancel_at_period_end=$6,
  current_period_start=$7, current_period_end=$8, trial_start=$9, trial_end=$10,
  canceled_at=$11, metadata=$12, updated_at=NOW();`
	_, err = ex.Exec(ctx, q, s.ID, s.UserID, s.ProductID, s.PolarSubscriptionID, s.Status,
		s.CancelAtPeriodEnd, s.CurrentPeriodStart, s.CurrentPeriodEnd, s.TrialStart, s.TrialEnd,
		s.CanceledAt, meta, s.CreatedAt)
	return err
}

func (r *PostgresSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *PostgresSubscriptionRepo) FindByPolarSubscriptionID(ctx context.Context, tx repository.Tx, polarSubID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE polar_subscription_id=$1;`
	return r.queryOne(ctx, tx, q, polarSubID)
}

func (r *PostgresSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1 ORDER BY created_at DESC;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *PostgresSubscriptionRepo) FindEntitledByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id=$1 AND status IN ('active','trialing')
 ORDER BY created_at DESC
 LIMIT 1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *PostgresSubscriptionRepo) UpdateStatusByPolarID(ctx context.Context, tx repository.Tx, polarSubID string, status model.SubscriptionStatus) error {
	const q = `UPDATE subscriptions SET status=$2, updated_at=NOW() WHERE polar_subscription_id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, polarSubID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepo) SetCancelAtPeriodEnd(ctx context.Context, tx repository.Tx, id string, cancel bool) error {
	const q = `UPDATE subscriptions SET cancel_at_period_end=$2, updated_at=NOW() WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id, cancel)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresSubscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Subscription, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(ex.QueryRow(ctx, q, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var (
		s    model.Subscription
		meta []byte
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.ProductID, &s.PolarSubscriptionID, &s.Status,
		&s.CancelAtPeriodEnd, &s.CurrentPeriodStart, &s.CurrentPeriodEnd, &s.TrialStart,
		&s.TrialEnd, &s.CanceledAt, &meta, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &s.Metadata); err != nil {
			return nil, err
		}
	}
	return &s, nil
}
