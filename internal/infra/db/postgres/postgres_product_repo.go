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

var _ repository.ProductRepository = (*PostgresProductRepo)(nil)

type PostgresProductRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProductRepo(pool *pgxpool.Pool) *PostgresProductRepo {
	return &PostgresProductRepo{pool: pool}
}

const productColumns = `id, polar_product_id, name, description, price_amount, interval, features, is_active, metadata, created_at, updated_at`

func (r *PostgresProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	const q = `
INSERT INTO products (id, polar_product_id, name, description, price_amount, interval, features, is_active, metadata, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
ON CONFLICT (id) DO UPDATE SET
  polar_product_id=$2, name=$3, description=$4, price_amount=$5,
  interval=$6, features=$7, is_active=$8, metadata=$9, updated_at=NOW();`

	features, err := json.Marshal(p.Features)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return err
	}

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, p.ID, p.PolarProductID, p.Name, p.Description,
		p.PriceAmount, p.Interval, features, p.IsActive, meta, p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *PostgresProductRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id=$1;`
	return r.queryOne(ctx, tx, q, id)
}

func (r *PostgresProductRepo) FindByPolarProductID(ctx context.Context, tx repository.Tx, polarProductID string) (*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE polar_product_id=$1;`
	return r.queryOne(ctx, tx, q, polarProductID)
}

func (r *PostgresProductRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE is_active ORDER BY price_amount ASC;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return out, nil
}

func (r *PostgresProductRepo) queryOne(ctx context.Context, tx repository.Tx, q string, args ...interface{}) (*model.Product, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	p, err := scanProduct(ex.QueryRow(ctx, q, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p        model.Product
		features []byte
		meta     []byte
	)
	if err := row.Scan(&p.ID, &p.PolarProductID, &p.Name, &p.Description, &p.PriceAmount,
		&p.Interval, &features, &p.IsActive, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &p.Features); err != nil {
			return nil, err
		}
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &p.Metadata); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
