package repository

import (
	"context"

	"saas-starter/internal/domain/model"
)

type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Product, error)
	FindByPolarProductID(ctx context.Context, tx Tx, polarProductID string) (*model.Product, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Product, error)
}
