package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"saas-starter/internal/domain/model"
	"saas-starter/internal/domain/ports/repository"
)

type ProductUseCase interface {
	// ListActive feeds the public pricing surface.
	ListActive(ctx context.Context) ([]*model.Product, error)
}

// Compile-time check
var _ ProductUseCase = (*productUC)(nil)

type productUC struct {
	products repository.ProductRepository
	log      *zerolog.Logger
}

func NewProductUseCase(products repository.ProductRepository, logger *zerolog.Logger) *productUC {
	return &productUC{products: products, log: logger}
}

func (uc *productUC) ListActive(ctx context.Context) ([]*model.Product, error) {
	return uc.products.ListActive(ctx, nil)
}
