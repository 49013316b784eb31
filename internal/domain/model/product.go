package model

import (
	"time"

	"saas-starter/internal/domain"

	"github.com/google/uuid"
)

type BillingInterval string

const (
	BillingIntervalMonth BillingInterval = "month"
	BillingIntervalYear  BillingInterval = "year"
)

func (i BillingInterval) Valid() bool {
	return i == BillingIntervalMonth || i == BillingIntervalYear
}

// Product is a sellable plan. PolarProductID links it to the billing
// provider's catalog; nil for products that only exist locally.
type Product struct {
	ID             string
	PolarProductID *string
	Name           string
	Description    *string
	PriceAmount    int64 // minor currency units
	Interval       BillingInterval
	Features       []string
	IsActive       bool
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewProduct(id, name string, priceAmount int64, interval BillingInterval) (*Product, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if name == "" || priceAmount < 0 || !interval.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Product{
		ID:          id,
		Name:        name,
		PriceAmount: priceAmount,
		Interval:    interval,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *Product) IsZero() bool { return p == nil || p.ID == "" }
