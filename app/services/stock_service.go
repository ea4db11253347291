package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// StockCheck asks whether quantity units of a product can be bought.
type StockCheck struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  int     `json:"quantity"`
	Color     string  `json:"color,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// StockLine is one purchased product to take out of stock.
type StockLine struct {
	ProductID string
	Quantity  int
}

// StockService guards and applies stock changes.
type StockService struct {
	products repositories.ProductRepository
}

func NewStockService(products repositories.ProductRepository) *StockService {
	return &StockService{products: products}
}

// Check verifies availability without reserving anything. Checks run in
// order: existence, status, then quantity.
func (s *StockService) Check(ctx context.Context, in StockCheck) (*models.Product, error) {
	if in.Quantity < 1 {
		return nil, errs.Validation("quantity must be at least 1")
	}
	oid, err := parseID("productId", in.ProductID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr("check stock", err, fmt.Sprintf("Product with ID %s not found", in.ProductID))
	}
	if p.Status == models.StatusOutOfStock {
		return nil, errs.Conflict("Product %s is out of stock", p.Title)
	}
	if p.Quantity < in.Quantity {
		return nil, errs.Conflict("Only %d units available for %s", p.Quantity, p.Title)
	}
	return p, nil
}

// Apply decrements stock for each line in order. Each decrement is atomic
// and never takes quantity below zero. The first failure stops the batch;
// lines already applied stay applied.
func (s *StockService) Apply(ctx context.Context, lines []StockLine) ([]*models.Product, error) {
	log := logger.WithCtx(ctx)
	out := make([]*models.Product, 0, len(lines))

	for i, line := range lines {
		p, err := s.applyLine(ctx, i, line)
		if err != nil {
			return out, err
		}
		log.Info("stock decremented", "product_id", line.ProductID, "by", line.Quantity, "left", p.Quantity)
		out = append(out, p)
	}
	return out, nil
}

// applyLine is one atomic decrement; i only labels validation errors.
func (s *StockService) applyLine(ctx context.Context, i int, line StockLine) (*models.Product, error) {
	if line.Quantity < 1 {
		return nil, errs.Validation("item %d: quantity must be at least 1", i)
	}
	oid, err := parseID("productId", line.ProductID)
	if err != nil {
		return nil, err
	}

	p, err := s.products.DecrementStock(ctx, oid, line.Quantity)
	switch {
	case errors.Is(err, repositories.ErrInsufficientStock):
		metrics.StockDecrements.WithLabelValues("insufficient").Inc()
		current, ferr := s.products.FindByID(ctx, oid)
		if ferr != nil {
			return nil, storeErr("update stock", ferr, fmt.Sprintf("Product with ID %s not found", line.ProductID))
		}
		return nil, errs.Conflict("Only %d units available for %s", current.Quantity, current.Title)
	case err != nil:
		metrics.StockDecrements.WithLabelValues("error").Inc()
		return nil, storeErr("update stock", err, fmt.Sprintf("Product with ID %s not found", line.ProductID))
	}
	metrics.StockDecrements.WithLabelValues("applied").Inc()
	return p, nil
}
