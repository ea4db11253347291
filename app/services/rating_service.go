package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/validate"
)

// RateRequest is the body of a rating request.
type RateRequest struct {
	Star    int    `json:"star"    validate:"required,min=1,max=5"`
	ProdID  string `json:"prodId"  validate:"required,objectid"`
	Comment string `json:"comment" validate:"nullable,max=1000"`
}

// RatingService records shopper ratings and keeps totalrating in step.
type RatingService struct {
	products repositories.ProductRepository
}

func NewRatingService(products repositories.ProductRepository) *RatingService {
	return &RatingService{products: products}
}

// Rate upserts the caller's rating and recomputes the product's total.
// The recompute reads the ratings returned by the upsert, so two concurrent
// raters can leave a total that misses one of them until the next rating.
func (s *RatingService) Rate(ctx context.Context, id auth.Identity, in RateRequest) (*models.Product, error) {
	uid, err := requireUser(id)
	if err != nil {
		return nil, err
	}
	if fields := validate.Struct(in); validate.HasErrors(fields) {
		return nil, errs.Fields(fields)
	}
	pid, err := parseID("prodId", in.ProdID)
	if err != nil {
		return nil, err
	}

	notFound := fmt.Sprintf("Product with ID %s not found", in.ProdID)
	p, err := s.products.UpsertRating(ctx, pid, models.Rating{PostedBy: uid, Star: in.Star, Comment: in.Comment})
	if err != nil {
		return nil, storeErr("upsert rating", err, notFound)
	}

	p, err = s.products.SetTotalRating(ctx, pid, models.TotalRating(p.Ratings))
	if err != nil {
		return nil, storeErr("set total rating", err, notFound)
	}
	return p, nil
}
