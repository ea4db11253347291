package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

const (
	// similarCandidates is how many same-category products are scored.
	similarCandidates = 12
	// similarResults is how many scored products are returned.
	similarResults = 8

	categoryDefaultLimit = 10
)

// Scoring weights.
const (
	weightTag      = 0.5
	weightBrand    = 1.0
	weightPrice    = 1.0
	weightRating   = 0.5
	priceTolerance = 0.20
	ratingFloor    = 4
)

// SimilarRequest describes the product recommendations are computed for.
type SimilarRequest struct {
	Category  string   `json:"category"`
	Brand     string   `json:"brand"`
	ExcludeID string   `json:"excludeId"`
	Tags      []string `json:"tags"`
	// Price <= 0 means no price preference.
	Price float64 `json:"price"`
}

// ScoredProduct is a candidate with its relevance.
type ScoredProduct struct {
	models.Product
	RelevanceScore float64 `json:"relevanceScore"`
}

// RecommendationService suggests related products.
type RecommendationService struct {
	products repositories.ProductRepository
	catalog  *CatalogService
}

func NewRecommendationService(products repositories.ProductRepository, catalog *CatalogService) *RecommendationService {
	return &RecommendationService{products: products, catalog: catalog}
}

// ByCategory lists products of category (and brand when given), excluding
// excludeId. Sort, projection and paging follow the list rules with a
// default page size of 10.
func (s *RecommendationService) ByCategory(ctx context.Context, values url.Values) ([]bson.M, error) {
	// Only the control keys are taken from the caller; the filter is fixed.
	controls := url.Values{}
	for _, k := range query.Reserved {
		if v, ok := values[k]; ok {
			controls[k] = v
		}
	}
	q, err := query.Parse(controls, models.ProductSchema, query.Options{DefaultLimit: categoryDefaultLimit})
	if err != nil {
		return nil, err
	}

	if c := strings.TrimSpace(values.Get("category")); c != "" {
		q.Filter = q.Filter.And(query.Equals{Field: "category", Value: c})
	}
	if b := strings.TrimSpace(values.Get("brand")); b != "" {
		q.Filter = q.Filter.And(query.Equals{Field: "brand", Value: b})
	}
	if ex := strings.TrimSpace(values.Get("excludeId")); ex != "" {
		oid, err := parseID("excludeId", ex)
		if err != nil {
			return nil, err
		}
		q.Filter = q.Filter.And(query.NotEquals{Field: "_id", Value: oid})
	}

	return s.catalog.run(ctx, q)
}

// Similar scores up to 12 same-category candidates against req and returns
// the best 8, highest score first. Equal scores keep fetch order.
func (s *RecommendationService) Similar(ctx context.Context, req SimilarRequest) ([]ScoredProduct, error) {
	if strings.TrimSpace(req.Category) == "" || strings.TrimSpace(req.ExcludeID) == "" {
		return nil, errs.Validation("Missing required parameters: category and excludeId are required")
	}
	exclude, err := parseID("excludeId", req.ExcludeID)
	if err != nil {
		return nil, err
	}

	filter := query.Filter{
		query.NotEquals{Field: "_id", Value: exclude},
		query.Equals{Field: "category", Value: req.Category},
	}
	candidates, err := s.products.Search(ctx, filter, query.DefaultSort(), similarCandidates)
	if err != nil {
		return nil, fmt.Errorf("services: recommendation candidates: %w", err)
	}

	return Rank(req, candidates), nil
}

// Rank scores candidates, orders them by score (stable) and keeps the top 8.
func Rank(req SimilarRequest, candidates []models.Product) []ScoredProduct {
	scored := collection.Map(candidates, func(c models.Product) ScoredProduct {
		return ScoredProduct{Product: c, RelevanceScore: Score(req, c)}
	})
	collection.SortBy(scored, func(a, b ScoredProduct) bool {
		return a.RelevanceScore > b.RelevanceScore
	})
	return collection.Take(scored, similarResults)
}

// Score is the relevance of candidate to req.
func Score(req SimilarRequest, candidate models.Product) float64 {
	score := 0.0

	if len(req.Tags) > 0 {
		have := make(map[string]bool, len(candidate.Tags))
		for _, t := range candidate.Tags {
			have[t] = true
		}
		for _, t := range req.Tags {
			if have[t] {
				score += weightTag
			}
		}
	}

	if candidate.Brand == req.Brand {
		score += weightBrand
	}

	if req.Price > 0 && math.Abs(candidate.Price-req.Price)/req.Price <= priceTolerance {
		score += weightPrice
	}

	if candidate.TotalRating >= ratingFloor {
		score += weightRating
	}

	return score
}
