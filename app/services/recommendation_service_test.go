package services

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

func TestScore_Components(t *testing.T) {
	req := SimilarRequest{Category: "kitchen", Brand: "acme", Tags: []string{"mug", "blue", "gift"}, Price: 100}

	tests := []struct {
		name string
		c    models.Product
		want float64
	}{
		{"nothing in common", models.Product{Brand: "other", Price: 500}, 0},
		{"brand", models.Product{Brand: "acme", Price: 500}, 1},
		{"two tags", models.Product{Brand: "other", Price: 500, Tags: []string{"blue", "mug", "red"}}, 1},
		{"price at +20%", models.Product{Brand: "other", Price: 120}, 1},
		{"price at -20%", models.Product{Brand: "other", Price: 80}, 1},
		{"price just outside", models.Product{Brand: "other", Price: 121}, 0},
		{"rating floor", models.Product{Brand: "other", Price: 500, TotalRating: 4}, 0.5},
		{"rating below floor", models.Product{Brand: "other", Price: 500, TotalRating: 3}, 0},
		{"everything", models.Product{Brand: "acme", Price: 100, TotalRating: 5, Tags: []string{"mug", "blue", "gift"}}, 4},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(req, tt.c), 1e-9)
		})
	}
}

func TestScore_NoPricePreference(t *testing.T) {
	req := SimilarRequest{Brand: "acme"}
	assert.InDelta(t, 1.0, Score(req, models.Product{Brand: "acme", Price: 0}), 1e-9)

	req.Price = -5
	assert.InDelta(t, 0.0, Score(req, models.Product{Brand: "other", Price: -5}), 1e-9)
}

func TestScore_EmptyBrandsMatch(t *testing.T) {
	assert.InDelta(t, 1.0, Score(SimilarRequest{}, models.Product{}), 1e-9)
}

func TestRank_StableOrderAndTruncation(t *testing.T) {
	req := SimilarRequest{Brand: "acme"}
	var candidates []models.Product
	for i := 0; i < 12; i++ {
		brand := "other"
		if i%3 == 0 {
			brand = "acme"
		}
		candidates = append(candidates, models.Product{Title: fmt.Sprintf("p%02d", i), Brand: brand})
	}

	got := Rank(req, candidates)
	require.Len(t, got, 8)

	var titles []string
	for _, s := range got {
		titles = append(titles, s.Title)
	}
	assert.Equal(t, []string{"p00", "p03", "p06", "p09", "p01", "p02", "p04", "p05"}, titles)
	assert.InDelta(t, 1.0, got[0].RelevanceScore, 1e-9)
	assert.InDelta(t, 0.0, got[7].RelevanceScore, 1e-9)
}

func TestSimilar_RequiresCategoryAndExclude(t *testing.T) {
	f := newFixture(t)
	svc := NewRecommendationService(f.store.Products, newCatalog(f))

	_, err := svc.Similar(f.ctx, SimilarRequest{Category: "kitchen"})
	requireKind(t, err, errs.KindValidation)
	assert.Equal(t, "Missing required parameters: category and excludeId are required", errs.PublicMessage(err))

	_, err = svc.Similar(f.ctx, SimilarRequest{ExcludeID: primitive.NewObjectID().Hex()})
	requireKind(t, err, errs.KindValidation)
}

func TestSimilar_ScoresSameCategoryExcludingReference(t *testing.T) {
	f := newFixture(t)
	svc := NewRecommendationService(f.store.Products, newCatalog(f))

	ref := f.product("reference", func(p *models.Product) { p.Brand = "acme" })
	f.product("other-category", func(p *models.Product) { p.Category = "garden"; p.Brand = "acme" })
	plain := f.product("plain", func(p *models.Product) { p.Brand = "zen"; p.Price = 900 })
	near := f.product("close", func(p *models.Product) { p.Brand = "acme"; p.Price = 110; p.TotalRating = 5 })

	got, err := svc.Similar(f.ctx, SimilarRequest{Category: "kitchen", Brand: "acme", ExcludeID: ref.ID.Hex(), Price: 100})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, near.ID, got[0].ID)
	assert.InDelta(t, 2.5, got[0].RelevanceScore, 1e-9)
	assert.Equal(t, plain.ID, got[1].ID)
	assert.InDelta(t, 0.0, got[1].RelevanceScore, 1e-9)
}

func TestSimilar_ScoresAtMostTwelveNewestCandidates(t *testing.T) {
	f := newFixture(t)
	svc := NewRecommendationService(f.store.Products, newCatalog(f))

	// The oldest product is the best match but falls outside the newest 12.
	f.product("oldest", func(p *models.Product) { p.Brand = "acme" })
	for i := 0; i < 12; i++ {
		f.product(fmt.Sprintf("n%02d", i), func(p *models.Product) { p.Brand = "zen" })
	}

	got, err := svc.Similar(f.ctx, SimilarRequest{Category: "kitchen", Brand: "acme", ExcludeID: primitive.NewObjectID().Hex()})
	require.NoError(t, err)
	require.Len(t, got, 8)
	for _, s := range got {
		assert.NotEqual(t, "oldest", s.Title)
	}
	assert.Equal(t, "n11", got[0].Title)
}

func TestByCategory_FiltersAndPages(t *testing.T) {
	f := newFixture(t)
	svc := NewRecommendationService(f.store.Products, newCatalog(f))

	ref := f.product("ref", nil)
	for i := 0; i < 12; i++ {
		f.product(fmt.Sprintf("k%02d", i), nil)
	}
	f.product("g", func(p *models.Product) { p.Category = "garden" })
	f.product("branded", func(p *models.Product) { p.Brand = "acme" })

	docs, err := svc.ByCategory(f.ctx, url.Values{"category": {"kitchen"}, "excludeId": {ref.ID.Hex()}})
	require.NoError(t, err)
	assert.Len(t, docs, 10)
	for _, d := range docs {
		assert.Equal(t, "kitchen", d["category"])
		assert.NotEqual(t, ref.ID, d["_id"])
	}

	docs, err = svc.ByCategory(f.ctx, url.Values{"category": {"kitchen"}, "brand": {"acme"}})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "branded", docs[0]["title"])

	// Non-control keys never become extra filters.
	docs, err = svc.ByCategory(f.ctx, url.Values{"category": {"kitchen"}, "price[gt]": {"1000"}, "limit": {"50"}})
	require.NoError(t, err)
	assert.Len(t, docs, 14)

	_, err = svc.ByCategory(f.ctx, url.Values{"category": {"kitchen"}, "page": {"9"}})
	requireKind(t, err, errs.KindNotFound)
}
