package seeders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

// AdminEmail is the account created by the users seeder.
const AdminEmail = "admin@storefront.local"

func init() {
	Register("users", SeedUsers)
	Register("catalog", SeedCatalog)
}

// SeedUsers creates the admin account unless it exists.
func SeedUsers(ctx context.Context, s *repositories.Store) error {
	_, err := s.Users.FindByEmail(ctx, AdminEmail)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	return s.Users.Create(ctx, &models.User{Name: "Admin", Email: AdminEmail, Role: models.RoleAdmin})
}

var sampleProducts = []struct {
	title, category, brand string
	price                  float64
	quantity               int
	tags                   []string
}{
	{"Enamel Coffee Mug", "kitchen", "Kiln & Co", 1200, 40, []string{"mug", "coffee"}},
	{"Stoneware Tea Mug", "kitchen", "Kiln & Co", 1350, 25, []string{"mug", "tea"}},
	{"Cast Iron Skillet", "kitchen", "Forge", 5400, 8, []string{"cookware"}},
	{"Linen Apron", "kitchen", "Loom", 2100, 0, []string{"textile"}},
	{"Canvas Tote", "bags", "Loom", 1800, 60, []string{"tote", "canvas"}},
	{"Leather Backpack", "bags", "Tannery", 14500, 5, []string{"backpack", "leather"}},
}

// SeedCatalog creates the sample colours and products. Products whose slug
// already exists are left alone; colours are only created when at least one
// product is missing.
func SeedCatalog(ctx context.Context, s *repositories.Store) error {
	var missing []int
	for i, sp := range sampleProducts {
		n, err := s.Products.Count(ctx, query.Filter{query.Equals{Field: "slug", Value: slug.Make(sp.title)}})
		if err != nil {
			return err
		}
		if n == 0 {
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	colors := make([]primitive.ObjectID, 0, 3)
	for _, title := range []string{"Black", "White", "Olive"} {
		c := &models.Color{Title: title}
		if err := s.Colors.Create(ctx, c); err != nil {
			return fmt.Errorf("color %s: %w", title, err)
		}
		colors = append(colors, c.ID)
	}

	now := time.Now().UTC()
	for _, i := range missing {
		sp := sampleProducts[i]
		p := &models.Product{
			Title:       sp.title,
			Slug:        slug.Make(sp.title),
			Description: sp.title + " from the sample catalogue.",
			Category:    sp.category,
			Brand:       sp.brand,
			Price:       sp.price,
			Quantity:    sp.quantity,
			Tags:        sp.tags,
			Color:       []primitive.ObjectID{colors[i%len(colors)]},
			CreatedAt:   now.Add(time.Duration(i) * time.Second),
			UpdatedAt:   now,
		}
		p.Normalize()
		if err := s.Products.Create(ctx, p); err != nil && !errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("product %s: %w", sp.title, err)
		}
	}
	return nil
}
