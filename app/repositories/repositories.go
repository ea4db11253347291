// Package repositories persists catalogue documents. Every repository has a
// MongoDB implementation and an in-memory one with the same semantics; the
// store driver in config picks which one the server wires.
package repositories

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("repositories: document not found")
	// ErrInsufficientStock is returned by DecrementStock when the product
	// holds fewer units than requested. Nothing is changed.
	ErrInsufficientStock = errors.New("repositories: insufficient stock")
	// ErrDuplicate is returned when a unique field (slug, email) is taken.
	ErrDuplicate = errors.New("repositories: duplicate key")
)

// ProductRepository stores products.
type ProductRepository interface {
	Create(ctx context.Context, p *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// Update applies set to the top-level fields of the product and bumps
	// its version. Returns the updated product.
	Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error)

	// List returns the projected documents matching q, sorted and paged.
	List(ctx context.Context, q query.Query) ([]bson.M, error)
	Count(ctx context.Context, filter query.Filter) (int64, error)
	// Search returns up to limit full products matching filter in sort order.
	Search(ctx context.Context, filter query.Filter, sort []query.SortField, limit int) ([]models.Product, error)

	// DecrementStock subtracts qty from the product's quantity and recomputes
	// its status in one atomic step, only when quantity >= qty.
	DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error)
	// UpsertRating overwrites the first rating posted by r.PostedBy, or
	// appends r when the user has not rated the product.
	UpsertRating(ctx context.Context, id primitive.ObjectID, r models.Rating) (*models.Product, error)
	SetTotalRating(ctx context.Context, id primitive.ObjectID, total int) (*models.Product, error)
	AddImages(ctx context.Context, id primitive.ObjectID, urls []string) (*models.Product, error)
}

// UserRepository stores users and their wishlists.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	// AddToWishlist adds productID with set semantics.
	AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error)
	RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error)
}

// ColorRepository stores the colours products refer to.
type ColorRepository interface {
	Create(ctx context.Context, c *models.Color) error
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Color, error)
}

// Store bundles the repositories of one driver.
type Store struct {
	Products ProductRepository
	Users    UserRepository
	Colors   ColorRepository
}
