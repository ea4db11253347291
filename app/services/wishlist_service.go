package services

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
)

// WishlistService toggles products on a shopper's wishlist.
type WishlistService struct {
	users    repositories.UserRepository
	products repositories.ProductRepository
}

func NewWishlistService(users repositories.UserRepository, products repositories.ProductRepository) *WishlistService {
	return &WishlistService{users: users, products: products}
}

// Toggle removes prodID when the caller already wishlisted it and adds it
// otherwise. Returns the updated user.
func (s *WishlistService) Toggle(ctx context.Context, id auth.Identity, prodID string) (*models.User, error) {
	uid, err := requireUser(id)
	if err != nil {
		return nil, err
	}
	pid, err := parseID("prodId", prodID)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.FindByID(ctx, pid); err != nil {
		return nil, storeErr("find product", err, fmt.Sprintf("Product with ID %s not found", prodID))
	}
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, storeErr("find user", err, "User not found")
	}

	if u.InWishlist(pid) {
		u, err = s.users.RemoveFromWishlist(ctx, uid, pid)
	} else {
		u, err = s.users.AddToWishlist(ctx, uid, pid)
	}
	if err != nil {
		return nil, storeErr("toggle wishlist", err, "User not found")
	}
	return u, nil
}
