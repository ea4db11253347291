package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

func TestWishlist_Toggle(t *testing.T) {
	f := newFixture(t)
	svc := NewWishlistService(f.store.Users, f.store.Products)
	p := f.product("Mug", nil)
	q := f.product("Bowl", nil)
	_, id := f.shopper("w@example.com")

	u, err := svc.Toggle(f.ctx, id, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{p.ID}, u.Wishlist)

	u, err = svc.Toggle(f.ctx, id, q.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{p.ID, q.ID}, u.Wishlist)

	u, err = svc.Toggle(f.ctx, id, p.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []primitive.ObjectID{q.ID}, u.Wishlist)
}

func TestWishlist_Errors(t *testing.T) {
	f := newFixture(t)
	svc := NewWishlistService(f.store.Users, f.store.Products)
	p := f.product("Mug", nil)
	_, id := f.shopper("e@example.com")

	_, err := svc.Toggle(f.ctx, anonymous, p.ID.Hex())
	requireKind(t, err, errs.KindUnauthorized)

	_, err = svc.Toggle(f.ctx, id, primitive.NewObjectID().Hex())
	requireKind(t, err, errs.KindNotFound)

	_, err = svc.Toggle(f.ctx, id, "nope")
	requireKind(t, err, errs.KindValidation)

	ghost := auth.Identity{UserID: primitive.NewObjectID().Hex()}
	_, err = svc.Toggle(f.ctx, ghost, p.ID.Hex())
	requireKind(t, err, errs.KindNotFound)
}
