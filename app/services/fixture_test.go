package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

var (
	anonymous = auth.Identity{}
	admin     = auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: auth.RoleAdmin}
)

// base is a fixed point in time so default (createdAt desc) order is
// predictable: later seeds sort first.
var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *repositories.Store
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, ctx: context.Background(), store: repositories.NewMemoryStore()}
}

// product seeds a product; mutate adjusts it before insertion.
func (f *fixture) product(title string, mutate func(p *models.Product)) *models.Product {
	f.t.Helper()
	f.seq++
	p := &models.Product{
		Title:     title,
		Slug:      fmt.Sprintf("%s-%d", title, f.seq),
		Category:  "kitchen",
		Price:     100,
		Quantity:  10,
		CreatedAt: base.Add(time.Duration(f.seq) * time.Minute),
		UpdatedAt: base.Add(time.Duration(f.seq) * time.Minute),
	}
	if mutate != nil {
		mutate(p)
	}
	p.Normalize()
	require.NoError(f.t, f.store.Products.Create(f.ctx, p))
	return p
}

// shopper seeds a user and returns the identity a verified token would carry.
func (f *fixture) shopper(email string) (*models.User, auth.Identity) {
	f.t.Helper()
	u := &models.User{Name: email, Email: email, Role: models.RoleUser}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u, auth.Identity{UserID: u.ID.Hex(), Role: models.RoleUser}
}

func (f *fixture) reload(id primitive.ObjectID) *models.Product {
	f.t.Helper()
	p, err := f.store.Products.FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return p
}

func requireKind(t *testing.T, err error, kind errs.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, errs.KindOf(err), "error: %v", err)
}
