package controllers_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/internal/kernel"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/cache"
	"github.com/shashiranjanraj/storefront/pkg/middleware"
	"github.com/shashiranjanraj/storefront/pkg/payment/paymenttest"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

// harness is the full HTTP stack over the memory store and fake gateway,
// seeded with two kitchen products, one bag and two users.
type harness struct {
	t       *testing.T
	ctx     context.Context
	store   *repositories.Store
	gw      *paymenttest.Gateway
	handler http.Handler
	root    string
	vars    testkit.Vars

	mug, kettle, tote *models.Product
	shopper, admin    *models.User
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		ctx:   context.Background(),
		store: repositories.NewMemoryStore(),
		gw:    paymenttest.New(),
		root:  t.TempDir(),
	}

	disk, err := storage.NewLocalDisk(h.root, "http://cdn.test/storage")
	require.NoError(t, err)

	h.handler = kernel.New(kernel.Deps{
		Store:      h.store,
		Gateway:    h.gw,
		Ledger:     cache.NewMemoryLedger(time.Hour),
		Limiter:    middleware.NewMemoryLimiter(1000, time.Minute),
		Disk:       disk,
		Currency:   "pkr",
		Origins:    []string{"https://shop.test"},
		StaticRoot: h.root,
	}).Handler()

	black := &models.Color{Title: "Black"}
	require.NoError(t, h.store.Colors.Create(h.ctx, black))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.mug = h.product("Mug", "kitchen", 100, 5, base, black.ID)
	h.kettle = h.product("Kettle", "kitchen", 250, 0, base.Add(time.Hour))
	h.tote = h.product("Tote", "bags", 40, 12, base.Add(2*time.Hour))

	h.shopper = h.user("shopper@example.com", models.RoleUser)
	h.admin = h.user("admin@example.com", models.RoleAdmin)

	h.vars = testkit.Vars{
		"mugId":        h.mug.ID.Hex(),
		"kettleId":     h.kettle.ID.Hex(),
		"toteId":       h.tote.ID.Hex(),
		"colorId":      black.ID.Hex(),
		"missingId":    primitive.NewObjectID().Hex(),
		"shopperId":    h.shopper.ID.Hex(),
		"shopperToken": h.token(h.shopper),
		"adminToken":   h.token(h.admin),
	}
	return h
}

func (h *harness) product(title, category string, price float64, qty int, created time.Time, colors ...primitive.ObjectID) *models.Product {
	h.t.Helper()
	p := &models.Product{
		Title:     title,
		Slug:      title,
		Category:  category,
		Price:     price,
		Quantity:  qty,
		Color:     colors,
		CreatedAt: created,
		UpdatedAt: created,
	}
	p.Normalize()
	require.NoError(h.t, h.store.Products.Create(h.ctx, p))
	return p
}

func (h *harness) user(email, role string) *models.User {
	h.t.Helper()
	u := &models.User{Name: email, Email: email, Role: role}
	require.NoError(h.t, h.store.Users.Create(h.ctx, u))
	return u
}

func (h *harness) token(u *models.User) string {
	h.t.Helper()
	tok, err := auth.GenerateToken(u.ID.Hex(), u.Role, time.Hour)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) bearer(u *models.User) map[string]string {
	return map[string]string{"Authorization": "Bearer " + h.token(u)}
}

func (h *harness) reload(id primitive.ObjectID) *models.Product {
	h.t.Helper()
	p, err := h.store.Products.FindByID(h.ctx, id)
	require.NoError(h.t, err)
	return p
}
