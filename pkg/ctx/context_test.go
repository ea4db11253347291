package ctx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	appctx "github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

type rateInput struct {
	Star   int    `json:"star"   validate:"required,min=1,max=5"`
	ProdID string `json:"prodId" validate:"required,objectid"`
}

func serve(h appctx.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	appctx.Wrap(h)(rec, req)
	return rec
}

func TestSuccessEnvelope(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Success(map[string]any{"id": 1})
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":200,"data":{"id":1}}`, rec.Body.String())
}

func TestBindJSON_FieldErrorsAre400(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/", strings.NewReader(`{"star":9,"prodId":"abc"}`))
	called := false
	rec := serve(func(c *appctx.Context) {
		var in rateInput
		if !c.BindJSON(&in) {
			return
		}
		called = true
	}, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"star"`)
	assert.Contains(t, rec.Body.String(), `"prodId"`)
}

func TestBind_MalformedJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"star":`))
	var err error
	serve(func(c *appctx.Context) {
		var in rateInput
		err = c.Bind(&in)
	}, req)

	require.Error(t, err)
	assert.Equal(t, errs.KindValidation, errs.KindOf(err))
}

func TestFailWritesKindStatus(t *testing.T) {
	rec := serve(func(c *appctx.Context) {
		c.Fail(errs.NotFound("Product with ID 1 not found"))
		assert.Equal(t, http.StatusNotFound, c.WrittenStatus())
	}, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":404,"message":"Product with ID 1 not found"}`, rec.Body.String())
}

func TestParamAndIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products/42?limit=5", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "42")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = auth.WithIdentity(ctx, auth.Identity{UserID: "u1", Role: "admin"})
	req = req.WithContext(ctx)

	serve(func(c *appctx.Context) {
		assert.Equal(t, "42", c.Param("id"))
		assert.Equal(t, "5", c.Query().Get("limit"))
		assert.True(t, c.Identity().IsAdmin())
		c.Success(nil)
	}, req)
}
