package controllers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/payment"
	"github.com/shashiranjanraj/storefront/pkg/payment/paymenttest"
	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

func TestScenarios(t *testing.T) {
	h := newHarness(t)
	testkit.RunDir(t, h.handler, "testdata", h.vars)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (h *harness) upload(url string, user *models.User, files map[string]string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, contentType := range files {
		hdr := textproto.MIMEHeader{}
		hdr.Set("Content-Disposition", `form-data; name="images"; filename="`+name+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(h.t, err)
		_, err = part.Write([]byte("bytes of " + name))
		require.NoError(h.t, err)
	}
	require.NoError(h.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if user != nil {
		req.Header.Set("Authorization", "Bearer "+h.token(user))
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadImages(t *testing.T) {
	h := newHarness(t)
	url := "/api/products/" + h.mug.ID.Hex() + "/images"

	rec := h.upload(url, h.admin, map[string]string{"front.jpg": "image/jpeg", "back.png": "image/png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, h.reload(h.mug.ID).Images, 2)

	// Stored files are served back under /storage.
	stored := h.reload(h.mug.ID).Images[0]
	require.True(t, strings.HasPrefix(stored, "http://cdn.test/storage/"), stored)
	get := testkit.Do(h.handler, http.MethodGet, strings.TrimPrefix(stored, "http://cdn.test"), nil, nil)
	assert.Equal(t, http.StatusOK, get.Code)
	assert.True(t, strings.HasPrefix(get.Body.String(), "bytes of "))

	rec = h.upload(url, h.shopper, map[string]string{"a.jpg": "image/jpeg"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.upload(url, h.admin, map[string]string{"notes.txt": "text/plain"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.upload(url, h.admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, h.reload(h.mug.ID).Images, 2)
}

func TestCheckoutVerifyAndSettle(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"amount": 2500, "items": [{"productId": "` + h.mug.ID.Hex() + `", "quantity": 2}]}`)

	rec := testkit.Do(h.handler, http.MethodPost, "/api/payments/checkout", body, h.bearer(h.shopper))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "pi_1_secret", decode(t, rec)["clientSecret"])

	verify := []byte(`{"paymentIntentId": "pi_1"}`)
	rec = testkit.Do(h.handler, http.MethodPost, "/api/payments/verify", verify, h.bearer(h.shopper))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Payment unsuccessful", decode(t, rec)["error"])

	h.gw.SetStatus("pi_1", payment.StatusSucceeded)

	rec = testkit.Do(h.handler, http.MethodPost, "/api/payments/verify", verify, h.bearer(h.shopper))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	intent := out["paymentIntent"].(map[string]any)
	assert.Equal(t, "pi_1", intent["id"])
	assert.NotContains(t, intent, "client_secret")

	other := h.user("other@example.com", models.RoleUser)
	rec = testkit.Do(h.handler, http.MethodPost, "/api/payments/verify", verify, h.bearer(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The provider then reports settlement; stock moves exactly once.
	settled, err := h.gw.RetrieveIntent(h.ctx, "pi_1")
	require.NoError(t, err)
	payload := `{"id":"evt_1"}`
	h.gw.Queue(payload, &payment.Event{ID: "evt_1", Type: payment.EventIntentSucceeded, Intent: settled})
	sig := map[string]string{"Stripe-Signature": paymenttest.Signature}

	rec = testkit.Do(h.handler, http.MethodPost, "/api/payments/webhook", []byte(payload), sig)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"received": true}, decode(t, rec))
	assert.Equal(t, 3, h.reload(h.mug.ID).Quantity)

	rec = testkit.Do(h.handler, http.MethodPost, "/api/payments/webhook", []byte(payload), sig)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["duplicate"])
	assert.Equal(t, 3, h.reload(h.mug.ID).Quantity)
}

func TestWishlistTogglesOff(t *testing.T) {
	h := newHarness(t)
	body := []byte(`{"prodId": "` + h.tote.ID.Hex() + `"}`)

	for _, want := range []float64{1, 0} {
		rec := testkit.Do(h.handler, http.MethodPut, "/api/products/wishlist", body, h.bearer(h.shopper))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		data := decode(t, rec)["data"]
		n, _ := testkit.Lookup(data, "wishlist.#")
		assert.Equal(t, want, n)
	}
}

func TestDeleteReturnsProduct(t *testing.T) {
	h := newHarness(t)
	rec := testkit.Do(h.handler, http.MethodDelete, "/api/products/"+h.tote.ID.Hex(), nil, h.bearer(h.admin))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	title, _ := testkit.Lookup(decode(t, rec), "data.title")
	assert.Equal(t, "Tote", title)

	rec = testkit.Do(h.handler, http.MethodGet, "/api/products/"+h.tote.ID.Hex(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCrossCuttingMiddleware(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.test", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = testkit.Do(h.handler, http.MethodGet, "/api/products", nil, map[string]string{"X-Request-ID": "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = testkit.Do(h.handler, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "storefront_http_requests_total")
}
