// Package ctx gives handlers a single request context with helpers for
// params, binding and responses:
//
//	func Show(c *ctx.Context) {
//	    p, err := catalog.Get(c.Context(), c.Param("id"))
//	    if err != nil {
//	        c.Fail(err)
//	        return
//	    }
//	    c.Success(p)
//	}
//
//	router.Get("/products/{id}", "products.show", ctx.Wrap(Show))
package ctx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/bind"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// HandlerFunc is the context-aware handler signature.
type HandlerFunc func(c *Context)

// Wrap converts a HandlerFunc to a standard http.HandlerFunc.
func Wrap(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := acquire(w, r)
		defer release(c)
		h(c)
	}
}

// Context wraps a request/response pair.
type Context struct {
	W      http.ResponseWriter
	R      *http.Request
	status int
}

var pool = sync.Pool{
	New: func() any { return &Context{} },
}

func acquire(w http.ResponseWriter, r *http.Request) *Context {
	c := pool.Get().(*Context)
	c.W = w
	c.R = r
	c.status = 0
	return c
}

func release(c *Context) {
	c.W = nil
	c.R = nil
	pool.Put(c)
}

// ─── Request helpers ──────────────────────────────────────────────────────────

// Param returns a URL path parameter.
func (c *Context) Param(key string) string {
	return chi.URLParam(c.R, key)
}

// Query returns all query-string values.
func (c *Context) Query() url.Values {
	return c.R.URL.Query()
}

// Header returns the value of a request header.
func (c *Context) Header(key string) string {
	return c.R.Header.Get(key)
}

// Context returns the underlying request context.
func (c *Context) Context() context.Context { return c.R.Context() }

// Identity is the caller established by the Authenticate middleware; the
// zero Identity for anonymous requests.
func (c *Context) Identity() auth.Identity {
	return auth.FromCtx(c.R.Context())
}

// ─── Binding ──────────────────────────────────────────────────────────────────

// Bind decodes the JSON body into dest and runs its validate tags. Malformed
// JSON and failed rules come back as validation errors.
func (c *Context) Bind(dest any) error {
	fields, err := bind.JSON(c.R, dest)
	if err != nil {
		return errs.Validation("%s", err.Error())
	}
	if len(fields) > 0 {
		return errs.Fields(fields)
	}
	return nil
}

// BindJSON is Bind that answers the failure itself. Returns false when a
// response has been sent.
//
//	var in RateRequest
//	if !c.BindJSON(&in) {
//	    return
//	}
func (c *Context) BindJSON(dest any) bool {
	if err := c.Bind(dest); err != nil {
		c.Fail(err)
		return false
	}
	return true
}

// ─── Response helpers ─────────────────────────────────────────────────────────

// JSON writes v without the envelope.
func (c *Context) JSON(code int, v any) {
	c.status = code
	response.JSON(c.W, code, v)
}

// Success sends a 200 JSON envelope: {"status":200,"data":...}
func (c *Context) Success(data any) {
	c.JSON(http.StatusOK, response.Envelope{Status: http.StatusOK, Data: data})
}

// Error sends a JSON error envelope with the given status and message.
func (c *Context) Error(code int, message string) {
	c.JSON(code, response.Envelope{Status: code, Message: message})
}

// Fail answers err with the status and message of its kind.
func (c *Context) Fail(err error) {
	if err == nil {
		err = errs.Internal(errors.New("ctx: Fail called with nil error"))
	}
	c.status = errs.HTTPStatus(err)
	response.Fail(c.W, c.R, err)
}

// WrittenStatus returns the status written so far, or 0.
func (c *Context) WrittenStatus() int { return c.status }
