package controllers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/shashiranjanraj/storefront/app/services"
	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// imagesField is the multipart field product images are uploaded under.
const imagesField = "images"

// ProductController serves the /products endpoints.
type ProductController struct {
	catalog   *services.CatalogService
	recommend *services.RecommendationService
	stock     *services.StockService
	ratings   *services.RatingService
	wishlist  *services.WishlistService
}

func NewProductController(
	catalog *services.CatalogService,
	recommend *services.RecommendationService,
	stock *services.StockService,
	ratings *services.RatingService,
	wishlist *services.WishlistService,
) *ProductController {
	return &ProductController{
		catalog:   catalog,
		recommend: recommend,
		stock:     stock,
		ratings:   ratings,
		wishlist:  wishlist,
	}
}

func (pc *ProductController) Create(c *ctx.Context) {
	var in services.ProductInput
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.catalog.Create(c.Context(), c.Identity(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Update(c *ctx.Context) {
	var patch services.ProductPatch
	if !c.BindJSON(&patch) {
		return
	}
	p, err := pc.catalog.Update(c.Context(), c.Identity(), c.Param("id"), patch)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Delete(c *ctx.Context) {
	p, err := pc.catalog.Delete(c.Context(), c.Identity(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

func (pc *ProductController) Show(c *ctx.Context) {
	p, err := pc.catalog.Get(c.Context(), c.Param("id"))
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// Index lists products filtered, sorted and paged by the query string.
func (pc *ProductController) Index(c *ctx.Context) {
	docs, err := pc.catalog.List(c.Context(), c.Query())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(docs)
}

// Wishlist toggles body.prodId in the caller's wishlist.
func (pc *ProductController) Wishlist(c *ctx.Context) {
	var body struct {
		ProdID string `json:"prodId" validate:"required"`
	}
	if !c.BindJSON(&body) {
		return
	}
	u, err := pc.wishlist.Toggle(c.Context(), c.Identity(), body.ProdID)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(u)
}

func (pc *ProductController) Rate(c *ctx.Context) {
	var in services.RateRequest
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.ratings.Rate(c.Context(), c.Identity(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}

// Recommend lists products of the category (and brand) given in the query.
func (pc *ProductController) Recommend(c *ctx.Context) {
	docs, err := pc.recommend.ByCategory(c.Context(), c.Query())
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(docs)
}

// similarResult is the flat body of Similar; errors keep the envelope.
type similarResult struct {
	Success bool                     `json:"success"`
	Count   int                      `json:"count"`
	Data    []services.ScoredProduct `json:"data"`
}

// Similar ranks same-category products against the product in the body.
func (pc *ProductController) Similar(c *ctx.Context) {
	var req services.SimilarRequest
	if !c.BindJSON(&req) {
		return
	}
	ranked, err := pc.recommend.Similar(c.Context(), req)
	if err != nil {
		c.Fail(err)
		return
	}
	if ranked == nil {
		ranked = []services.ScoredProduct{}
	}
	c.JSON(http.StatusOK, similarResult{Success: true, Count: len(ranked), Data: ranked})
}

// CheckStock answers whether a cart line can be fulfilled right now.
func (pc *ProductController) CheckStock(c *ctx.Context) {
	var in services.StockCheck
	if !c.BindJSON(&in) {
		return
	}
	p, err := pc.stock.Check(c.Context(), in)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(map[string]any{
		"available": true,
		"productId": p.ID.Hex(),
		"quantity":  p.Quantity,
		"status":    p.Status,
	})
}

// UploadImages stores the multipart "images" files and appends their URLs.
func (pc *ProductController) UploadImages(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, config.MaxBodyBytes())
	if err := c.R.ParseMultipartForm(config.MaxBodyBytes()); err != nil {
		c.Fail(errs.Validation("Invalid multipart upload: %s", err.Error()))
		return
	}
	defer c.R.MultipartForm.RemoveAll() //nolint:errcheck

	headers := c.R.MultipartForm.File[imagesField]
	files := make([]services.Upload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	defer func() {
		for _, f := range closers {
			f.Close()
		}
	}()

	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			c.Fail(errs.Internal(fmt.Errorf("controllers: open upload: %w", err)))
			return
		}
		closers = append(closers, f)
		files = append(files, services.Upload{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Body:        f,
		})
	}

	p, err := pc.catalog.AddImages(c.Context(), c.Identity(), c.Param("id"), files)
	if err != nil {
		c.Fail(err)
		return
	}
	c.Success(p)
}
