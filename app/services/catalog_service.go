package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/app/repositories"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/query"
	"github.com/shashiranjanraj/storefront/pkg/storage"
	"github.com/shashiranjanraj/storefront/pkg/validate"
	"github.com/shashiranjanraj/storefront/pkg/workerpool"
)

// ProductInput is the body of a create request.
type ProductInput struct {
	Title       string   `json:"title"       validate:"required,max=200"`
	Description string   `json:"description" validate:"nullable,max=5000"`
	Category    string   `json:"category"    validate:"required,max=100"`
	Brand       string   `json:"brand"       validate:"nullable,max=100"`
	Price       float64  `json:"price"       validate:"gte=0"`
	Quantity    int      `json:"quantity"`
	Tags        []string `json:"tags"`
	Color       []string `json:"color"`
	Images      []string `json:"images"`
}

// ProductPatch is the body of an update request. Nil fields are left alone.
type ProductPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Brand       *string   `json:"brand"`
	Price       *float64  `json:"price"`
	Quantity    *int      `json:"quantity"`
	Tags        *[]string `json:"tags"`
	Color       *[]string `json:"color"`
	Images      *[]string `json:"images"`
}

// ProductDetail is a product with its colour references resolved.
type ProductDetail struct {
	*models.Product
	Color []models.Color `json:"color"`
}

// Upload is one file received for a product.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

const errNegativeQuantity = "Product quantity cannot be negative"

// CatalogService manages product records.
type CatalogService struct {
	products repositories.ProductRepository
	colors   repositories.ColorRepository
	disk     storage.Disk
	uploads  *workerpool.Pool
	now      func() time.Time
}

// NewCatalogService wires the catalog. disk may be nil when uploads are
// disabled.
func NewCatalogService(products repositories.ProductRepository, colors repositories.ColorRepository, disk storage.Disk) *CatalogService {
	return &CatalogService{products: products, colors: colors, disk: disk, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new product. Slug and status are derived.
func (s *CatalogService) Create(ctx context.Context, id auth.Identity, in ProductInput) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if fields := validate.Struct(in); validate.HasErrors(fields) {
		return nil, errs.Fields(fields)
	}
	if in.Quantity < 0 {
		return nil, errs.Validation(errNegativeQuantity)
	}
	colors, err := parseIDs("color", in.Color)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug.Make(in.Title),
		Description: in.Description,
		Category:    in.Category,
		Brand:       in.Brand,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Tags:        in.Tags,
		Color:       colors,
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Normalize()

	if err := s.products.Create(ctx, p); err != nil {
		return nil, storeErr("create product", err, "Product not found")
	}
	return p, nil
}

// Update applies a partial change. Slug follows a new title and status
// follows a new quantity.
func (s *CatalogService) Update(ctx context.Context, id auth.Identity, productID string, patch ProductPatch) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	oid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, errs.Fields(map[string]string{"title": "The title field is required."})
		}
		set["title"] = title
		set["slug"] = slug.Make(title)
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Category != nil {
		if strings.TrimSpace(*patch.Category) == "" {
			return nil, errs.Fields(map[string]string{"category": "The category field is required."})
		}
		set["category"] = *patch.Category
	}
	if patch.Brand != nil {
		set["brand"] = *patch.Brand
	}
	if patch.Price != nil {
		if *patch.Price < 0 {
			return nil, errs.Fields(map[string]string{"price": "The price must be greater than or equal to 0."})
		}
		set["price"] = *patch.Price
	}
	if patch.Quantity != nil {
		if *patch.Quantity < 0 {
			return nil, errs.Validation(errNegativeQuantity)
		}
		set["quantity"] = *patch.Quantity
		set["status"] = string(models.StatusFor(*patch.Quantity))
	}
	if patch.Tags != nil {
		set["tags"] = nonNil(*patch.Tags)
	}
	if patch.Color != nil {
		colors, err := parseIDs("color", *patch.Color)
		if err != nil {
			return nil, err
		}
		set["color"] = colors
	}
	if patch.Images != nil {
		set["images"] = nonNil(*patch.Images)
	}
	set["updatedAt"] = s.now()

	p, err := s.products.Update(ctx, oid, set)
	if err != nil {
		return nil, storeErr("update product", err, fmt.Sprintf("Product with ID %s not found", productID))
	}
	return p, nil
}

// Delete removes a product and returns it.
func (s *CatalogService) Delete(ctx context.Context, id auth.Identity, productID string) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	oid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.Delete(ctx, oid)
	if err != nil {
		return nil, storeErr("delete product", err, fmt.Sprintf("Product with ID %s not found", productID))
	}
	return p, nil
}

// Get returns one product with its colours populated.
func (s *CatalogService) Get(ctx context.Context, productID string) (*ProductDetail, error) {
	oid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, oid)
	if err != nil {
		return nil, storeErr("get product", err, fmt.Sprintf("Product with ID %s not found", productID))
	}
	colors, err := s.colors.FindByIDs(ctx, p.Color)
	if err != nil {
		return nil, fmt.Errorf("services: populate colors: %w", err)
	}
	return &ProductDetail{Product: p, Color: colors}, nil
}

// List runs a parsed query-string query.
func (s *CatalogService) List(ctx context.Context, values url.Values) ([]bson.M, error) {
	q, err := query.Parse(values, models.ProductSchema, query.Options{})
	if err != nil {
		return nil, err
	}
	return s.run(ctx, q)
}

// run checks an explicitly requested page against the number of matching
// products, then fetches it.
func (s *CatalogService) run(ctx context.Context, q query.Query) ([]bson.M, error) {
	if q.PageRequested {
		total, err := s.products.Count(ctx, q.Filter)
		if err != nil {
			return nil, fmt.Errorf("services: count products: %w", err)
		}
		if err := q.CheckPage(total); err != nil {
			return nil, err
		}
	}
	docs, err := s.products.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("services: list products: %w", err)
	}
	return docs, nil
}

// AddImages stores uploads under products/<id>/ and appends their URLs.
func (s *CatalogService) AddImages(ctx context.Context, id auth.Identity, productID string, files []Upload) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if s.disk == nil {
		return nil, errs.Internal(fmt.Errorf("services: no storage disk configured"))
	}
	oid, err := parseID("product id", productID)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errs.Fields(map[string]string{"images": "At least one image is required."})
	}
	if _, err := s.products.FindByID(ctx, oid); err != nil {
		return nil, storeErr("find product", err, fmt.Sprintf("Product with ID %s not found", productID))
	}

	if bad, found := collection.First(files, func(f Upload) bool {
		return !strings.HasPrefix(f.ContentType, "image/")
	}); found {
		return nil, errs.Validation("%s is not an image", bad.Filename)
	}
	keys := collection.Map(files, func(f Upload) string {
		return path.Join("products", oid.Hex(), uuid.NewString()+strings.ToLower(path.Ext(f.Filename)))
	})

	tasks := make([]func() error, len(files))
	for i, f := range files {
		i, f := i, f
		tasks[i] = func() error { return s.disk.Put(ctx, keys[i], f.Body, f.ContentType) }
	}
	for _, err := range s.runUploads(tasks) {
		if err != nil {
			return nil, fmt.Errorf("services: store image: %w", err)
		}
	}

	urls := collection.Map(keys, s.disk.URL)

	p, err := s.products.AddImages(ctx, oid, urls)
	if err != nil {
		return nil, storeErr("add images", err, fmt.Sprintf("Product with ID %s not found", productID))
	}
	return p, nil
}

// UseUploadPool stores the files of one request concurrently on pool.
func (s *CatalogService) UseUploadPool(pool *workerpool.Pool) {
	s.uploads = pool
}

func (s *CatalogService) runUploads(tasks []func() error) []error {
	if s.uploads != nil {
		return s.uploads.Do(tasks...)
	}
	out := make([]error, len(tasks))
	for i, t := range tasks {
		out[i] = t()
	}
	return out
}

func parseIDs(field string, hexes []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := parseID(field, h)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
