package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/collection"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

type memoryProducts struct {
	col *memCollection
}

// NewMemoryProductRepository returns an empty in-process product store.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProducts{col: newMemCollection("slug")}
}

func (r *memoryProducts) Create(_ context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	return r.col.insert(p.ID, p)
}

func (r *memoryProducts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	doc, err := r.col.get(id)
	if err != nil {
		return nil, err
	}
	return decodeProduct(doc)
}

func (r *memoryProducts) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	return r.modify(id, func(doc bson.M) error {
		for k, v := range set {
			doc[k] = v
		}
		bumpVersion(doc)
		return nil
	})
}

func (r *memoryProducts) Delete(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	doc, err := r.col.remove(id)
	if err != nil {
		return nil, err
	}
	return decodeProduct(doc)
}

func (r *memoryProducts) List(_ context.Context, q query.Query) ([]bson.M, error) {
	docs, err := r.col.find(q.Filter)
	if err != nil {
		return nil, err
	}
	query.SortDocs(docs, q.Sort)
	docs = page(docs, q.Skip(), int64(q.Limit))

	return collection.Map(docs, q.Projection.Apply), nil
}

func (r *memoryProducts) Count(_ context.Context, filter query.Filter) (int64, error) {
	docs, err := r.col.find(filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (r *memoryProducts) Search(_ context.Context, filter query.Filter, sort []query.SortField, limit int) ([]models.Product, error) {
	docs, err := r.col.find(filter)
	if err != nil {
		return nil, err
	}
	query.SortDocs(docs, sort)
	docs = page(docs, 0, int64(limit))

	out := make([]models.Product, 0, len(docs))
	for _, d := range docs {
		p, err := decodeProduct(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

func (r *memoryProducts) DecrementStock(_ context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	return r.modify(id, func(doc bson.M) error {
		have := intValue(doc["quantity"])
		if have < int64(qty) {
			return ErrInsufficientStock
		}
		left := have - int64(qty)
		doc["quantity"] = left
		doc["status"] = string(models.StatusFor(int(left)))
		doc["updatedAt"] = time.Now().UTC()
		bumpVersion(doc)
		return nil
	})
}

func (r *memoryProducts) UpsertRating(_ context.Context, id primitive.ObjectID, rating models.Rating) (*models.Product, error) {
	return r.modify(id, func(doc bson.M) error {
		ratings := asArray(doc["ratings"])
		for i, el := range ratings {
			entry, ok := asSubdoc(el)
			if !ok {
				continue
			}
			if by, _ := entry["postedby"].(primitive.ObjectID); by == rating.PostedBy {
				entry["star"] = rating.Star
				entry["comment"] = rating.Comment
				ratings[i] = entry
				doc["ratings"] = ratings
				return nil
			}
		}
		entry, err := toDoc(rating)
		if err != nil {
			return err
		}
		doc["ratings"] = append(ratings, entry)
		return nil
	})
}

func (r *memoryProducts) SetTotalRating(_ context.Context, id primitive.ObjectID, total int) (*models.Product, error) {
	return r.modify(id, func(doc bson.M) error {
		doc["totalrating"] = total
		return nil
	})
}

func (r *memoryProducts) AddImages(_ context.Context, id primitive.ObjectID, urls []string) (*models.Product, error) {
	return r.modify(id, func(doc bson.M) error {
		images := asArray(doc["images"])
		for _, u := range urls {
			images = append(images, u)
		}
		doc["images"] = images
		doc["updatedAt"] = time.Now().UTC()
		return nil
	})
}

func (r *memoryProducts) modify(id primitive.ObjectID, fn func(bson.M) error) (*models.Product, error) {
	doc, err := r.col.modify(id, fn)
	if err != nil {
		return nil, err
	}
	return decodeProduct(doc)
}

func decodeProduct(doc bson.M) (*models.Product, error) {
	var p models.Product
	if err := fromDoc(doc, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func page(docs []bson.M, skip, limit int64) []bson.M {
	docs = collection.Skip(docs, int(skip))
	if limit > 0 {
		docs = collection.Take(docs, int(limit))
	}
	return docs
}
