package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/metrics"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

type mongoProducts struct {
	col *mongo.Collection
}

// NewMongoProductRepository stores products in db's "products" collection.
func NewMongoProductRepository(db *mongo.Database) ProductRepository {
	return &mongoProducts{col: db.Collection(database.Products)}
}

var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

func (r *mongoProducts) Create(ctx context.Context, p *models.Product) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return mongoErr("create product", err)
	}
	return nil
}

func (r *mongoProducts) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		return nil, mongoErr("find product", err)
	}
	return &p, nil
}

func (r *mongoProducts) Update(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$inc", Value: bson.D{{Key: "__v", Value: 1}}},
	}
	return r.findOneAndUpdate(ctx, "update product", bson.D{{Key: "_id", Value: id}}, update)
}

func (r *mongoProducts) Delete(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var p models.Product
	if err := r.col.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p); err != nil {
		return nil, mongoErr("delete product", err)
	}
	return &p, nil
}

func (r *mongoProducts) List(ctx context.Context, q query.Query) ([]bson.M, error) {
	defer metrics.ObserveStoreOp("products.list", time.Now())

	opts := options.Find().
		SetSort(query.SortBSON(q.Sort)).
		SetProjection(q.Projection.BSON())
	if skip := q.Skip(); skip > 0 {
		opts.SetSkip(skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := r.col.Find(ctx, q.Filter.BSON(), opts)
	if err != nil {
		return nil, mongoErr("list products", err)
	}
	docs := []bson.M{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoErr("list products", err)
	}
	return docs, nil
}

func (r *mongoProducts) Count(ctx context.Context, filter query.Filter) (int64, error) {
	defer metrics.ObserveStoreOp("products.count", time.Now())

	n, err := r.col.CountDocuments(ctx, filter.BSON())
	if err != nil {
		return 0, mongoErr("count products", err)
	}
	return n, nil
}

func (r *mongoProducts) Search(ctx context.Context, filter query.Filter, sort []query.SortField, limit int) ([]models.Product, error) {
	defer metrics.ObserveStoreOp("products.search", time.Now())

	opts := options.Find().SetSort(query.SortBSON(sort))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, filter.BSON(), opts)
	if err != nil {
		return nil, mongoErr("search products", err)
	}
	out := []models.Product{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("search products", err)
	}
	return out, nil
}

// DecrementStock guards and applies the decrement in a single
// findOneAndUpdate. The pipeline form lets status be derived from the new
// quantity inside the same write.
func (r *mongoProducts) DecrementStock(ctx context.Context, id primitive.ObjectID, qty int) (*models.Product, error) {
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "quantity", Value: bson.D{{Key: "$gte", Value: qty}}},
	}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{{Key: "$subtract", Value: bson.A{"$quantity", qty}}}},
			{Key: "updatedAt", Value: time.Now().UTC()},
			{Key: "__v", Value: bson.D{{Key: "$add", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$__v", 0}}}, 1}}}},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{"$quantity", 0}}},
				string(models.StatusInStock),
				string(models.StatusOutOfStock),
			}}}},
		}}},
	}

	var p models.Product
	err := r.col.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is gone or the guard failed.
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, mongoErr("decrement stock", err)
	}
	return &p, nil
}

// UpsertRating uses the positional operator, which updates only the first
// array element matching the filter.
func (r *mongoProducts) UpsertRating(ctx context.Context, id primitive.ObjectID, rating models.Rating) (*models.Product, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "ratings.postedby", Value: rating.PostedBy}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "ratings.$.star", Value: rating.Star},
			{Key: "ratings.$.comment", Value: rating.Comment},
		}}},
	)
	if err != nil {
		return nil, mongoErr("update rating", err)
	}

	if res.MatchedCount == 0 {
		res, err = r.col.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: id}},
			bson.D{{Key: "$push", Value: bson.D{{Key: "ratings", Value: rating}}}},
		)
		if err != nil {
			return nil, mongoErr("push rating", err)
		}
		if res.MatchedCount == 0 {
			return nil, ErrNotFound
		}
	}

	return r.FindByID(ctx, id)
}

func (r *mongoProducts) SetTotalRating(ctx context.Context, id primitive.ObjectID, total int) (*models.Product, error) {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "totalrating", Value: total}}}}
	return r.findOneAndUpdate(ctx, "set total rating", bson.D{{Key: "_id", Value: id}}, update)
}

func (r *mongoProducts) AddImages(ctx context.Context, id primitive.ObjectID, urls []string) (*models.Product, error) {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "images", Value: bson.D{{Key: "$each", Value: urls}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	return r.findOneAndUpdate(ctx, "add images", bson.D{{Key: "_id", Value: id}}, update)
}

func (r *mongoProducts) findOneAndUpdate(ctx context.Context, op string, filter, update any) (*models.Product, error) {
	defer metrics.ObserveStoreOp("products.update", time.Now())

	var p models.Product
	if err := r.col.FindOneAndUpdate(ctx, filter, update, returnAfter).Decode(&p); err != nil {
		return nil, mongoErr(op, err)
	}
	return &p, nil
}

// mongoErr maps driver errors onto the package sentinels.
func mongoErr(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s", ErrDuplicate, op)
	}
	return fmt.Errorf("repositories: %s: %w", op, err)
}
