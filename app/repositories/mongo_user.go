package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/database"
)

type mongoUsers struct {
	col *mongo.Collection
}

// NewMongoUserRepository stores users in db's "users" collection.
func NewMongoUserRepository(db *mongo.Database) UserRepository {
	return &mongoUsers{col: db.Collection(database.Users)}
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Wishlist == nil {
		u.Wishlist = []primitive.ObjectID{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return mongoErr("create user", err)
	}
	return nil
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, "find user", bson.D{{Key: "_id", Value: id}})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "find user by email", bson.D{{Key: "email", Value: email}})
}

func (r *mongoUsers) AddToWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	return r.update(ctx, "add to wishlist", userID,
		bson.D{{Key: "$addToSet", Value: bson.D{{Key: "wishlist", Value: productID}}}})
}

func (r *mongoUsers) RemoveFromWishlist(ctx context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	return r.update(ctx, "remove from wishlist", userID,
		bson.D{{Key: "$pull", Value: bson.D{{Key: "wishlist", Value: productID}}}})
}

func (r *mongoUsers) findOne(ctx context.Context, op string, filter bson.D) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, mongoErr(op, err)
	}
	return &u, nil
}

func (r *mongoUsers) update(ctx context.Context, op string, id primitive.ObjectID, update bson.D) (*models.User, error) {
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, update, returnAfter).Decode(&u); err != nil {
		return nil, mongoErr(op, err)
	}
	return &u, nil
}

type mongoColors struct {
	col *mongo.Collection
}

// NewMongoColorRepository stores colours in db's "colors" collection.
func NewMongoColorRepository(db *mongo.Database) ColorRepository {
	return &mongoColors{col: db.Collection(database.Colors)}
}

func (r *mongoColors) Create(ctx context.Context, c *models.Color) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.col.InsertOne(ctx, c); err != nil {
		return mongoErr("create color", err)
	}
	return nil
}

func (r *mongoColors) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Color, error) {
	out := []models.Color{}
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := r.col.Find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: ids}}}})
	if err != nil {
		return nil, mongoErr("find colors", err)
	}
	if err := cur.All(ctx, &out); err != nil {
		return nil, mongoErr("find colors", err)
	}
	return out, nil
}

// NewMongoStore wires the MongoDB repositories on db.
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Products: NewMongoProductRepository(db),
		Users:    NewMongoUserRepository(db),
		Colors:   NewMongoColorRepository(db),
	}
}
