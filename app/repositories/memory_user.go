package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/app/models"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

type memoryUsers struct {
	col *memCollection
}

// NewMemoryUserRepository returns an empty in-process user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUsers{col: newMemCollection("email")}
}

func (r *memoryUsers) Create(_ context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Wishlist == nil {
		u.Wishlist = []primitive.ObjectID{}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return r.col.insert(u.ID, u)
}

func (r *memoryUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	doc, err := r.col.get(id)
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

func (r *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	docs, err := r.col.find(query.Filter{query.Equals{Field: "email", Value: email}})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return decodeUser(docs[0])
}

func (r *memoryUsers) AddToWishlist(_ context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	return r.modify(userID, func(doc bson.M) error {
		list := asArray(doc["wishlist"])
		for _, el := range list {
			if el == productID {
				return nil
			}
		}
		doc["wishlist"] = append(list, productID)
		return nil
	})
}

func (r *memoryUsers) RemoveFromWishlist(_ context.Context, userID, productID primitive.ObjectID) (*models.User, error) {
	return r.modify(userID, func(doc bson.M) error {
		list := asArray(doc["wishlist"])
		kept := primitive.A{}
		for _, el := range list {
			if el != productID {
				kept = append(kept, el)
			}
		}
		doc["wishlist"] = kept
		return nil
	})
}

func (r *memoryUsers) modify(id primitive.ObjectID, fn func(bson.M) error) (*models.User, error) {
	doc, err := r.col.modify(id, fn)
	if err != nil {
		return nil, err
	}
	return decodeUser(doc)
}

func decodeUser(doc bson.M) (*models.User, error) {
	var u models.User
	if err := fromDoc(doc, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

type memoryColors struct {
	col *memCollection
}

// NewMemoryColorRepository returns an empty in-process colour store.
func NewMemoryColorRepository() ColorRepository {
	return &memoryColors{col: newMemCollection()}
}

func (r *memoryColors) Create(_ context.Context, c *models.Color) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	return r.col.insert(c.ID, c)
}

func (r *memoryColors) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Color, error) {
	if len(ids) == 0 {
		return []models.Color{}, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	docs, err := r.col.find(query.Filter{query.In{Field: "_id", Values: values}})
	if err != nil {
		return nil, err
	}

	out := make([]models.Color, 0, len(docs))
	for _, d := range docs {
		var c models.Color
		if err := fromDoc(d, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NewMemoryStore wires the in-memory repositories.
func NewMemoryStore() *Store {
	return &Store{
		Products: NewMemoryProductRepository(),
		Users:    NewMemoryUserRepository(),
		Colors:   NewMemoryColorRepository(),
	}
}
