package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shashiranjanraj/storefront/pkg/database"
	"github.com/shashiranjanraj/storefront/pkg/migration"
)

func init() {
	migration.Register("20260101000000_create_product_indexes", &CreateProductIndexes{})
	migration.Register("20260101000001_create_user_indexes", &CreateUserIndexes{})
}

// -------- 0001: products --------

type CreateProductIndexes struct{}

func (m *CreateProductIndexes) Up(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(database.Products).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetName("slug_unique").SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("category_created")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created")},
	})
	return err
}

func (m *CreateProductIndexes) Down(ctx context.Context, db *mongo.Database) error {
	idx := db.Collection(database.Products).Indexes()
	for _, name := range []string{"slug_unique", "category_created", "created"} {
		if _, err := idx.DropOne(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// -------- 0002: users --------

type CreateUserIndexes struct{}

func (m *CreateUserIndexes) Up(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(database.Users).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetName("email_unique").SetUnique(true),
	})
	return err
}

func (m *CreateUserIndexes) Down(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(database.Users).Indexes().DropOne(ctx, "email_unique")
	return err
}
