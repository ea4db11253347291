package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Color is referenced by Product.Color and populated on single-product reads.
type Color struct {
	ID    primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title string             `bson:"title"         json:"title"`
}
