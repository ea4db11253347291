package models

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/query"
)

// Status is derived from Quantity and never set directly.
type Status string

const (
	StatusInStock    Status = "in_stock"
	StatusOutOfStock Status = "out_of_stock"
)

// StatusFor returns the stock status matching quantity.
func StatusFor(quantity int) Status {
	if quantity > 0 {
		return StatusInStock
	}
	return StatusOutOfStock
}

// Product is a catalogue entry stored in the "products" collection.
type Product struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"         json:"_id"`
	Title       string               `bson:"title"                 json:"title"`
	Slug        string               `bson:"slug"                  json:"slug"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	Category    string               `bson:"category"              json:"category"`
	Brand       string               `bson:"brand,omitempty"       json:"brand,omitempty"`
	Price       float64              `bson:"price"                 json:"price"`
	Quantity    int                  `bson:"quantity"              json:"quantity"`
	Status      Status               `bson:"status"                json:"status"`
	Tags        []string             `bson:"tags"                  json:"tags"`
	Ratings     []Rating             `bson:"ratings"               json:"ratings"`
	TotalRating int                  `bson:"totalrating"           json:"totalrating"`
	Color       []primitive.ObjectID `bson:"color"                 json:"color"`
	Images      []string             `bson:"images"                json:"images"`
	CreatedAt   time.Time            `bson:"createdAt"             json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt"             json:"updatedAt"`
	Version     int                  `bson:"__v"                   json:"-"`
}

// Rating is one shopper's score for a product. A shopper should have at most
// one entry; when duplicates exist the first one is authoritative.
type Rating struct {
	PostedBy primitive.ObjectID `bson:"postedby" json:"postedby"`
	Star     int                `bson:"star"     json:"star"`
	Comment  string             `bson:"comment"  json:"comment"`
}

// Normalize fills nil slices so stored documents always carry arrays, and
// re-derives Status from Quantity.
func (p *Product) Normalize() {
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Ratings == nil {
		p.Ratings = []Rating{}
	}
	if p.Color == nil {
		p.Color = []primitive.ObjectID{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Status = StatusFor(p.Quantity)
}

// TotalRating is the mean star value rounded half up, or 0 when there are no
// ratings.
func TotalRating(ratings []Rating) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Star
	}
	return int(math.Floor(float64(sum)/float64(len(ratings)) + 0.5))
}

// ProductSchema lists the product fields accepted in list filters and sorts.
var ProductSchema = query.Schema{
	"_id":         query.ObjectID,
	"title":       query.String,
	"slug":        query.String,
	"description": query.String,
	"category":    query.String,
	"brand":       query.String,
	"price":       query.Number,
	"quantity":    query.Int,
	"status":      query.String,
	"tags":        query.String,
	"totalrating": query.Int,
	"color":       query.ObjectID,
	"createdAt":   query.Time,
	"updatedAt":   query.Time,
}
