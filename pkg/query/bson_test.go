package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/shashiranjanraj/storefront/pkg/query"
)

func TestFilterBSON(t *testing.T) {
	f := query.Filter{
		query.Equals{Field: "category", Value: "mugs"},
		query.Range{Field: "price", Gte: 100.0, Lte: 200.0},
		query.In{Field: "brand", Values: []any{"acme", "globex"}},
		query.NotEquals{Field: "_id", Value: "x"},
	}

	want := bson.D{
		{Key: "category", Value: "mugs"},
		{Key: "price", Value: bson.D{{Key: "$gte", Value: 100.0}, {Key: "$lte", Value: 200.0}}},
		{Key: "brand", Value: bson.D{{Key: "$in", Value: bson.A{"acme", "globex"}}}},
		{Key: "_id", Value: bson.D{{Key: "$ne", Value: "x"}}},
	}
	assert.Equal(t, want, f.BSON())
}

func TestFilterBSON_MergesConditionsOnOneField(t *testing.T) {
	f := query.Filter{
		query.Equals{Field: "category", Value: "mugs"},
		query.NotEquals{Field: "category", Value: "cups"},
	}

	want := bson.D{
		{Key: "category", Value: bson.D{{Key: "$eq", Value: "mugs"}, {Key: "$ne", Value: "cups"}}},
	}
	assert.Equal(t, want, f.BSON())
}

func TestSortAndProjectionBSON(t *testing.T) {
	assert.Equal(t,
		bson.D{{Key: "price", Value: -1}, {Key: "title", Value: 1}},
		query.SortBSON([]query.SortField{{Field: "price", Desc: true}, {Field: "title"}}))

	assert.Equal(t, bson.D{{Key: "__v", Value: 0}}, query.DefaultProjection().BSON())
	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, query.Projection{Fields: []string{"title"}}.BSON())
}
