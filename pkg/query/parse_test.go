package query_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/errs"
	"github.com/shashiranjanraj/storefront/pkg/query"
)

var schema = query.Schema{
	"title":     query.String,
	"category":  query.String,
	"brand":     query.String,
	"price":     query.Number,
	"quantity":  query.Int,
	"tags":      query.String,
	"createdAt": query.Time,
	"_id":       query.ObjectID,
}

func mustValues(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestParse_Defaults(t *testing.T) {
	q, err := query.Parse(url.Values{}, schema, query.Options{})
	require.NoError(t, err)

	assert.Empty(t, q.Filter)
	assert.Equal(t, []query.SortField{{Field: "createdAt", Desc: true}}, q.Sort)
	assert.Equal(t, query.DefaultProjection(), q.Projection)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 0, q.Limit)
	assert.False(t, q.PageRequested)
	assert.Equal(t, int64(0), q.Skip())
}

func TestParse_ReservedKeysAreNotFilters(t *testing.T) {
	q, err := query.Parse(mustValues(t, "page=2&sort=price&limit=5&fields=title&brand=acme"), schema, query.Options{})
	require.NoError(t, err)

	require.Len(t, q.Filter, 1)
	assert.Equal(t, query.Equals{Field: "brand", Value: "acme"}, q.Filter[0])
}

func TestParse_ComparisonOperatorsMergeIntoRange(t *testing.T) {
	q, err := query.Parse(mustValues(t, "price[gte]=100&price[lt]=500"), schema, query.Options{})
	require.NoError(t, err)

	require.Len(t, q.Filter, 1)
	assert.Equal(t, query.Range{Field: "price", Gte: 100.0, Lt: 500.0}, q.Filter[0])
}

func TestParse_InAndNotEquals(t *testing.T) {
	q, err := query.Parse(mustValues(t, "brand[in]=acme,globex&category[ne]=toys&tags=a&tags=b"), schema, query.Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, query.Filter{
		query.In{Field: "brand", Values: []any{"acme", "globex"}},
		query.NotEquals{Field: "category", Value: "toys"},
		query.In{Field: "tags", Values: []any{"a", "b"}},
	}, q.Filter)
}

func TestParse_CoercesToSchemaKind(t *testing.T) {
	q, err := query.Parse(mustValues(t, "quantity[gt]=0"), schema, query.Options{})
	require.NoError(t, err)
	assert.Equal(t, query.Range{Field: "quantity", Gt: int64(0)}, q.Filter[0])

	_, err = query.Parse(mustValues(t, "price[gte]=cheap"), schema, query.Options{})
	assert.True(t, errs.Is(err, errs.KindValidation))

	_, err = query.Parse(mustValues(t, "_id=nope"), schema, query.Options{})
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestParse_RejectsUnknownFieldsAndOperators(t *testing.T) {
	for _, raw := range []string{"password=x", "price[regex]=1", "[gte]=1", "price[gte=1"} {
		_, err := query.Parse(mustValues(t, raw), schema, query.Options{})
		assert.True(t, errs.Is(err, errs.KindValidation), raw)
	}
}

func TestParse_SkipKeys(t *testing.T) {
	q, err := query.Parse(mustValues(t, "excludeId=abc&category=mugs"), schema, query.Options{Skip: []string{"excludeId"}})
	require.NoError(t, err)
	assert.Equal(t, query.Filter{query.Equals{Field: "category", Value: "mugs"}}, q.Filter)
}

func TestParse_Sort(t *testing.T) {
	q, err := query.Parse(mustValues(t, "sort=-price,title"), schema, query.Options{})
	require.NoError(t, err)
	assert.Equal(t, []query.SortField{{Field: "price", Desc: true}, {Field: "title"}}, q.Sort)

	_, err = query.Parse(mustValues(t, "sort=-secret"), schema, query.Options{})
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestParse_Projection(t *testing.T) {
	q, err := query.Parse(mustValues(t, "fields=title,price"), schema, query.Options{})
	require.NoError(t, err)
	assert.Equal(t, query.Projection{Fields: []string{"title", "price"}}, q.Projection)

	q, err = query.Parse(mustValues(t, "fields=-ratings"), schema, query.Options{})
	require.NoError(t, err)
	assert.Equal(t, query.Projection{Fields: []string{"ratings"}, Exclude: true}, q.Projection)

	_, err = query.Parse(mustValues(t, "fields=title,-ratings"), schema, query.Options{})
	assert.True(t, errs.Is(err, errs.KindValidation))
}

func TestParse_Pagination(t *testing.T) {
	q, err := query.Parse(mustValues(t, "page=3&limit=5"), schema, query.Options{})
	require.NoError(t, err)
	assert.True(t, q.PageRequested)
	assert.Equal(t, int64(10), q.Skip())

	q, err = query.Parse(url.Values{}, schema, query.Options{DefaultLimit: 10})
	require.NoError(t, err)
	assert.Equal(t, 10, q.Limit)

	for _, raw := range []string{"page=0", "page=-1", "limit=abc", "limit=0"} {
		_, err := query.Parse(mustValues(t, raw), schema, query.Options{})
		assert.True(t, errs.Is(err, errs.KindValidation), raw)
	}
}

func TestCheckPage(t *testing.T) {
	q := query.Query{Page: 3, Limit: 5, PageRequested: true}
	assert.NoError(t, q.CheckPage(11))

	err := q.CheckPage(10)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindNotFound))

	q.PageRequested = false
	assert.NoError(t, q.CheckPage(0))
}
