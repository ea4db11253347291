// Package query turns an HTTP query string into a typed, store-agnostic
// query: filter expressions, sort order, projection and pagination.
//
//	q, err := query.Parse(r.URL.Query(), models.ProductSchema, query.Options{})
//	// ?price[gte]=100&sort=-price&limit=5&page=2
//	// → Filter{Range{Field: "price", Gte: 100.0}}, Sort{-price}, skip 5, limit 5
//
// The same Query can be rendered as MongoDB BSON (bson.go) or evaluated
// against in-memory documents (match.go).
package query

import (
	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// Kind is the value type of a schema field; query-string values are coerced
// to it before they reach the store.
type Kind int

const (
	String Kind = iota
	Number
	Int
	Bool
	Time
	ObjectID
)

// Schema lists the fields that may be filtered or sorted on.
type Schema map[string]Kind

// Expr is one filter condition. The set of variants is closed.
type Expr interface {
	FieldName() string
	isExpr()
}

// Equals matches documents whose Field equals Value (for array fields: any
// element equals Value).
type Equals struct {
	Field string
	Value any
}

// NotEquals matches documents whose Field differs from Value.
type NotEquals struct {
	Field string
	Value any
}

// In matches documents whose Field equals one of Values.
type In struct {
	Field  string
	Values []any
}

// Range bounds Field. Nil bounds are open.
type Range struct {
	Field string
	Gte   any
	Gt    any
	Lte   any
	Lt    any
}

func (e Equals) FieldName() string    { return e.Field }
func (e NotEquals) FieldName() string { return e.Field }
func (e In) FieldName() string        { return e.Field }
func (e Range) FieldName() string     { return e.Field }

func (Equals) isExpr()    {}
func (NotEquals) isExpr() {}
func (In) isExpr()        {}
func (Range) isExpr()     {}

// Filter is a conjunction of expressions.
type Filter []Expr

// And returns a new Filter with exprs appended.
func (f Filter) And(exprs ...Expr) Filter {
	out := make(Filter, 0, len(f)+len(exprs))
	out = append(out, f...)
	return append(out, exprs...)
}

// SortField orders by Field, descending when Desc is set.
type SortField struct {
	Field string
	Desc  bool
}

// Projection selects returned fields. With Exclude set, Fields are removed
// instead of kept.
type Projection struct {
	Fields  []string
	Exclude bool
}

// VersionField is the internal document version, hidden by default.
const VersionField = "__v"

// DefaultProjection hides only the version field.
func DefaultProjection() Projection {
	return Projection{Fields: []string{VersionField}, Exclude: true}
}

// DefaultSort is newest first.
func DefaultSort() []SortField {
	return []SortField{{Field: "createdAt", Desc: true}}
}

// Query is the parsed form of a list request.
type Query struct {
	Filter     Filter
	Sort       []SortField
	Projection Projection
	Page       int
	Limit      int
	// PageRequested records that the caller asked for an explicit page, which
	// turns an out-of-range skip into an error.
	PageRequested bool
}

// Skip is the number of matching documents before the requested page.
func (q Query) Skip() int64 {
	if q.Limit <= 0 || q.Page <= 1 {
		return 0
	}
	return int64(q.Page-1) * int64(q.Limit)
}

// CheckPage fails with a not-found error when an explicitly requested page
// starts at or after the last matching document.
func (q Query) CheckPage(total int64) error {
	if !q.PageRequested {
		return nil
	}
	if q.Skip() >= total {
		return errs.NotFound("This page does not exist")
	}
	return nil
}
