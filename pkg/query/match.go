package query

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Match reports whether doc satisfies every expression of the filter, using
// MongoDB comparison semantics: numbers compare across int/float types and a
// condition on an array field holds when any element satisfies it.
func (f Filter) Match(doc bson.M) bool {
	for _, expr := range f {
		val, present := lookup(doc, expr.FieldName())
		if !matchExpr(expr, val, present) {
			return false
		}
	}
	return true
}

func matchExpr(expr Expr, val any, present bool) bool {
	switch e := expr.(type) {
	case Equals:
		return present && anyElem(val, func(v any) bool { return equal(v, e.Value) })
	case NotEquals:
		return !present || !anyElem(val, func(v any) bool { return equal(v, e.Value) })
	case In:
		return present && anyElem(val, func(v any) bool {
			for _, want := range e.Values {
				if equal(v, want) {
					return true
				}
			}
			return false
		})
	case Range:
		return present && anyElem(val, func(v any) bool { return inRange(v, e) })
	}
	return false
}

func inRange(v any, r Range) bool {
	check := func(bound any, ok func(int) bool) bool {
		if bound == nil {
			return true
		}
		c, comparable := compare(v, bound)
		return comparable && ok(c)
	}
	return check(r.Gte, func(c int) bool { return c >= 0 }) &&
		check(r.Gt, func(c int) bool { return c > 0 }) &&
		check(r.Lte, func(c int) bool { return c <= 0 }) &&
		check(r.Lt, func(c int) bool { return c < 0 })
}

func anyElem(val any, pred func(any) bool) bool {
	if arr, ok := val.(primitive.A); ok {
		for _, el := range arr {
			if pred(el) {
				return true
			}
		}
		return false
	}
	return pred(val)
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

// compare orders two scalar values of the same BSON type class.
func compare(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case primitive.ObjectID:
		y, ok := b.(primitive.ObjectID)
		if !ok {
			return 0, false
		}
		return bytes.Compare(x[:], y[:]), true
	case nil:
		if b == nil {
			return 0, true
		}
		return 0, false
	}
	return 0, false
}

// normalize folds numeric and time types into float64 / int64-ms forms.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return float64(x.UnixMilli())
	case primitive.DateTime:
		return float64(int64(x))
	}
	return v
}

func lookup(doc bson.M, path string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func asMap(v any) (bson.M, bool) {
	switch m := v.(type) {
	case bson.M:
		return m, true
	case map[string]any:
		return bson.M(m), true
	case bson.D:
		return m.Map(), true
	}
	return nil, false
}

// SortDocs orders docs in place by fields. The sort is stable so documents
// with equal keys keep their incoming order.
func SortDocs(docs []bson.M, fields []SortField) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			a, _ := lookup(docs[i], f.Field)
			b, _ := lookup(docs[j], f.Field)
			c := order(a, b)
			if c == 0 {
				continue
			}
			if f.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// order is a total order across types: missing < numbers < strings < other.
func order(a, b any) int {
	if c, ok := compare(a, b); ok {
		return c
	}
	ra, rb := typeRank(normalize(a)), typeRank(normalize(b))
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	}
	return 0
}

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case float64:
		return 1
	case string:
		return 2
	case bson.M, map[string]any:
		return 3
	case primitive.A:
		return 4
	case primitive.ObjectID:
		return 7
	case bool:
		return 8
	}
	return 9
}

// Apply returns a copy of doc restricted by the projection. _id is always
// kept in include mode.
func (p Projection) Apply(doc bson.M) bson.M {
	out := bson.M{}
	if p.Exclude {
		drop := make(map[string]bool, len(p.Fields))
		for _, f := range p.Fields {
			drop[f] = true
		}
		for k, v := range doc {
			if !drop[k] {
				out[k] = v
			}
		}
		return out
	}

	if id, ok := doc["_id"]; ok {
		out["_id"] = id
	}
	for _, f := range p.Fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
