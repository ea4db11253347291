package query

import (
	"go.mongodb.org/mongo-driver/bson"
)

// sigil prefixes every MongoDB query operator.
const sigil = "$"

// BSON renders the filter as a MongoDB query document. Conditions on the same
// field are merged into one operator document.
func (f Filter) BSON() bson.D {
	var (
		order []string
		ops   = map[string]bson.D{}
		plain = map[string]any{}
	)

	for _, expr := range f {
		field := expr.FieldName()
		if _, seen := ops[field]; !seen {
			order = append(order, field)
			ops[field] = bson.D{}
		}

		switch e := expr.(type) {
		case Equals:
			plain[field] = e.Value
			ops[field] = append(ops[field], bson.E{Key: sigil + "eq", Value: e.Value})
		case NotEquals:
			ops[field] = append(ops[field], bson.E{Key: sigil + "ne", Value: e.Value})
		case In:
			ops[field] = append(ops[field], bson.E{Key: sigil + "in", Value: bson.A(e.Values)})
		case Range:
			ops[field] = append(ops[field], rangeOps(e)...)
		}
	}

	out := make(bson.D, 0, len(order))
	for _, field := range order {
		d := ops[field]
		// A lone equality is written as {field: value}.
		if v, ok := plain[field]; ok && len(d) == 1 {
			out = append(out, bson.E{Key: field, Value: v})
			continue
		}
		out = append(out, bson.E{Key: field, Value: d})
	}
	return out
}

func rangeOps(r Range) bson.D {
	var d bson.D
	if r.Gte != nil {
		d = append(d, bson.E{Key: sigil + "gte", Value: r.Gte})
	}
	if r.Gt != nil {
		d = append(d, bson.E{Key: sigil + "gt", Value: r.Gt})
	}
	if r.Lte != nil {
		d = append(d, bson.E{Key: sigil + "lte", Value: r.Lte})
	}
	if r.Lt != nil {
		d = append(d, bson.E{Key: sigil + "lt", Value: r.Lt})
	}
	return d
}

// SortBSON renders sort fields as {field: 1|-1}.
func SortBSON(fields []SortField) bson.D {
	d := make(bson.D, 0, len(fields))
	for _, f := range fields {
		dir := 1
		if f.Desc {
			dir = -1
		}
		d = append(d, bson.E{Key: f.Field, Value: dir})
	}
	return d
}

// BSON renders the projection as {field: 1} or {field: 0}.
func (p Projection) BSON() bson.D {
	val := 1
	if p.Exclude {
		val = 0
	}
	d := make(bson.D, 0, len(p.Fields))
	for _, f := range p.Fields {
		d = append(d, bson.E{Key: f, Value: val})
	}
	return d
}
