package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/errs"
)

// Reserved query keys are control parameters, never filters.
var Reserved = []string{"page", "sort", "limit", "fields"}

// Options tune Parse for one endpoint.
type Options struct {
	// Skip lists extra keys that are neither reserved nor filters
	// (e.g. "excludeId" on the recommendation endpoint).
	Skip []string
	// DefaultLimit applies when no limit is given. Zero means unlimited.
	DefaultLimit int
}

// Parse builds a Query from raw query-string values.
func Parse(values url.Values, schema Schema, opts Options) (Query, error) {
	q := Query{
		Sort:       DefaultSort(),
		Projection: DefaultProjection(),
		Page:       1,
		Limit:      opts.DefaultLimit,
	}

	filter, err := parseFilter(values, schema, opts.Skip)
	if err != nil {
		return Query{}, err
	}
	q.Filter = filter

	if raw := strings.TrimSpace(values.Get("sort")); raw != "" {
		if q.Sort, err = ParseSort(raw, schema); err != nil {
			return Query{}, err
		}
	}

	if raw := strings.TrimSpace(values.Get("fields")); raw != "" {
		if q.Projection, err = ParseProjection(raw); err != nil {
			return Query{}, err
		}
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		if q.Page, err = positiveInt("page", raw); err != nil {
			return Query{}, err
		}
		q.PageRequested = true
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		if q.Limit, err = positiveInt("limit", raw); err != nil {
			return Query{}, err
		}
	}

	return q, nil
}

// ParseSort reads "field,-other" into sort fields.
func ParseSort(raw string, schema Schema) ([]SortField, error) {
	var out []SortField
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sf := SortField{Field: part}
		if strings.HasPrefix(part, "-") {
			sf = SortField{Field: part[1:], Desc: true}
		}
		if _, ok := schema[sf.Field]; !ok {
			return nil, errs.Validation("cannot sort by unknown field %q", sf.Field)
		}
		out = append(out, sf)
	}
	if len(out) == 0 {
		return DefaultSort(), nil
	}
	return out, nil
}

// ParseProjection reads "title,price" (include) or "-ratings,-tags" (exclude).
func ParseProjection(raw string) (Projection, error) {
	var p Projection
	seenInclude, seenExclude := false, false

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			seenExclude = true
			p.Fields = append(p.Fields, part[1:])
		} else {
			seenInclude = true
			p.Fields = append(p.Fields, part)
		}
	}

	if seenInclude && seenExclude {
		return Projection{}, errs.Validation("fields cannot mix included and excluded names")
	}
	if len(p.Fields) == 0 {
		return DefaultProjection(), nil
	}
	p.Exclude = seenExclude
	return p, nil
}

func parseFilter(values url.Values, schema Schema, skip []string) (Filter, error) {
	ignored := make(map[string]bool, len(Reserved)+len(skip))
	for _, k := range Reserved {
		ignored[k] = true
	}
	for _, k := range skip {
		ignored[k] = true
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var (
		filter Filter
		ranges = map[string]int{} // field → index of its Range in filter
	)

	for _, key := range keys {
		if ignored[key] {
			continue
		}

		field, op, err := splitKey(key)
		if err != nil {
			return nil, err
		}
		kind, ok := schema[field]
		if !ok {
			return nil, errs.Validation("cannot filter by unknown field %q", field)
		}

		raws := values[key]
		switch op {
		case "":
			vals, err := coerceAll(field, kind, raws)
			if err != nil {
				return nil, err
			}
			if len(vals) == 1 {
				filter = append(filter, Equals{Field: field, Value: vals[0]})
			} else {
				filter = append(filter, In{Field: field, Values: vals})
			}

		case "in":
			vals, err := coerceAll(field, kind, splitList(raws))
			if err != nil {
				return nil, err
			}
			filter = append(filter, In{Field: field, Values: vals})

		case "ne":
			v, err := coerce(field, kind, last(raws))
			if err != nil {
				return nil, err
			}
			filter = append(filter, NotEquals{Field: field, Value: v})

		case "gte", "gt", "lte", "lt":
			if kind == Bool {
				return nil, errs.Validation("field %q does not support %s", field, op)
			}
			v, err := coerce(field, kind, last(raws))
			if err != nil {
				return nil, err
			}
			idx, ok := ranges[field]
			if !ok {
				idx = len(filter)
				ranges[field] = idx
				filter = append(filter, Range{Field: field})
			}
			r := filter[idx].(Range)
			switch op {
			case "gte":
				r.Gte = v
			case "gt":
				r.Gt = v
			case "lte":
				r.Lte = v
			case "lt":
				r.Lt = v
			}
			filter[idx] = r

		default:
			return nil, errs.Validation("unsupported operator %q on field %q", op, field)
		}
	}

	return filter, nil
}

// splitKey splits "price[gte]" into ("price", "gte").
func splitKey(key string) (field, op string, err error) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, "", nil
	}
	if !strings.HasSuffix(key, "]") || open == 0 {
		return "", "", errs.Validation("malformed filter key %q", key)
	}
	return key[:open], key[open+1 : len(key)-1], nil
}

func coerceAll(field string, kind Kind, raws []string) ([]any, error) {
	out := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := coerce(field, kind, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func coerce(field string, kind Kind, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case Number:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errs.Validation("%s must be a number", field)
		}
		return f, nil
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errs.Validation("%s must be an integer", field)
		}
		return n, nil
	case Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errs.Validation("%s must be true or false", field)
		}
		return b, nil
	case Time:
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if t, err = time.Parse("2006-01-02", raw); err != nil {
				return nil, errs.Validation("%s must be an RFC 3339 timestamp or a date", field)
			}
		}
		return t.UTC(), nil
	case ObjectID:
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, errs.Validation("%s must be a valid id", field)
		}
		return id, nil
	default:
		return raw, nil
	}
}

func positiveInt(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errs.Validation("%s must be a positive integer", name)
	}
	return n, nil
}

func splitList(raws []string) []string {
	var out []string
	for _, raw := range raws {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func last(raws []string) string {
	if len(raws) == 0 {
		return ""
	}
	return raws[len(raws)-1]
}
