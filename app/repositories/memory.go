package repositories

import (
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/storefront/pkg/query"
)

// memCollection keeps BSON documents in insertion order. Documents go
// through a BSON round trip on the way in and out, so callers see the same
// value types MongoDB would return and never share maps with the store.
// The mutex makes every single-document change atomic.
type memCollection struct {
	mu     sync.Mutex
	docs   map[primitive.ObjectID]bson.M
	order  []primitive.ObjectID
	unique []string
}

func newMemCollection(unique ...string) *memCollection {
	return &memCollection{docs: map[primitive.ObjectID]bson.M{}, unique: unique}
}

func toDoc(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("repositories: encode: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("repositories: decode: %w", err)
	}
	return doc, nil
}

func fromDoc(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repositories: encode: %w", err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("repositories: decode: %w", err)
	}
	return nil
}

func (c *memCollection) insert(id primitive.ObjectID, v any) error {
	doc, err := toDoc(v)
	if err != nil {
		return err
	}
	doc["_id"] = id

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.docs[id]; exists {
		return ErrDuplicate
	}
	if err := c.checkUnique(id, doc); err != nil {
		return err
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return nil
}

func (c *memCollection) get(id primitive.ObjectID) (bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return toDoc(doc)
}

// modify runs fn on a copy of the document and stores the result when fn
// succeeds. It returns a copy of the stored document.
func (c *memCollection) modify(id primitive.ObjectID, fn func(doc bson.M) error) (bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	doc, err := toDoc(current)
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	// Normalise values set by fn to their stored BSON types.
	if doc, err = toDoc(doc); err != nil {
		return nil, err
	}
	if err := c.checkUnique(id, doc); err != nil {
		return nil, err
	}
	c.docs[id] = doc
	return toDoc(doc)
}

func (c *memCollection) remove(id primitive.ObjectID) (bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, ok := c.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(c.docs, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return doc, nil
}

// find returns copies of the documents matching filter in insertion order.
func (c *memCollection) find(filter query.Filter) ([]bson.M, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []bson.M
	for _, id := range c.order {
		doc := c.docs[id]
		if !filter.Match(doc) {
			continue
		}
		cp, err := toDoc(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}

func (c *memCollection) checkUnique(id primitive.ObjectID, doc bson.M) error {
	for _, field := range c.unique {
		v, ok := doc[field]
		if !ok {
			continue
		}
		same := query.Filter{query.Equals{Field: field, Value: v}}
		for oid, other := range c.docs {
			if oid != id && same.Match(other) {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return nil
}

func intValue(v any) int64 {
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func bumpVersion(doc bson.M) {
	doc["__v"] = intValue(doc["__v"]) + 1
}

func asArray(v any) primitive.A {
	if a, ok := v.(primitive.A); ok {
		return a
	}
	return primitive.A{}
}

func asSubdoc(v any) (bson.M, bool) {
	switch d := v.(type) {
	case bson.M:
		return d, true
	case bson.D:
		return d.Map(), true
	}
	return nil, false
}
