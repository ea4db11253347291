package payment

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Line is one purchased product carried in intent metadata.
type Line struct {
	ProductID string
	Quantity  int
}

const (
	linesKey = "items"
	// Provider metadata values are capped at 500 characters.
	maxMetaValue = 500
	maxLineKeys  = 40
)

// EncodeLines packs lines into metadata as "id:qty" pairs, spilling over
// into items_1, items_2… when one value would grow past the provider limit.
func EncodeLines(lines []Line) (map[string]string, error) {
	out := map[string]string{}
	if len(lines) == 0 {
		return out, nil
	}

	var chunks []string
	var cur strings.Builder
	for _, l := range lines {
		if l.ProductID == "" || strings.ContainsAny(l.ProductID, ":,") || l.Quantity < 1 {
			return nil, fmt.Errorf("payment: invalid line %q x %d", l.ProductID, l.Quantity)
		}
		pair := l.ProductID + ":" + strconv.Itoa(l.Quantity)
		if cur.Len() > 0 && cur.Len()+1+len(pair) > maxMetaValue {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(',')
		}
		cur.WriteString(pair)
	}
	chunks = append(chunks, cur.String())

	if len(chunks) > maxLineKeys {
		return nil, errors.New("payment: too many items for one payment")
	}
	for i, c := range chunks {
		out[lineKey(i)] = c
	}
	return out, nil
}

// DecodeLines reverses EncodeLines. Metadata without items yields no lines.
func DecodeLines(meta map[string]string) ([]Line, error) {
	var keys []int
	for k := range meta {
		if k == linesKey {
			keys = append(keys, 0)
			continue
		}
		if n, ok := strings.CutPrefix(k, linesKey+"_"); ok {
			i, err := strconv.Atoi(n)
			if err != nil || i < 1 {
				continue
			}
			keys = append(keys, i)
		}
	}
	sort.Ints(keys)

	var out []Line
	for _, i := range keys {
		for _, pair := range strings.Split(meta[lineKey(i)], ",") {
			if pair == "" {
				continue
			}
			id, qty, ok := strings.Cut(pair, ":")
			n, err := strconv.Atoi(qty)
			if !ok || id == "" || err != nil || n < 1 {
				return nil, fmt.Errorf("payment: malformed item %q", pair)
			}
			out = append(out, Line{ProductID: id, Quantity: n})
		}
	}
	return out, nil
}

func lineKey(i int) string {
	if i == 0 {
		return linesKey
	}
	return linesKey + "_" + strconv.Itoa(i)
}
