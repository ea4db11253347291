package testkit

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code with testify.
func AssertStatusCode(t *testing.T, s *Scenario, got int, body []byte) {
	t.Helper()
	assert.Equal(t, s.ExpectedCode, got,
		"[%s] HTTP status code mismatch\nbody: %s", s.Name, string(body))
}

// AssertJSONBody deep-compares actual response bytes against the expected
// file contents after normalising both through JSON unmarshal, so key
// order and whitespace never matter.
func AssertJSONBody(t *testing.T, s *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal any
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", s.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}

	if diffs := DiffJSON("", expVal, actVal); len(diffs) > 0 {
		t.Errorf("[%s] response body mismatch\n%s\nbody: %s", s.Name, strings.Join(diffs, "\n"), string(actual))
	}
}

// AssertFields checks the scenario's expect and absent paths.
func AssertFields(t *testing.T, s *Scenario, vars Vars, actual []byte) {
	t.Helper()
	if len(s.Expect) == 0 && len(s.Absent) == 0 {
		return
	}

	var doc any
	if !assert.NoError(t, json.Unmarshal(actual, &doc),
		"[%s] actual response is not valid JSON\nbody: %s", s.Name, string(actual)) {
		return
	}

	for path, want := range s.Expect {
		got, ok := Lookup(doc, path)
		if !assert.True(t, ok, "[%s] %s missing\nbody: %s", s.Name, path, string(actual)) {
			continue
		}
		if ws, isString := want.(string); isString {
			want = vars.Expand(ws)
		}
		assert.Equal(t, want, got, "[%s] %s mismatch", s.Name, path)
	}
	for _, path := range s.Absent {
		_, ok := Lookup(doc, path)
		assert.False(t, ok, "[%s] %s should be absent", s.Name, path)
	}
}

// Lookup walks a decoded JSON value along a dotted path. Numeric segments
// index arrays; the segment "#" yields the array length as a float64.
func Lookup(doc any, path string) (any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			if seg == "#" {
				cur = float64(len(v))
				continue
			}
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// DiffJSON returns human-readable differences between two decoded JSON
// values. Keys present only in actual are reported too.
func DiffJSON(path string, expected, actual any) []string {
	var diffs []string
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected object, got %T", keyPath(path), actual))
		}
		for k, ev := range exp {
			p := keyPath(path) + "." + k
			av, exists := act[k]
			if !exists {
				diffs = append(diffs, fmt.Sprintf("  %s: missing in actual", p))
				continue
			}
			diffs = append(diffs, DiffJSON(p, ev, av)...)
		}
		for k := range act {
			if _, exists := exp[k]; !exists {
				diffs = append(diffs, fmt.Sprintf("  %s.%s: unexpected in actual", keyPath(path), k))
			}
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return append(diffs, fmt.Sprintf("  %s: expected array, got %T", keyPath(path), actual))
		}
		if len(exp) != len(act) {
			diffs = append(diffs, fmt.Sprintf("  %s: array length expected=%d actual=%d", keyPath(path), len(exp), len(act)))
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			diffs = append(diffs, DiffJSON(fmt.Sprintf("%s[%d]", keyPath(path), i), exp[i], act[i])...)
		}
	default:
		if fmt.Sprintf("%v", expected) != fmt.Sprintf("%v", actual) {
			diffs = append(diffs, fmt.Sprintf("  %s:\n    - %v\n    + %v", keyPath(path), expected, actual))
		}
	}
	return diffs
}

func keyPath(path string) string {
	if path == "" {
		return "root"
	}
	return strings.TrimPrefix(path, ".")
}
