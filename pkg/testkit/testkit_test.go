package testkit_test

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storefront/pkg/testkit"
)

// echo answers POST /items/{id} with the id, the X-Token header and the
// posted tags.
var echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, "/items/") {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`)) //nolint:errcheck
		return
	}
	var in struct {
		Tags []string `json:"tags"`
	}
	json.NewDecoder(r.Body).Decode(&in) //nolint:errcheck
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"id":    strings.TrimPrefix(r.URL.Path, "/items/"),
		"token": r.Header.Get("X-Token"),
		"tags":  in.Tags,
	})
})

func TestRunDir(t *testing.T) {
	testkit.RunDir(t, echo, "testdata", testkit.Vars{"id": "42", "token": "secret"})
}

func TestLoadAllFromDirSkipsBodies(t *testing.T) {
	scenarios, errs := testkit.LoadAllFromDir("testdata")
	require.Empty(t, errs)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "echo item", scenarios[0].Name)
	assert.Equal(t, 404, scenarios[1].ExpectedCode)
	assert.Equal(t, "GET", scenarios[1].RequestMethod)
}

func TestLoadScenarioRejectsIncomplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x","requestUrl":"/"}`), 0o600))

	_, err := testkit.LoadScenario(path)
	assert.ErrorContains(t, err, "expectedCode is required")
}

func TestVarsExpand(t *testing.T) {
	v := testkit.Vars{"a": "1"}
	assert.Equal(t, "/p/1/{{b}}", v.Expand("/p/{{a}}/{{b}}"))
	assert.Equal(t, "plain", testkit.Vars(nil).Expand("plain"))
}

func TestLookupAndDiff(t *testing.T) {
	var doc any
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"title":"Mug"}],"n":1}`), &doc))

	got, ok := testkit.Lookup(doc, "data.0.title")
	assert.True(t, ok)
	assert.Equal(t, "Mug", got)

	_, ok = testkit.Lookup(doc, "data.3")
	assert.False(t, ok)

	var other any
	require.NoError(t, json.Unmarshal([]byte(`{"data":[{"title":"Cup"}]}`), &other))
	diffs := testkit.DiffJSON("", doc, other)
	assert.Len(t, diffs, 2)
}
