// Package testkit runs REST API tests described by JSON scenario files.
//
// Each scenario names the request to fire and what must come back:
//
//	{
//	  "name": "update needs admin",
//	  "requestMethod": "PUT",
//	  "requestUrl": "/api/products/{{productId}}",
//	  "headers": {"Authorization": "Bearer {{shopperToken}}"},
//	  "requestBody": {"price": 10},
//	  "expectedCode": 403,
//	  "expect": {"message": "Admin access required"}
//	}
//
// {{name}} placeholders in the URL, headers, bodies and expectations are
// replaced from the Vars passed to Run, so scenarios can refer to ids and
// tokens created by the test. Scenario files live next to the _test.go
// files that run them:
//
//	testdata/
//	  products_update_forbidden.json   ← scenario
//	  products_create_req.json         ← request body (requestFileName)
//	  products_create_res.json         ← expected body (responseFileName)
package testkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Vars are substituted for {{name}} placeholders.
type Vars map[string]string

// Scenario describes a single REST API test case loaded from a JSON file.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	RequestMethod   string            `json:"requestMethod"`
	RequestURL      string            `json:"requestUrl"`
	RequestFileName string            `json:"requestFileName"`
	RequestBody     json.RawMessage   `json:"requestBody"`
	Headers         map[string]string `json:"headers"`

	ResponseFileName   string `json:"responseFileName"`
	ExpectedCode       int    `json:"expectedCode"`
	ExpectedStatusCode int    `json:"expectedStatusCode"` // alias for expectedCode

	// Expect maps dotted paths into the response body ("data.0.title") to
	// the value found there.
	Expect map[string]any `json:"expect"`
	// Absent lists dotted paths that must not exist in the response body.
	Absent []string `json:"absent"`

	dir string
}

// LoadScenario reads and validates a scenario from a JSON file.
func LoadScenario(path string) (*Scenario, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("testkit: resolve path %q: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("testkit: read %q: %w", abs, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("testkit: parse %q: %w", abs, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("testkit: invalid scenario %q: %w", abs, err)
	}

	s.dir = filepath.Dir(abs)
	return &s, nil
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.RequestURL == "" {
		return fmt.Errorf("requestUrl is required")
	}
	if s.ExpectedCode == 0 {
		s.ExpectedCode = s.ExpectedStatusCode
	}
	if s.ExpectedCode == 0 {
		return fmt.Errorf("expectedCode is required")
	}
	if s.RequestMethod == "" {
		s.RequestMethod = "GET"
	}
	if s.RequestFileName != "" && len(s.RequestBody) > 0 {
		return fmt.Errorf("requestFileName and requestBody are mutually exclusive")
	}
	return nil
}

// body returns the request body with placeholders replaced, or nil.
func (s *Scenario) body(vars Vars) ([]byte, error) {
	if s.RequestFileName != "" {
		data, err := os.ReadFile(s.resolve(s.RequestFileName))
		if err != nil {
			return nil, err
		}
		return []byte(vars.Expand(string(data))), nil
	}
	if len(s.RequestBody) > 0 {
		return []byte(vars.Expand(string(s.RequestBody))), nil
	}
	return nil, nil
}

// expectedBody returns the responseFileName contents, or nil.
func (s *Scenario) expectedBody(vars Vars) ([]byte, error) {
	if s.ResponseFileName == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.resolve(s.ResponseFileName))
	if err != nil {
		return nil, err
	}
	return []byte(vars.Expand(string(data))), nil
}

func (s *Scenario) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.dir, name)
}

// LoadAllFromDir loads every *.json file in dir as a Scenario, skipping
// request and response bodies (*_req.json, *_res.json). Files that fail to
// parse are collected as errors.
func LoadAllFromDir(dir string) ([]*Scenario, []error) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, []error{fmt.Errorf("testkit: glob %q: %w", dir, err)}
	}
	sort.Strings(entries)

	var (
		scenarios []*Scenario
		errs      []error
	)
	for _, path := range entries {
		if isBodyFile(path) {
			continue
		}
		s, err := LoadScenario(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scenarios = append(scenarios, s)
	}
	if len(scenarios) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("testkit: no scenario files found in %q", dir))
	}
	return scenarios, errs
}

func isBodyFile(path string) bool {
	base := strings.TrimSuffix(filepath.Base(path), ".json")
	return strings.HasSuffix(base, "_req") || strings.HasSuffix(base, "_res")
}

// Expand replaces every {{name}} in s. Unknown names are left as they are.
func (v Vars) Expand(s string) string {
	if len(v) == 0 || !strings.Contains(s, "{{") {
		return s
	}
	pairs := make([]string, 0, len(v)*2)
	for k, val := range v {
		pairs = append(pairs, "{{"+k+"}}", val)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}
