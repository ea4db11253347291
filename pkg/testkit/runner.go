package testkit

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Run executes the scenario in the JSON file at path against handler as a
// subtest named after the scenario.
func Run(t *testing.T, handler http.Handler, path string, vars Vars) {
	t.Helper()

	s, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("testkit: load scenario %q: %v", path, err)
	}
	t.Run(s.Name, func(t *testing.T) {
		runScenario(t, handler, s, vars)
	})
}

// RunDir runs every scenario in dir as a subtest, in file-name order.
// Scenario files that fail to parse are reported as test failures.
func RunDir(t *testing.T, handler http.Handler, dir string, vars Vars) {
	t.Helper()

	scenarios, errs := LoadAllFromDir(dir)
	for _, err := range errs {
		t.Error(err)
	}
	for _, s := range scenarios {
		s := s
		t.Run(s.Name, func(t *testing.T) {
			runScenario(t, handler, s, vars)
		})
	}
}

// Do fires one JSON request at handler and returns the recorder.
func Do(handler http.Handler, method, url string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req := httptest.NewRequest(method, url, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func runScenario(t *testing.T, handler http.Handler, s *Scenario, vars Vars) {
	t.Helper()

	body, err := s.body(vars)
	if err != nil {
		t.Fatalf("[%s] read request body: %v", s.Name, err)
	}

	headers := make(map[string]string, len(s.Headers))
	for k, v := range s.Headers {
		headers[k] = vars.Expand(v)
	}

	rec := Do(handler, strings.ToUpper(s.RequestMethod), vars.Expand(s.RequestURL), body, headers)

	AssertStatusCode(t, s, rec.Code, rec.Body.Bytes())

	expected, err := s.expectedBody(vars)
	if err != nil {
		t.Errorf("[%s] read response file: %v", s.Name, err)
	} else {
		AssertJSONBody(t, s, expected, rec.Body.Bytes())
	}

	AssertFields(t, s, vars, rec.Body.Bytes())
}
