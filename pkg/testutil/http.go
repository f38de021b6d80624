// Package testutil holds assertions shared by handler and integration tests.
package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeBody reads the JSON object in a recorded response without draining
// it, so several assertions can inspect the same response.
func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "response is not a JSON object: %s", rr.Body.String())
	return body
}

// AssertStatusAndError checks the status and the machine-readable error code
// written by httputil.WriteError.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, "unexpected status code")
	assert.Equal(t, code, decodeBody(t, rr)["error"], "unexpected error code")
}

// AssertJSONContains checks a single top-level field of the response.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, want any) {
	t.Helper()
	assert.Equal(t, want, decodeBody(t, rr)[key], "unexpected value for key %q", key)
}

// AssertJSONHasKey checks that a top-level field is present.
func AssertJSONHasKey(t *testing.T, rr *httptest.ResponseRecorder, key string) {
	t.Helper()
	assert.Contains(t, decodeBody(t, rr), key)
}
