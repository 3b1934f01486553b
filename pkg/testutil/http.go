// Package testutil provides helpers shared by handler, client and store tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewJSONRequest creates an HTTP request with a JSON-encoded body.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DoRequest executes a request against a handler and returns the recorder.
func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the recorder body into T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var result T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result), "failed to unmarshal response: %s", rr.Body.String())
	return &result
}

// AssertStatusAndError asserts the status code and the "error" field of the envelope.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus int, expectedCode string) {
	t.Helper()
	assert.Equal(t, expectedStatus, rr.Code, "unexpected status code: %s", rr.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "failed to unmarshal error response")
	assert.Equal(t, expectedCode, body["error"], "unexpected error code")
}

// BackendCall is one request observed by a FakeBackend.
type BackendCall struct {
	Path string
	Body map[string]any
}

// FakeBackend is an httptest server that records calls per path and answers
// with canned status/body pairs. Handlers registered with Handle win over the
// canned responses.
type FakeBackend struct {
	*httptest.Server
	calls     chan BackendCall
	mu        sync.Mutex
	responses map[string]cannedResponse
	handlers  map[string]http.HandlerFunc
}

type cannedResponse struct {
	status int
	body   any
}

// NewFakeBackend starts a backend and registers its shutdown with t.Cleanup.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()
	fb := &FakeBackend{
		calls:     make(chan BackendCall, 64),
		responses: make(map[string]cannedResponse),
		handlers:  make(map[string]http.HandlerFunc),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.Close)
	return fb
}

// Respond sets the canned answer for path. Call before starting the flow under test.
func (fb *FakeBackend) Respond(path string, status int, body any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.responses[path] = cannedResponse{status: status, body: body}
}

// Handle installs a custom handler for path.
func (fb *FakeBackend) Handle(path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.handlers[path] = h
}

// Calls drains and returns the calls recorded so far.
func (fb *FakeBackend) Calls() []BackendCall {
	var out []BackendCall
	for {
		select {
		case c := <-fb.calls:
			out = append(out, c)
		default:
			return out
		}
	}
}

// CallsTo drains recorded calls and keeps those made to path.
func (fb *FakeBackend) CallsTo(path string) []BackendCall {
	var out []BackendCall
	for _, c := range fb.Calls() {
		if c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

func (fb *FakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	fb.calls <- BackendCall{Path: r.URL.Path, Body: body}

	fb.mu.Lock()
	h, hasHandler := fb.handlers[r.URL.Path]
	resp, ok := fb.responses[r.URL.Path]
	fb.mu.Unlock()

	if hasHandler {
		h(w, r)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	if resp.body != nil {
		_ = json.NewEncoder(w).Encode(resp.body)
	}
}
