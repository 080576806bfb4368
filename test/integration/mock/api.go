//go:build integration

package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Request is one call received by ApiMock.
type Request struct {
	Headers map[string]string
	Body    map[string]any
}

type stubbedResponse struct {
	status int
	body   any
}

// ApiMock is a stand-in for an outbound HTTP provider. It records every
// request and answers with the response stubbed for its method and path.
type ApiMock struct {
	mu        sync.Mutex
	server    *httptest.Server
	received  map[string][]Request
	responses map[string]stubbedResponse
}

// NewApiServer creates an ApiMock that is not yet listening.
func NewApiServer() *ApiMock {
	return &ApiMock{
		received:  map[string][]Request{},
		responses: map[string]stubbedResponse{},
	}
}

// Start begins listening on a random local port.
func (a *ApiMock) Start() {
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
}

// Close stops the server.
func (a *ApiMock) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

// GetUrl returns the server's base URL with a trailing slash.
func (a *ApiMock) GetUrl() string {
	return a.server.URL + "/"
}

func (a *ApiMock) handle(w http.ResponseWriter, r *http.Request) {
	key := r.Method + r.URL.Path

	raw, _ := io.ReadAll(r.Body)
	body := map[string]any{}
	_ = json.Unmarshal(raw, &body)

	headers := map[string]string{}
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	a.mu.Lock()
	a.received[key] = append(a.received[key], Request{Headers: headers, Body: body})
	stub, ok := a.responses[key]
	a.mu.Unlock()

	if !ok {
		stub = stubbedResponse{status: http.StatusOK, body: map[string]any{}}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(stub.status)
	_ = json.NewEncoder(w).Encode(stub.body)
}

// SetResponse stubs the reply for method and path.
func (a *ApiMock) SetResponse(method, path string, status int, response any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses[method+path] = stubbedResponse{status: status, body: response}
}

// Requests returns the calls received for method and path.
func (a *ApiMock) Requests(method, path string) []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.received[method+path]...)
}

// Reset forgets recorded calls and stubs.
func (a *ApiMock) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.received = map[string][]Request{}
	a.responses = map[string]stubbedResponse{}
}
