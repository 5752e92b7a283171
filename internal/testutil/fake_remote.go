// Package testutil provides fake remote collaborators for tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// FakeResponse forces a status and raw body for one id.
type FakeResponse struct {
	Status int
	Body   string
}

// FakeService is an httptest-backed stand-in for the student directory or
// the course catalog. Keys are the path below the prefix, e.g. "S1" or "row/3".
type FakeService struct {
	server *httptest.Server
	prefix string

	mu          sync.Mutex
	records     map[string]interface{}
	responses   map[string]FakeResponse
	requests    map[string]int
	total       int
	lastHeaders http.Header
	delay       time.Duration
}

// NewFakeService starts a fake serving GET {prefix}/{key}.
func NewFakeService(prefix string) *FakeService {
	f := &FakeService{
		prefix:    strings.TrimRight(prefix, "/"),
		records:   make(map[string]interface{}),
		responses: make(map[string]FakeResponse),
		requests:  make(map[string]int),
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *FakeService) serve(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, f.prefix), "/")

	f.mu.Lock()
	f.requests[key]++
	f.total++
	f.lastHeaders = r.Header.Clone()
	rec, hasRec := f.records[key]
	forced, hasForced := f.responses[key]
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	switch {
	case hasForced:
		w.WriteHeader(forced.Status)
		_, _ = w.Write([]byte(forced.Body))
	case hasRec:
		_ = json.NewEncoder(w).Encode(rec)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found: ` + key + `"}`))
	}
}

// URL returns the base URL including the prefix.
func (f *FakeService) URL() string {
	return f.server.URL + f.prefix
}

// Close shuts the server down.
func (f *FakeService) Close() {
	f.server.Close()
}

// SetRecord serves rec as JSON for key.
func (f *FakeService) SetRecord(key string, rec interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[key] = rec
}

// SetResponse forces status and body for key.
func (f *FakeService) SetResponse(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = FakeResponse{Status: status, Body: body}
}

// SetDelay delays every response.
func (f *FakeService) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Requests returns how many times key was requested.
func (f *FakeService) Requests(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

// TotalRequests returns the number of requests served.
func (f *FakeService) TotalRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// LastHeader returns a header from the most recent request.
func (f *FakeService) LastHeader(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lastHeaders == nil {
		return ""
	}
	return f.lastHeaders.Get(name)
}
