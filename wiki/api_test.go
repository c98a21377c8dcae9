package wiki

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// recordedRequest is what the mock server saw for one call
type recordedRequest struct {
	Method string
	Query  map[string]string
	Form   map[string]string
}

// mockWiki is an httptest server that records every request it gets
type mockWiki struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

// calls returns the recorded requests for an action
func (m *mockWiki) calls(action string) []recordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []recordedRequest
	for _, r := range m.requests {
		if r.Query["action"] == action {
			out = append(out, r)
		}
	}
	return out
}

func flatten(v map[string][]string) map[string]string {
	out := make(map[string]string, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}

// mockMediaWikiServer creates a test server that records each request and then
// delegates to handler
func mockMediaWikiServer(t *testing.T, handler http.HandlerFunc) *mockWiki {
	t.Helper()
	m := &mockWiki{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Query: flatten(r.URL.Query())}
		if r.Method == http.MethodPost {
			if r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
				_ = r.ParseForm()
				rec.Form = flatten(r.PostForm)
			} else if err := r.ParseMultipartForm(1 << 20); err == nil {
				rec.Form = flatten(r.MultipartForm.Value)
			}
		}
		m.mu.Lock()
		m.requests = append(m.requests, rec)
		m.mu.Unlock()

		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// createMockClient creates a client that talks to a mock server
func createMockClient(t *testing.T, server *mockWiki, opts ...ClientOption) *Client {
	t.Helper()
	config := &Config{
		URL:       server.URL + "/",
		APIURL:    server.URL + "/api.php",
		Timeout:   5 * time.Second,
		UserAgent: "TestClient/1.0",
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	opts = append([]ClientOption{WithFs(afero.NewMemMapFs())}, opts...)
	return NewClient(config, logger, opts...)
}

// writeJSON encodes v as the response body
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// pageResponse builds a query.pages reply for one page
func pageResponse(pageID, editToken string, content *string) map[string]any {
	page := map[string]any{"edittoken": editToken}
	if content != nil {
		page["revisions"] = []any{map[string]any{"*": *content}}
	} else {
		page["missing"] = ""
	}
	return map[string]any{"query": map[string]any{"pages": map[string]any{pageID: page}}}
}

func strPtr(s string) *string { return &s }
