package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sniku/gowiki/wiki"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testClient(t *testing.T, handler http.HandlerFunc) *wiki.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return wiki.NewClient(&wiki.Config{APIURL: server.URL + "/api.php", UserAgent: "TestClient/1.0"}, testLogger())
}

// connect starts an in-memory MCP session against a server with all tools registered
func connect(t *testing.T, client *wiki.Client) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "dev"}, nil)
	NewHandlerRegistry(client, testLogger()).RegisterAll(server)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	if _, err := server.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	session, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "dev"}, nil).Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

// decodeStructured converts a tool's structured output into target
func decodeStructured(t *testing.T, res *mcp.CallToolResult, target any) {
	t.Helper()
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("marshal structured content: %v", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		t.Fatalf("unmarshal structured content: %v", err)
	}
}

func TestNewHandlerRegistry(t *testing.T) {
	logger := testLogger()
	client := wiki.NewClient(&wiki.Config{APIURL: "http://127.0.0.1:1/api.php"}, logger)

	registry := NewHandlerRegistry(client, logger)
	if registry.client != client {
		t.Error("Registry should hold the client reference")
	}
	if registry.logger != logger {
		t.Error("Registry should hold the logger reference")
	}
}

func TestBuildTool(t *testing.T) {
	registry := NewHandlerRegistry(nil, testLogger())

	tests := []struct {
		name      string
		spec      ToolSpec
		wantRO    bool
		wantIdem  bool
		wantDestr bool
		wantOpen  bool
	}{
		{
			name:     "read-only tool",
			spec:     ToolSpec{Name: "wiki_search", Title: "Search Wiki", Description: "Search", ReadOnly: true, Idempotent: true},
			wantRO:   true,
			wantIdem: true,
		},
		{
			name:      "destructive open world tool",
			spec:      ToolSpec{Name: "wiki_move_page", Title: "Move Page", Description: "Move", Destructive: true, OpenWorld: true},
			wantDestr: true,
			wantOpen:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := registry.buildTool(tt.spec)

			if tool.Name != tt.spec.Name || tool.Description != tt.spec.Description {
				t.Errorf("tool = %q/%q, want %q/%q", tool.Name, tool.Description, tt.spec.Name, tt.spec.Description)
			}
			if tool.Annotations == nil {
				t.Fatal("Expected annotations")
			}
			if tool.Annotations.ReadOnlyHint != tt.wantRO {
				t.Errorf("ReadOnlyHint = %v, want %v", tool.Annotations.ReadOnlyHint, tt.wantRO)
			}
			if tool.Annotations.IdempotentHint != tt.wantIdem {
				t.Errorf("IdempotentHint = %v, want %v", tool.Annotations.IdempotentHint, tt.wantIdem)
			}
			if tt.wantDestr != (tool.Annotations.DestructiveHint != nil && *tool.Annotations.DestructiveHint) {
				t.Errorf("DestructiveHint = %v, want %v", tool.Annotations.DestructiveHint, tt.wantDestr)
			}
			if tt.wantOpen != (tool.Annotations.OpenWorldHint != nil && *tool.Annotations.OpenWorldHint) {
				t.Errorf("OpenWorldHint = %v, want %v", tool.Annotations.OpenWorldHint, tt.wantOpen)
			}
		})
	}
}

func TestAllToolsHaveUniqueNamesAndMethods(t *testing.T) {
	registry := NewHandlerRegistry(wiki.NewClient(&wiki.Config{}, testLogger()), testLogger())
	server := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "dev"}, nil)

	seen := map[string]bool{}
	for _, spec := range AllTools {
		if seen[spec.Name] {
			t.Errorf("duplicate tool name %q", spec.Name)
		}
		seen[spec.Name] = true
		if !strings.HasPrefix(spec.Name, "wiki_") {
			t.Errorf("tool %q should be prefixed with wiki_", spec.Name)
		}
		if spec.Description == "" || spec.Title == "" {
			t.Errorf("tool %q is missing a title or description", spec.Name)
		}
		if !registry.registerByName(server, spec) {
			t.Errorf("tool %q has no handler for method %q", spec.Name, spec.Method)
		}
	}
}

func TestListTools(t *testing.T) {
	session := connect(t, wiki.NewClient(&wiki.Config{APIURL: "http://127.0.0.1:1/api.php"}, testLogger()))

	res, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	if len(res.Tools) != len(AllTools) {
		t.Errorf("listed %d tools, want %d", len(res.Tools), len(AllTools))
	}
}

func TestCallTool_GetPage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"pages":{"123":{"edittoken":"XYZ","revisions":[{"*":"Hello"}]}}}}`))
	})
	session := connect(t, client)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "wiki_get_page",
		Arguments: map[string]any{"title": "Home"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}

	var page wiki.Page
	decodeStructured(t, res, &page)
	if page.Content != "Hello" || !page.Exists {
		t.Errorf("page = %+v", page)
	}
	if page.Token != "" {
		t.Error("edit token must not be exposed")
	}
}

func TestCallTool_SavePageUnchanged(t *testing.T) {
	var edits int
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("action") == "edit" {
			edits++
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"1":{"edittoken":"T","revisions":[{"*":"same"}]}}}}`))
	})
	session := connect(t, client)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "wiki_save_page",
		Arguments: map[string]any{"title": "Home", "content": "same"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}

	var result wiki.EditResult
	decodeStructured(t, res, &result)
	if result.Saved {
		t.Error("expected Saved = false")
	}
	if edits != 0 {
		t.Errorf("edits = %d, want 0", edits)
	}
}

func TestCallTool_ErrorIsReported(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	session := connect(t, client)

	res, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "wiki_search",
		Arguments: map[string]any{"query": "x"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if !res.IsError {
		t.Error("expected IsError for a failed search")
	}
}

func TestHandler_RecoversPanic(t *testing.T) {
	registry := NewHandlerRegistry(nil, testLogger())
	spec := ToolSpec{Name: "wiki_boom"}

	h := handler(registry, spec, func(context.Context, wiki.GetPageArgs) (wiki.Page, error) {
		panic("boom")
	})

	_, _, err := h(context.Background(), nil, wiki.GetPageArgs{Title: "x"})
	if err == nil {
		t.Fatal("expected error from panicking handler")
	}

	// the registry lock must be released after a panic
	h2 := handler(registry, spec, func(context.Context, wiki.GetPageArgs) (wiki.Page, error) {
		return wiki.Page{}, errors.New("plain failure")
	})
	if _, _, err := h2(context.Background(), nil, wiki.GetPageArgs{}); err == nil || !strings.Contains(err.Error(), "plain failure") {
		t.Errorf("err = %v", err)
	}
}
