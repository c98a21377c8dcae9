package wiki

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestSearch_Success(t *testing.T) {
	server := mockMediaWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"query": map[string]any{
				"searchinfo": map[string]any{"totalhits": 2},
				"search": []any{
					map[string]any{"ns": 0, "title": "Zebra", "snippet": "a <span class=\"searchmatch\">stripe</span>"},
					map[string]any{"ns": 0, "title": "Apple", "snippet": "no stripes"},
				},
			},
		})
	})

	client := createMockClient(t, server)
	hits, err := client.Search(context.Background(), "stripe")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	// order is the wiki's ranking, not alphabetical
	if hits[0].Title != "Zebra" || hits[1].Title != "Apple" {
		t.Errorf("titles = [%q %q], want [Zebra Apple]", hits[0].Title, hits[1].Title)
	}

	q := server.calls("query")[0].Query
	if q["list"] != "search" || q["srsearch"] != "stripe" || q["srwhat"] != "text" {
		t.Errorf("query = %v", q)
	}
}

func TestSearch_NoResults(t *testing.T) {
	server := mockMediaWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"searchinfo":{"totalhits":0},"search":[]}}`))
	})

	client := createMockClient(t, server)
	hits, err := client.Search(context.Background(), "zzz")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if hits == nil || len(hits) != 0 {
		t.Errorf("hits = %#v, want empty non-nil slice", hits)
	}
}

func TestSearch_BlankPhrase(t *testing.T) {
	server := mockMediaWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a blank phrase")
	})

	client := createMockClient(t, server)
	for _, phrase := range []string{"", "   "} {
		hits, err := client.Search(context.Background(), phrase)
		if err != nil {
			t.Fatalf("Search(%q) failed: %v", phrase, err)
		}
		if len(hits) != 0 {
			t.Errorf("Search(%q) = %v, want empty", phrase, hits)
		}
	}
}

func TestSearch_Failures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
	}{
		{"http error", http.StatusBadGateway, "bad gateway", ""},
		{"api error", http.StatusOK, `{"error":{"code":"srsearch-text-disabled","info":"text search is disabled"}}`, "srsearch-text-disabled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := mockMediaWikiServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			client := createMockClient(t, server)
			_, err := client.Search(context.Background(), "x")
			var searchErr *SearchError
			if !errors.As(err, &searchErr) {
				t.Fatalf("expected *SearchError, got %v", err)
			}
			if searchErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", searchErr.Code, tt.wantCode)
			}
		})
	}
}

func TestSnippetText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`a <span class="searchmatch">stripe</span> here`, "a stripe here"},
		{"line one\nline   two", "line one line two"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>safe", "safe"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SnippetText(tt.in); got != tt.want {
			t.Errorf("SnippetText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
