package wiki

import (
	"context"
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/sniku/gowiki/tracing"
)

// strictPolicy removes every tag from search snippets
var strictPolicy = bluemonday.StrictPolicy()

// SnippetText turns an HTML search snippet into plain text
func SnippetText(snippet string) string {
	s := html.UnescapeString(strictPolicy.Sanitize(snippet))
	return strings.Join(strings.Fields(s), " ")
}

// Search runs a full-text search and returns hits in the order the wiki ranked them.
// A blank phrase or a phrase with no hits yields an empty slice, not an error.
func (c *Client) Search(ctx context.Context, phrase string) ([]SearchHit, error) {
	if strings.TrimSpace(phrase) == "" {
		return []SearchHit{}, nil
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.search")
	defer span.End()
	tracing.AddWikiAttributes(span, "query", "")

	params := url.Values{}
	params.Set("list", "search")
	params.Set("srsearch", phrase)
	params.Set("srwhat", "text")

	resp, err := c.get(ctx, "query", params)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	if !resp.ok() {
		err := &SearchError{Query: phrase, StatusCode: resp.status, Body: string(resp.body)}
		tracing.RecordError(span, err)
		return nil, err
	}
	if code, info, isErr := resp.apiError(); isErr {
		err := &SearchError{Query: phrase, StatusCode: resp.status, Code: code, Info: info}
		tracing.RecordError(span, err)
		return nil, err
	}

	var result searchResponse
	if err := resp.decode("search", &result); err != nil {
		return nil, err
	}

	hits := result.Query.Search
	if hits == nil {
		hits = []SearchHit{}
	}
	c.logger.Debug("Search completed", "query", phrase, "results_count", len(hits))
	return hits, nil
}
