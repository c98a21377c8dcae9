package wiki

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"github.com/sniku/gowiki/tracing"
)

// Token types accepted by ActionToken
const (
	TokenEdit = "edit"
	TokenMove = "move"
)

// FilesSubject is the sentinel title upload tokens are requested for
const FilesSubject = "files"

// ActionToken fetches a fresh token of tokenType ("edit", "move") scoped to subject.
// Tokens are never cached: every call is a round trip.
func (c *Client) ActionToken(ctx context.Context, subject, tokenType string) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.token")
	defer span.End()
	tracing.AddWikiAttributes(span, "query", subject)

	params := url.Values{}
	params.Set("prop", "info")
	params.Set("titles", subject)
	params.Set("intoken", tokenType)

	page, err := c.queryFirstPage(ctx, params)
	if err != nil {
		tracing.RecordError(span, err)
		return "", err
	}

	token := page.EditToken
	if tokenType == TokenMove && page.MoveToken != "" {
		token = page.MoveToken
	}
	if token == "" {
		return "", &ProtocolError{Action: "query", Reason: fmt.Sprintf("no %s token for %q", tokenType, subject)}
	}
	return token, nil
}

// queryFirstPage runs an action=query request for a single title and returns the
// only entry of query.pages.
func (c *Client) queryFirstPage(ctx context.Context, params url.Values) (queryPage, error) {
	resp, err := c.get(ctx, "query", params)
	if err != nil {
		return queryPage{}, err
	}
	if !resp.ok() {
		return queryPage{}, &ProtocolError{Action: "query", Reason: fmt.Sprintf("HTTP %d: %s", resp.status, truncate(string(resp.body), 200))}
	}
	if code, info, isErr := resp.apiError(); isErr {
		return queryPage{}, &ProtocolError{Action: "query", Reason: fmt.Sprintf("[%s] %s", code, info)}
	}

	var result pageQueryResponse
	if err := resp.decode("query", &result); err != nil {
		return queryPage{}, err
	}
	return firstPage(result.Query.Pages)
}

// firstPage picks the single page of a single-title query. If the wiki ever returns
// more than one, the lowest numeric page id wins so the choice is stable. Keys
// that are not numbers sort after the numbers, in text order.
func firstPage(pages map[string]queryPage) (queryPage, error) {
	if len(pages) == 0 {
		return queryPage{}, &ProtocolError{Action: "query", Reason: "no pages in response"}
	}
	keys := make([]string, 0, len(pages))
	for k := range pages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return pages[keys[0]], nil
}
