package wiki

import (
	"context"
	"net/url"
	"time"

	"github.com/sniku/gowiki/metrics"
	"github.com/sniku/gowiki/tracing"
)

// Fetch retrieves the latest revision of title together with an edit token, in one
// request. A page without revisions is not an error: its content is "" and the token
// can be used to create it.
func (c *Client) Fetch(ctx context.Context, title string) (Page, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.fetch")
	defer span.End()
	tracing.AddWikiAttributes(span, "query", title)

	params := url.Values{}
	params.Set("prop", "info|revisions")
	params.Set("titles", title)
	params.Set("rvprop", "content")
	params.Set("rvlimit", "1")
	params.Set("intoken", TokenEdit)

	qp, err := c.queryFirstPage(ctx, params)
	if err != nil {
		tracing.RecordError(span, err)
		return Page{}, err
	}
	if qp.EditToken == "" {
		err := &ProtocolError{Action: "query", Reason: "no edit token for " + title}
		tracing.RecordError(span, err)
		return Page{}, err
	}

	page := Page{
		Title:  title,
		Token:  qp.EditToken,
		Exists: len(qp.Missing) == 0 && len(qp.Revisions) > 0,
	}
	if len(qp.Revisions) > 0 {
		page.Content = qp.Revisions[0].Content
	}
	metrics.ContentSize.WithLabelValues("fetch").Observe(float64(len(page.Content)))

	c.logger.Debug("Fetched page", "title", title, "exists", page.Exists, "bytes", len(page.Content))
	return page, nil
}

// Append fetches title and returns its content followed by text. The token is the
// one fetched with the page; nothing is saved.
func (c *Client) Append(ctx context.Context, title, text string) (Page, error) {
	page, err := c.Fetch(ctx, title)
	if err != nil {
		return Page{}, err
	}
	page.Content += text
	return page, nil
}

// LogTimestampLayout formats the prefix Log puts in front of each entry
const LogTimestampLayout = "2006-01-02 15:04 "

// Timestamp renders t as a log entry prefix, e.g. "2024-05-01 13:37 "
func Timestamp(t time.Time) string {
	return t.Local().Format(LogTimestampLayout)
}
