package wiki

import (
	"context"
	"fmt"
	"path/filepath"
)

// MCP Tool wrapper methods
// These methods wrap the client methods with Args/Result types for MCP integration.

// SearchMCP is the MCP wrapper for Search
func (c *Client) SearchMCP(ctx context.Context, args SearchArgs) (SearchResult, error) {
	hits, err := c.Search(ctx, args.Query)
	if err != nil {
		return SearchResult{}, err
	}

	results := make([]SearchSummary, 0, len(hits))
	for _, h := range hits {
		results = append(results, SearchSummary{Title: h.Title, Snippet: SnippetText(h.Snippet)})
	}
	return SearchResult{Query: args.Query, Results: results}, nil
}

// GetPageMCP is the MCP wrapper for Fetch
func (c *Client) GetPageMCP(ctx context.Context, args GetPageArgs) (Page, error) {
	if args.Title == "" {
		return Page{}, fmt.Errorf("title is required")
	}
	return c.Fetch(ctx, args.Title)
}

// SavePageMCP fetches the page for a fresh token and saves only if the content differs
func (c *Client) SavePageMCP(ctx context.Context, args SavePageArgs) (EditResult, error) {
	if args.Title == "" {
		return EditResult{}, fmt.Errorf("title is required")
	}
	page, err := c.Fetch(ctx, args.Title)
	if err != nil {
		return EditResult{}, err
	}
	if page.Content == args.Content {
		return EditResult{Title: args.Title, Saved: false, Message: "Content unchanged, nothing saved"}, nil
	}
	if err := c.Save(ctx, args.Title, args.Content, page.Token); err != nil {
		return EditResult{}, err
	}

	msg := "Page saved"
	if !page.Exists {
		msg = "Page created"
	}
	return EditResult{Title: args.Title, Saved: true, Message: msg}, nil
}

// AppendMCP is the MCP wrapper for AppendLine
func (c *Client) AppendMCP(ctx context.Context, args AppendArgs) (EditResult, error) {
	if args.Title == "" {
		return EditResult{}, fmt.Errorf("title is required")
	}
	if err := c.AppendLine(ctx, args.Title, args.Text); err != nil {
		return EditResult{}, err
	}
	return EditResult{Title: args.Title, Saved: true, Message: "Text appended"}, nil
}

// LogMCP is the MCP wrapper for Log
func (c *Client) LogMCP(ctx context.Context, args LogArgs) (EditResult, error) {
	if args.Title == "" {
		return EditResult{}, fmt.Errorf("title is required")
	}
	if err := c.Log(ctx, args.Title, args.Text); err != nil {
		return EditResult{}, err
	}
	return EditResult{Title: args.Title, Saved: true, Message: "Entry logged"}, nil
}

// MoveMCP is the MCP wrapper for Move
func (c *Client) MoveMCP(ctx context.Context, args MoveArgs) (MoveResult, error) {
	if args.From == "" || args.To == "" {
		return MoveResult{}, fmt.Errorf("from and to are required")
	}
	var opts []MoveOption
	if args.LeaveRedirect {
		opts = append(opts, WithRedirect())
	}
	if err := c.Move(ctx, args.From, args.To, opts...); err != nil {
		return MoveResult{}, err
	}
	return MoveResult{From: args.From, To: args.To, Message: "Page moved"}, nil
}

// UploadMCP is the MCP wrapper for Upload
func (c *Client) UploadMCP(ctx context.Context, args UploadArgs) (UploadResult, error) {
	if args.FilePath == "" {
		return UploadResult{}, fmt.Errorf("file_path is required")
	}
	u, err := c.Upload(ctx, args.FilePath, args.Filename)
	if err != nil {
		return UploadResult{}, err
	}
	name := args.Filename
	if name == "" {
		name = filepath.Base(args.FilePath)
	}
	return UploadResult{Filename: name, URL: u}, nil
}
