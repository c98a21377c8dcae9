package wiki

// LogAttrs methods return slog key/value pairs describing a tool call without
// dumping page content.

func (a SearchArgs) LogAttrs() []any   { return []any{"query", a.Query} }
func (a GetPageArgs) LogAttrs() []any  { return []any{"title", a.Title} }
func (a AppendArgs) LogAttrs() []any   { return []any{"title", a.Title, "text_chars", len(a.Text)} }
func (a LogArgs) LogAttrs() []any      { return []any{"title", a.Title, "text_chars", len(a.Text)} }
func (a MoveArgs) LogAttrs() []any     { return []any{"from", a.From, "to", a.To, "leave_redirect", a.LeaveRedirect} }
func (a UploadArgs) LogAttrs() []any   { return []any{"file_path", a.FilePath, "filename", a.Filename} }
func (r SearchResult) LogAttrs() []any { return []any{"results_count", len(r.Results)} }
func (r EditResult) LogAttrs() []any   { return []any{"saved", r.Saved} }
func (r UploadResult) LogAttrs() []any { return []any{"url", r.URL} }

func (a SavePageArgs) LogAttrs() []any {
	return []any{"title", a.Title, "content_chars", len(a.Content)}
}

func (p Page) LogAttrs() []any {
	return []any{"exists", p.Exists, "output_chars", len(p.Content)}
}
