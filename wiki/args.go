package wiki

// SearchArgs contains parameters for a full-text search
type SearchArgs struct {
	Query string `json:"query" jsonschema:"Text to search for across the wiki"`
}

// SearchResult is the result of a search, in relevance order
type SearchResult struct {
	Query   string          `json:"query"`
	Results []SearchSummary `json:"results"`
}

// SearchSummary is a search hit with the snippet reduced to plain text
type SearchSummary struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GetPageArgs contains parameters for reading a page
type GetPageArgs struct {
	Title string `json:"title" jsonschema:"Exact page title"`
}

// SavePageArgs contains parameters for replacing page content
type SavePageArgs struct {
	Title   string `json:"title" jsonschema:"Exact page title; the page is created if missing"`
	Content string `json:"content" jsonschema:"Full new wikitext of the page"`
}

// AppendArgs contains parameters for appending a line to a page
type AppendArgs struct {
	Title string `json:"title" jsonschema:"Exact page title"`
	Text  string `json:"text" jsonschema:"Text added on a new line at the bottom of the page"`
}

// LogArgs contains parameters for adding a timestamped line to a page
type LogArgs struct {
	Title string `json:"title" jsonschema:"Exact page title"`
	Text  string `json:"text" jsonschema:"Entry text; prefixed with the current date and time"`
}

// EditResult reports the outcome of a save, append or log
type EditResult struct {
	Title   string `json:"title"`
	Saved   bool   `json:"saved"`
	Message string `json:"message"`
}

// MoveArgs contains parameters for renaming a page
type MoveArgs struct {
	From          string `json:"from" jsonschema:"Current page title"`
	To            string `json:"to" jsonschema:"New page title"`
	LeaveRedirect bool   `json:"leave_redirect,omitempty" jsonschema:"Keep a redirect at the old title (default false)"`
}

// MoveResult reports a completed rename
type MoveResult struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// UploadArgs contains parameters for uploading a local file
type UploadArgs struct {
	FilePath string `json:"file_path" jsonschema:"Path of the local file to upload"`
	Filename string `json:"filename,omitempty" jsonschema:"Name to store the file under (default: base name of file_path)"`
}

// UploadResult reports the stored file
type UploadResult struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
