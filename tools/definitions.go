package tools

// AllTools contains all tool specifications for the wiki MCP server.
// Tool descriptions follow a structured format for LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// SEARCH & READ
	// ==========================================================================
	{
		Name:     "wiki_search",
		Method:   "Search",
		Title:    "Search Wiki",
		Category: "search",
		Description: `Full-text search across all wiki pages.

USE WHEN: User asks "find pages about X", "where did I write about X", or doesn't know the page title.

NOT FOR: Reading a page whose title is known (use wiki_get_page).

PARAMETERS:
- query: Search text (required)

RETURNS: Matching page titles in relevance order with plain-text snippets.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_get_page",
		Method:   "GetPage",
		Title:    "Get Page",
		Category: "read",
		Description: `Read the current wikitext of a page.

USE WHEN: User asks "show me page X", "what does X say", or before rewriting a page.

NOT FOR: Finding pages by content (use wiki_search).

PARAMETERS:
- title: Exact page title (required)

RETURNS: Page title, wikitext content, and whether the page exists. Missing pages return empty content.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// WRITE
	// ==========================================================================
	{
		Name:     "wiki_save_page",
		Method:   "SavePage",
		Title:    "Save Page",
		Category: "write",
		Description: `Replace the full content of a page, creating it if needed.

USE WHEN: User asks to rewrite, fix, or create a page with given text.

NOT FOR: Adding a line at the end (use wiki_append or wiki_log).

PARAMETERS:
- title: Exact page title (required)
- content: Complete new wikitext (required)

RETURNS: Whether a revision was saved. Identical content is not saved.`,
		Destructive: true,
		Idempotent:  true,
		OpenWorld:   true,
	},
	{
		Name:     "wiki_append",
		Method:   "Append",
		Title:    "Append to Page",
		Category: "write",
		Description: `Add text on a new line at the bottom of a page.

USE WHEN: User says "add X to page Y", "note down X in Y".

NOT FOR: Dated journal entries (use wiki_log).

PARAMETERS:
- title: Exact page title (required)
- text: Text to add (required)

RETURNS: Confirmation that the page was saved.`,
		OpenWorld: true,
	},
	{
		Name:     "wiki_log",
		Method:   "Log",
		Title:    "Log to Page",
		Category: "write",
		Description: `Add a line prefixed with the current date and time ("YYYY-MM-DD HH:MM ") at the bottom of a page.

USE WHEN: User keeps a journal or work log and says "log X", "record that X happened".

NOT FOR: Undated additions (use wiki_append).

PARAMETERS:
- title: Exact page title (required)
- text: Entry text (required)

RETURNS: Confirmation that the page was saved.`,
		OpenWorld: true,
	},
	{
		Name:     "wiki_move_page",
		Method:   "MovePage",
		Title:    "Move Page",
		Category: "write",
		Description: `Rename a page.

USE WHEN: User asks to rename or move a page.

PARAMETERS:
- from: Current title (required)
- to: New title (required)
- leave_redirect: Keep a redirect at the old title (default false)

RETURNS: Confirmation with both titles.`,
		Destructive: true,
		OpenWorld:   true,
	},
	{
		Name:     "wiki_upload_file",
		Method:   "UploadFile",
		Title:    "Upload File",
		Category: "write",
		Description: `Upload a local file to the wiki. Warnings such as duplicates are ignored.

USE WHEN: User asks to upload an image or attachment from disk.

PARAMETERS:
- file_path: Local path (required)
- filename: Name on the wiki (default: base name of file_path)

RETURNS: Stored file name and its URL.`,
		OpenWorld: true,
	},
}
