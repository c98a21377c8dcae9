// Package tools exposes the wiki operations as MCP tools. Tools are declared
// as metadata and bound to typed client methods when registered.
package tools

// ToolSpec declares one tool. Method names the wiki.Client wrapper
// (e.g. "GetPage" for GetPageMCP) whose Args/Result types define the schema.
type ToolSpec struct {
	Name        string // MCP tool name, always prefixed wiki_
	Method      string
	Title       string
	Description string // shown to the model; USE WHEN / NOT FOR / PARAMETERS / RETURNS
	Category    string // search, read or write

	// Annotation hints
	ReadOnly    bool
	Destructive bool // overwrites or renames existing content
	Idempotent  bool
	OpenWorld   bool // talks to the wiki
}

func ptr[T any](v T) *T {
	return &v
}
