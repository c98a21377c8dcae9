package wiki

import "encoding/json"

// Page is an article with its latest revision content and the edit token that was
// returned alongside it. The token is good for one mutation of this revision.
type Page struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Token   string `json:"-"`
	Exists  bool   `json:"exists"`
}

// SearchHit is one full-text search result. Snippet is the raw HTML the wiki
// returned; see SnippetText for a terminal-friendly rendering.
type SearchHit struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// queryPage is one entry of query.pages in a prop=info|revisions reply
type queryPage struct {
	Title     string          `json:"title"`
	EditToken string          `json:"edittoken"`
	MoveToken string          `json:"movetoken"`
	Missing   json.RawMessage `json:"missing"`
	Revisions []struct {
		Content string `json:"*"`
	} `json:"revisions"`
}

// pageQueryResponse is {"query": {"pages": {<pageid>: {...}}}}
type pageQueryResponse struct {
	Query struct {
		Pages map[string]queryPage `json:"pages"`
	} `json:"query"`
}

// searchResponse is {"query": {"search": [{"title", "snippet"}, ...]}}
type searchResponse struct {
	Query struct {
		Search []SearchHit `json:"search"`
	} `json:"query"`
}

// editResponse is {"edit": {"result": "Success", ...}}
type editResponse struct {
	Edit *struct {
		Result string `json:"result"`
	} `json:"edit"`
}

// uploadResponse is {"upload": {"result": ..., "imageinfo": {"url": ...}}}
type uploadResponse struct {
	Upload *struct {
		Result    string `json:"result"`
		ImageInfo *struct {
			URL string `json:"url"`
		} `json:"imageinfo"`
	} `json:"upload"`
}
