package wiki

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sniku/gowiki/metrics"
	"github.com/sniku/gowiki/tracing"
)

// EditSummary is attached to every revision this client saves
const EditSummary = "gowiki edit"

// Save creates a new revision of title with content, authorized by token.
// Any non-200 status, API error, or edit result other than Success is a *SaveError.
func (c *Client) Save(ctx context.Context, title, content, token string) error {
	ctx, span := tracing.StartSpan(ctx, "wiki.save")
	defer span.End()
	tracing.AddWikiAttributes(span, "edit", title)

	c.logger.Info("Saving page", "title", title, "bytes", len(content))

	resp, err := c.post(ctx, "edit", nil, url.Values{
		"text":    {content},
		"title":   {title},
		"summary": {EditSummary},
		"token":   {token},
	})
	if err != nil {
		metrics.RecordEdit("save", false)
		tracing.RecordError(span, err)
		return err
	}
	if err := mutationError("save", title, resp); err != nil {
		metrics.RecordEdit("save", false)
		tracing.RecordError(span, err)
		return err
	}

	var result editResponse
	if err := resp.decode("edit", &result); err == nil && result.Edit != nil &&
		result.Edit.Result != "" && result.Edit.Result != "Success" {
		metrics.RecordEdit("save", false)
		err := &SaveError{Op: "save", Title: title, StatusCode: resp.status, Info: result.Edit.Result}
		tracing.RecordError(span, err)
		return err
	}

	metrics.RecordEdit("save", true)
	metrics.ContentSize.WithLabelValues("save").Observe(float64(len(content)))
	return nil
}

// mutationError converts a failed status or API error envelope into a *SaveError
func mutationError(op, title string, resp *apiResponse) error {
	if !resp.ok() {
		return &SaveError{Op: op, Title: title, StatusCode: resp.status, Body: string(resp.body)}
	}
	if code, info, isErr := resp.apiError(); isErr {
		return &SaveError{Op: op, Title: title, StatusCode: resp.status, Code: code, Info: info}
	}
	return nil
}

// AppendAndSave appends text to title and saves with the token fetched for it
func (c *Client) AppendAndSave(ctx context.Context, title, text string) error {
	page, err := c.Append(ctx, title, text)
	if err != nil {
		return err
	}
	return c.Save(ctx, title, page.Content, page.Token)
}

// AppendLine appends text on a new line at the bottom of title and saves
func (c *Client) AppendLine(ctx context.Context, title, text string) error {
	return c.AppendAndSave(ctx, title, "\n"+text)
}

// Log appends text as a new line prefixed with the current local time
// ("YYYY-MM-DD HH:MM ") and saves.
func (c *Client) Log(ctx context.Context, title, text string) error {
	return c.AppendLine(ctx, title, Timestamp(c.now())+text)
}

// MoveOption adjusts a Move request
type MoveOption func(url.Values)

// WithRedirect leaves a redirect at the old title instead of sending noredirect
func WithRedirect() MoveOption {
	return func(v url.Values) {
		v.Del("noredirect")
	}
}

// Move renames from to to. The move token is scoped to from, and by default no
// redirect stub is left behind.
func (c *Client) Move(ctx context.Context, from, to string, opts ...MoveOption) error {
	ctx, span := tracing.StartSpan(ctx, "wiki.move")
	defer span.End()
	tracing.AddWikiAttributes(span, "move", from)

	token, err := c.ActionToken(ctx, from, TokenMove)
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to get move token: %w", err)
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("noredirect", "true")
	for _, opt := range opts {
		opt(form)
	}

	resp, err := c.post(ctx, "move", url.Values{"from": {from}, "to": {to}}, form)
	if err != nil {
		metrics.RecordEdit("move", false)
		tracing.RecordError(span, err)
		return err
	}
	if err := mutationError("move", from, resp); err != nil {
		metrics.RecordEdit("move", false)
		tracing.RecordError(span, err)
		return err
	}

	metrics.RecordEdit("move", true)
	c.logger.Info("Moved page", "from", from, "to", to)
	return nil
}

// Upload sends the file at path to the wiki as altName, or under its base name when
// altName is empty. Warnings (duplicates, odd formats) are ignored so the upload
// always proceeds. It returns the URL the wiki reports for the stored file.
func (c *Client) Upload(ctx context.Context, path, altName string) (string, error) {
	filename := altName
	if filename == "" {
		filename = filepath.Base(path)
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.upload")
	defer span.End()
	tracing.AddWikiAttributes(span, "upload", filename)

	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	token, err := c.ActionToken(ctx, FilesSubject, TokenEdit)
	if err != nil {
		tracing.RecordError(span, err)
		return "", fmt.Errorf("failed to get upload token: %w", err)
	}

	body, contentType, err := uploadBody(filename, token, data)
	if err != nil {
		return "", err
	}

	target, err := c.endpoint(url.Values{"action": {"upload"}})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.do(req, "upload")
	if err != nil {
		metrics.RecordEdit("upload", false)
		tracing.RecordError(span, err)
		return "", err
	}
	if err := mutationError("upload", filename, resp); err != nil {
		metrics.RecordEdit("upload", false)
		tracing.RecordError(span, err)
		return "", err
	}

	var result uploadResponse
	if err := resp.decode("upload", &result); err != nil {
		metrics.RecordEdit("upload", false)
		return "", err
	}
	if result.Upload == nil || result.Upload.ImageInfo == nil || result.Upload.ImageInfo.URL == "" {
		metrics.RecordEdit("upload", false)
		return "", &ProtocolError{Action: "upload", Reason: "no imageinfo url in response"}
	}

	metrics.RecordEdit("upload", true)
	metrics.ContentSize.WithLabelValues("upload").Observe(float64(len(data)))
	c.logger.Info("Uploaded file", "filename", filename, "url", result.Upload.ImageInfo.URL)
	return result.Upload.ImageInfo.URL, nil
}

// uploadBody builds the multipart form for action=upload
func uploadBody(filename, token string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"format", "json"},
		{"filename", filename},
		{"token", token},
		{"ignorewarnings", "true"},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build upload form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
