// Package shell implements the interactive wiki prompt and the commands shared
// with the command line.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/sniku/gowiki/editor"
	"github.com/sniku/gowiki/wiki"
)

// Prompt is printed before every line read by Run
const Prompt = "\nWiki command: "

// Wiki is the subset of the wiki client the shell drives
type Wiki interface {
	Fetch(ctx context.Context, title string) (wiki.Page, error)
	Save(ctx context.Context, title, content, token string) error
	AppendLine(ctx context.Context, title, text string) error
	Log(ctx context.Context, title, text string) error
	Move(ctx context.Context, from, to string, opts ...wiki.MoveOption) error
	Upload(ctx context.Context, path, altName string) (string, error)
	Search(ctx context.Context, phrase string) ([]wiki.SearchHit, error)
}

type handler func(ctx context.Context, args []string) error

// Shell runs wiki commands and remembers the last search between them
type Shell struct {
	wiki    Wiki
	editor  editor.Editor
	out     io.Writer
	fs      afero.Fs
	logger  *slog.Logger
	verbose bool

	handlers map[Command]handler

	lastQuery   string
	lastResults []wiki.SearchHit
}

// Option configures a Shell
type Option func(*Shell)

// WithVerbose shows a diff of every edit before it is saved
func WithVerbose(v bool) Option {
	return func(s *Shell) {
		s.verbose = v
	}
}

// WithFs sets the filesystem upload paths are checked against
func WithFs(fs afero.Fs) Option {
	return func(s *Shell) {
		s.fs = fs
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) {
		s.logger = l
	}
}

// New creates a Shell that writes its output to out
func New(w Wiki, ed editor.Editor, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		wiki:   w,
		editor: ed,
		out:    out,
		fs:     afero.NewOsFs(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.handlers = map[Command]handler{
		CmdSearch: func(ctx context.Context, args []string) error { return s.Search(ctx, args[0]) },
		CmdGo:     func(ctx context.Context, args []string) error { return s.Go(ctx, args[0]) },
		CmdOpen: func(ctx context.Context, args []string) error {
			n, _ := strconv.Atoi(args[0]) // validated by Parse
			return s.Open(ctx, n)
		},
		CmdCat:    func(ctx context.Context, args []string) error { return s.Cat(ctx, args[0]) },
		CmdAppend: func(ctx context.Context, args []string) error { return s.Append(ctx, args[0], strings.Join(args[1:], " ")) },
		CmdLog:    func(ctx context.Context, args []string) error { return s.Log(ctx, args[0], strings.Join(args[1:], " ")) },
		CmdMove:   func(ctx context.Context, args []string) error { return s.Move(ctx, args[0], args[1], false) },
		CmdUpload: func(ctx context.Context, args []string) error {
			alt := ""
			if len(args) > 1 {
				alt = args[1]
			}
			return s.Upload(ctx, args[0], alt)
		},
		CmdHelp: func(_ context.Context, args []string) error {
			s.Help(args)
			return nil
		},
		CmdQuit: func(context.Context, []string) error { return nil },
	}
	return s
}

// Execute runs one parsed invocation
func (s *Shell) Execute(ctx context.Context, inv Invocation) error {
	h, ok := s.handlers[inv.Command]
	if !ok {
		return &UsageError{Reason: fmt.Sprintf("unknown command %q", inv.Command)}
	}
	s.logger.Debug("Executing command", "command", inv.Command, "args", len(inv.Args))
	return h(ctx, inv.Args)
}

// Run reads commands from in until quit or end of input. Command failures are
// printed and the loop carries on.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, Prompt)
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		inv, err := Parse(scanner.Text())
		if errors.Is(err, ErrEmptyLine) {
			continue
		}
		if err != nil {
			fmt.Fprintln(s.out, err)
			continue
		}
		if inv.Command == CmdQuit {
			fmt.Fprintln(s.out)
			return nil
		}

		if err := s.Execute(ctx, inv); err != nil {
			s.logger.Debug("Command failed", "command", inv.Command, "error", err)
			fmt.Fprintln(s.out, errorStyle.Render("Error: "+err.Error()))
		}
	}
}

// Search runs a search and shows the result list. A single hit is opened directly.
func (s *Shell) Search(ctx context.Context, phrase string) error {
	fmt.Fprintln(s.out, "Searching for", phrase)
	hits, err := s.wiki.Search(ctx, phrase)
	if err != nil {
		return err
	}
	s.lastQuery = phrase
	s.lastResults = hits
	return s.ShowResults(ctx)
}

// ShowResults prints the last search result again
func (s *Shell) ShowResults(ctx context.Context) error {
	switch len(s.lastResults) {
	case 0:
		fmt.Fprintf(s.out, "No results for \"%s\"\n", s.lastQuery)
		return nil
	case 1:
		fmt.Fprintln(s.out, "Perfect hit. Opening", s.lastResults[0].Title)
		return s.Go(ctx, s.lastResults[0].Title)
	}

	for i, hit := range s.lastResults {
		fmt.Fprintf(s.out, "%s %s\n", indexStyle.Render(strconv.Itoa(i+1)), titleStyle.Render(hit.Title))
		if snippet := wiki.SnippetText(hit.Snippet); snippet != "" {
			fmt.Fprintf(s.out, "   %s\n", snippetStyle.Render(snippet))
		}
	}
	return nil
}

// Open edits entry n (1-based) of the last search result
func (s *Shell) Open(ctx context.Context, n int) error {
	if n < 1 || n > len(s.lastResults) {
		fmt.Fprintln(s.out, "Wrong index - try again")
		return nil
	}
	title := s.lastResults[n-1].Title
	fmt.Fprintln(s.out, "Opening", title)
	return s.Go(ctx, title)
}

// Go opens an article in the editor and saves it if the text changed
func (s *Shell) Go(ctx context.Context, title string) error {
	page, err := s.wiki.Fetch(ctx, title)
	if err != nil {
		return err
	}
	before, after, err := s.editor.Edit(ctx, page.Content, title)
	if err != nil {
		return err
	}
	return s.saveIfChanged(ctx, page, before, after)
}

// AppendAndEdit adds text on a new line at the bottom of an article and opens
// the result in the editor. Nothing is saved if the editor is closed untouched.
func (s *Shell) AppendAndEdit(ctx context.Context, title, text string) error {
	page, err := s.wiki.Fetch(ctx, title)
	if err != nil {
		return err
	}
	before, after, err := s.editor.Edit(ctx, page.Content+"\n"+text, title)
	if err != nil {
		return err
	}
	return s.saveIfChanged(ctx, page, before, after)
}

func (s *Shell) saveIfChanged(ctx context.Context, page wiki.Page, before, after string) error {
	if before == after {
		fmt.Fprintln(s.out, "No changes, nothing saved")
		return nil
	}
	if s.verbose {
		fmt.Fprintln(s.out, RenderDiff(before, after))
	}
	if err := s.wiki.Save(ctx, page.Title, after, page.Token); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Saved", page.Title)
	return nil
}

// Cat prints an article's text
func (s *Shell) Cat(ctx context.Context, title string) error {
	page, err := s.wiki.Fetch(ctx, title)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, page.Content)
	return nil
}

// Append adds text on a new line at the bottom of an article and saves it
func (s *Shell) Append(ctx context.Context, title, text string) error {
	if err := s.wiki.AppendLine(ctx, title, text); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Appended to", title)
	return nil
}

// Log appends a timestamped line to an article and saves it
func (s *Shell) Log(ctx context.Context, title, text string) error {
	if err := s.wiki.Log(ctx, title, text); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged to", title)
	return nil
}

// Move renames an article, optionally leaving a redirect at the old title
func (s *Shell) Move(ctx context.Context, from, to string, leaveRedirect bool) error {
	var opts []wiki.MoveOption
	if leaveRedirect {
		opts = append(opts, wiki.WithRedirect())
	}
	if err := s.wiki.Move(ctx, from, to, opts...); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Moved %s to %s\n", from, to)
	return nil
}

// Upload sends a local file to the wiki. A missing file is reported, not an error.
func (s *Shell) Upload(ctx context.Context, path, altName string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	exists, err := afero.Exists(s.fs, abs)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Fprintf(s.out, "File path \"%s\" doesn't exist - nothing uploaded\n", abs)
		return nil
	}

	u, err := s.wiki.Upload(ctx, abs, altName)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, "File uploaded.", u)
	return nil
}

// Help lists the commands, or shows the usage of one
func (s *Shell) Help(args []string) {
	if len(args) == 1 {
		if cmd, ok := lookup(args[0]); ok {
			fmt.Fprintln(s.out, arities[cmd].usage)
			return
		}
		fmt.Fprintf(s.out, "No help for %q\n", args[0])
		return
	}

	fmt.Fprintln(s.out, titleStyle.Render("Commands"))
	for _, cmd := range commandOrder {
		fmt.Fprintf(s.out, "  %s\n", arities[cmd].usage)
	}
}
