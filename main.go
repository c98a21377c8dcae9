// wiki - a terminal client for MediaWiki.
// Opens articles in the user's editor, searches, appends, logs, moves and
// uploads files, and can serve the same operations as MCP tools over stdio.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/sniku/gowiki/editor"
	"github.com/sniku/gowiki/shell"
	"github.com/sniku/gowiki/tracing"
	"github.com/sniku/gowiki/wiki"
)

const (
	Name    = "gowiki"
	Version = "0.3.0"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds the flags and the session shared by every command
type app struct {
	configPath    string
	verbose       bool
	leaveRedirect bool
	metricsAddr   string

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// stdinIsTerminal reports whether in is an interactive terminal
	stdinIsTerminal func() bool
	newEditor       func(cfg *wiki.Config, logger *slog.Logger) editor.Editor

	cfg             *wiki.Config
	logger          *slog.Logger
	logCloser       io.Closer
	shutdownTracing func(context.Context) error
	client          *wiki.Client
	shell           *shell.Shell
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		in:     in,
		out:    out,
		errOut: errOut,
		stdinIsTerminal: func() bool {
			f, ok := in.(*os.File)
			return ok && term.IsTerminal(int(f.Fd()))
		},
		newEditor: func(cfg *wiki.Config, logger *slog.Logger) editor.Editor {
			return editor.New(cfg.EditorCommand(), editor.WithLogger(logger))
		},
	}
}

// init loads the configuration, logs in and builds the shell
func (a *app) init(ctx context.Context) error {
	cfg, err := wiki.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger, a.logCloser = newLogger(cfg, a.verbose, a.errOut)

	a.shutdownTracing, err = tracing.Setup(ctx, tracing.DefaultConfig(Version))
	if err != nil {
		a.logger.Warn("Tracing disabled", "error", err)
		a.shutdownTracing = nil
	}

	a.client = wiki.NewClient(cfg, a.logger)
	if err := a.client.Login(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	a.shell = shell.New(a.client, a.newEditor(cfg, a.logger), a.out,
		shell.WithVerbose(a.verbose || cfg.Verbose),
		shell.WithLogger(a.logger),
	)
	return nil
}

// close flushes traces and the log file; safe to call more than once
func (a *app) close() {
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(context.Background()); err != nil && a.logger != nil {
			a.logger.Warn("Tracing shutdown failed", "error", err)
		}
		a.shutdownTracing = nil
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
		a.logCloser = nil
	}
}
