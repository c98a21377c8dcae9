// Package editor hands article text to an external text editor and reads back
// the result.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"unicode"

	"github.com/spf13/afero"
	"golang.org/x/term"
)

// Editor lets a user change a piece of text
type Editor interface {
	// Edit shows initial to the user and returns it together with the edited text.
	// titleHint only names the scratch file.
	Edit(ctx context.Context, initial, titleHint string) (before, after string, err error)
}

// Runner starts the editor process and waits for it to exit
type Runner func(ctx context.Context, argv []string) error

// External runs an editor command on a temporary file
type External struct {
	command string
	fs      afero.Fs
	tempDir string
	run     Runner
	logger  *slog.Logger
}

// Option configures External
type Option func(*External)

// WithFs sets the filesystem the scratch file is created on
func WithFs(fs afero.Fs) Option {
	return func(e *External) {
		e.fs = fs
	}
}

// WithTempDir sets the directory for scratch files; the system default when empty
func WithTempDir(dir string) Option {
	return func(e *External) {
		e.tempDir = dir
	}
}

// WithRunner replaces the process launcher
func WithRunner(r Runner) Option {
	return func(e *External) {
		e.run = r
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *External) {
		e.logger = l
	}
}

// New returns an External editor for command, e.g. "vim" or "code --wait".
func New(command string, opts ...Option) *External {
	e := &External{
		command: command,
		fs:      afero.NewOsFs(),
		run:     TerminalRunner,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ErrNoCommand is returned when the editor command is blank
var ErrNoCommand = errors.New("no editor command configured")

// Edit writes initial to a scratch file, runs the editor on it and returns the
// file's content once the editor exits. The scratch file is always removed.
func (e *External) Edit(ctx context.Context, initial, titleHint string) (string, string, error) {
	argv := strings.Fields(e.command)
	if len(argv) == 0 {
		return initial, initial, ErrNoCommand
	}

	f, err := afero.TempFile(e.fs, e.tempDir, TempPattern(titleHint))
	if err != nil {
		return initial, initial, fmt.Errorf("failed to create scratch file: %w", err)
	}
	path := f.Name()
	defer func() {
		if err := e.fs.Remove(path); err != nil {
			e.logger.Warn("Failed to remove scratch file", "path", path, "error", err)
		}
	}()

	if _, err := f.WriteString(initial); err != nil {
		_ = f.Close()
		return initial, initial, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := f.Close(); err != nil {
		return initial, initial, fmt.Errorf("failed to write scratch file: %w", err)
	}

	argv = append(argv, path)
	e.logger.Debug("Starting editor", "argv", argv)
	if err := e.run(ctx, argv); err != nil {
		return initial, initial, fmt.Errorf("editor %s failed: %w", argv[0], err)
	}

	edited, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return initial, initial, fmt.Errorf("failed to read scratch file: %w", err)
	}
	return initial, string(edited), nil
}

// TempPattern names the scratch file after the title so the editor shows
// something recognizable: "<title>__[<random>].tmp.wiki".
func TempPattern(title string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, title)
	if name == "" {
		name = "tmp"
	}
	return name + "__[*].tmp.wiki"
}

// TerminalRunner runs argv attached to the user's terminal. When stdin is not a
// terminal (text was piped in), the editor reads from /dev/tty instead.
func TerminalRunner(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	stdin, closeStdin, err := terminalInput()
	if err != nil {
		return err
	}
	defer closeStdin()
	cmd.Stdin = stdin

	return cmd.Run()
}

// terminalInput returns os.Stdin if it is a terminal, otherwise /dev/tty
func terminalInput() (io.Reader, func(), error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		return os.Stdin, func() {}, nil
	}
	tty, err := os.Open("/dev/tty")
	if err != nil {
		return nil, nil, fmt.Errorf("stdin is not a terminal and /dev/tty is unavailable: %w", err)
	}
	return tty, func() { _ = tty.Close() }, nil
}
