package shell

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Command is one of the verbs the shell understands
type Command string

const (
	CmdSearch Command = "search"
	CmdGo     Command = "go"
	CmdOpen   Command = "open"
	CmdCat    Command = "cat"
	CmdAppend Command = "append"
	CmdLog    Command = "log"
	CmdMove   Command = "mv"
	CmdUpload Command = "upload"
	CmdHelp   Command = "help"
	CmdQuit   Command = "quit"
)

// aliases maps alternative spellings to commands
var aliases = map[string]Command{
	"display_search_result": CmdOpen,
	"EOF":                   CmdQuit,
	"exit":                  CmdQuit,
	"?":                     CmdHelp,
}

// arity is the accepted argument count of a command; max < 0 means unbounded
type arity struct {
	min, max int
	usage    string

	// raw commands take the rest of the line verbatim as their single argument,
	// so titles and phrases can contain spaces without quoting
	raw bool
}

var arities = map[Command]arity{
	CmdSearch: {1, 1, "search <phrase>  (or /<phrase>)", true},
	CmdGo:     {1, 1, "go <article>", true},
	CmdOpen:   {1, 1, "open <number>  (or just <number>)", false},
	CmdCat:    {1, 1, "cat <article>", true},
	CmdAppend: {2, -1, "append <article> <text>", false},
	CmdLog:    {2, -1, "log <article> <text>", false},
	CmdMove:   {2, 2, "mv <article> <new name>", false},
	CmdUpload: {1, 2, "upload <filepath> [<alt name>]", false},
	CmdHelp:   {0, 1, "help [<command>]", false},
	CmdQuit:   {0, 0, "quit", false},
}

// commandOrder is the order help lists commands in
var commandOrder = []Command{CmdSearch, CmdOpen, CmdGo, CmdCat, CmdAppend, CmdLog, CmdMove, CmdUpload, CmdHelp, CmdQuit}

// Invocation is a parsed input line
type Invocation struct {
	Command Command
	Args    []string
}

// ErrEmptyLine is returned by Parse for blank input
var ErrEmptyLine = errors.New("empty line")

// UsageError reports a bad argument count or unknown command
type UsageError struct {
	Input  string
	Reason string
}

func (e *UsageError) Error() string {
	return e.Reason
}

// Parse turns a line of input into an Invocation. "/phrase" is a search and a
// bare number opens that entry of the last search result.
func Parse(line string) (Invocation, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Invocation{}, ErrEmptyLine
	}

	if strings.HasPrefix(line, "/") {
		return build(CmdSearch, line, []string{line[1:]})
	}

	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	if _, err := strconv.Atoi(name); err == nil {
		return build(CmdOpen, line, []string{name})
	}

	cmd, ok := lookup(name)
	if !ok {
		return Invocation{}, &UsageError{Input: line, Reason: fmt.Sprintf("unknown command %q, type help for a list", name)}
	}

	a := arities[cmd]
	if a.raw {
		var args []string
		if rest != "" {
			args = []string{rest}
		}
		return build(cmd, line, args)
	}

	args, err := shellquote.Split(rest)
	if err != nil {
		return Invocation{}, &UsageError{Input: line, Reason: fmt.Sprintf("cannot parse arguments: %v", err)}
	}
	return build(cmd, line, args)
}

func lookup(name string) (Command, bool) {
	if cmd, ok := aliases[name]; ok {
		return cmd, true
	}
	cmd := Command(name)
	_, ok := arities[cmd]
	return cmd, ok
}

// build checks the argument count against the command's arity
func build(cmd Command, line string, args []string) (Invocation, error) {
	a := arities[cmd]
	if len(args) < a.min || (a.max >= 0 && len(args) > a.max) {
		return Invocation{}, &UsageError{Input: line, Reason: "usage: " + a.usage}
	}
	if cmd == CmdOpen {
		if _, err := strconv.Atoi(args[0]); err != nil {
			return Invocation{}, &UsageError{Input: line, Reason: "usage: " + a.usage}
		}
	}
	return Invocation{Command: cmd, Args: args}, nil
}
