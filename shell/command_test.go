package shell

import (
	"errors"
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want Invocation
	}{
		{"/foo bar", Invocation{CmdSearch, []string{"foo bar"}}},
		{"search release notes", Invocation{CmdSearch, []string{"release notes"}}},
		{"3", Invocation{CmdOpen, []string{"3"}}},
		{"open 2", Invocation{CmdOpen, []string{"2"}}},
		{"display_search_result 1", Invocation{CmdOpen, []string{"1"}}},
		{"go Meeting Notes", Invocation{CmdGo, []string{"Meeting Notes"}}},
		{"  cat   Home  ", Invocation{CmdCat, []string{"Home"}}},
		{`append "Meeting Notes" call Bob`, Invocation{CmdAppend, []string{"Meeting Notes", "call", "Bob"}}},
		{`log Journal 'went home'`, Invocation{CmdLog, []string{"Journal", "went home"}}},
		{`mv "Old Name" New`, Invocation{CmdMove, []string{"Old Name", "New"}}},
		{"upload ./a.png", Invocation{CmdUpload, []string{"./a.png"}}},
		{"upload ./a.png Logo.png", Invocation{CmdUpload, []string{"./a.png", "Logo.png"}}},
		{"help", Invocation{CmdHelp, nil}},
		{"help mv", Invocation{CmdHelp, []string{"mv"}}},
		{"quit", Invocation{CmdQuit, nil}},
		{"exit", Invocation{CmdQuit, nil}},
		{"EOF", Invocation{CmdQuit, nil}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.line, err)
			}
			if got.Command != tt.want.Command {
				t.Errorf("Command = %q, want %q", got.Command, tt.want.Command)
			}
			if len(got.Args) != 0 || len(tt.want.Args) != 0 {
				if !reflect.DeepEqual(got.Args, tt.want.Args) {
					t.Errorf("Args = %q, want %q", got.Args, tt.want.Args)
				}
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"frobnicate",
		"go",
		"cat",
		"append Home",
		"mv OnlyOne",
		"mv a b c",
		"upload",
		"upload a b c",
		"open two",
		"quit now",
		`append "unterminated`,
	}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			var usageErr *UsageError
			if !errors.As(err, &usageErr) {
				t.Errorf("Parse(%q) = %v, want *UsageError", line, err)
			}
		})
	}
}

func TestParse_EmptyLine(t *testing.T) {
	for _, line := range []string{"", "   ", "\t"} {
		if _, err := Parse(line); !errors.Is(err, ErrEmptyLine) {
			t.Errorf("Parse(%q) = %v, want ErrEmptyLine", line, err)
		}
	}
}

func TestParse_EveryCommandHasUsage(t *testing.T) {
	for _, cmd := range commandOrder {
		if arities[cmd].usage == "" {
			t.Errorf("command %q has no usage text", cmd)
		}
	}
	if len(commandOrder) != len(arities) {
		t.Errorf("help lists %d commands, %d are defined", len(commandOrder), len(arities))
	}
}
