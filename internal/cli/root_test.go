package cli

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	for _, name := range []string{"serve", "convert", "check", "completion"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCommandFlags(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("missing persistent --config flag")
	}
	if root.Version == "" {
		t.Error("root command has no version")
	}

	convert, _, _ := root.Find([]string{"convert"})
	for _, name := range []string{"format", "scale", "output", "output-dir", "sandbox", "timeout"} {
		if convert.Flags().Lookup(name) == nil {
			t.Errorf("convert is missing --%s", name)
		}
	}

	serve, _, _ := root.Find([]string{"serve"})
	for _, name := range []string{"listen", "sandbox", "timeout"} {
		if serve.Flags().Lookup(name) == nil {
			t.Errorf("serve is missing --%s", name)
		}
	}
}

func TestRootCommandAttachesLogger(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	root := c.RootCommand()

	convert, _, _ := root.Find([]string{"convert"})
	convert.SetContext(t.Context())
	if err := root.PersistentPreRunE(convert, nil); err != nil {
		t.Fatalf("PersistentPreRunE: %v", err)
	}
	if got := loggerFromContext(convert.Context()); got != c.Logger {
		t.Error("command context does not carry the CLI logger")
	}
}

func TestCompletionScripts(t *testing.T) {
	for shell := range completionShells {
		t.Run(shell, func(t *testing.T) {
			root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs([]string{"completion", shell})
			if err := root.Execute(); err != nil {
				t.Fatalf("completion %s: %v", shell, err)
			}
			if out.Len() == 0 {
				t.Errorf("completion %s wrote nothing", shell)
			}
		})
	}
}

func TestCompletionRejectsUnknownShell(t *testing.T) {
	root := New(&bytes.Buffer{}, log.InfoLevel).RootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"completion", "tcsh"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for unsupported shell")
	}
}
