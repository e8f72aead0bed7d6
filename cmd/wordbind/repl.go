package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/formatter"
	"github.com/thomasrohde/wordbind/pkg/runtime"
	"github.com/thomasrohde/wordbind/pkg/value"
)

const (
	historyFile = ".wordbind_history"
	promptMain  = "wb> "
	promptCont  = "... "
)

const replHelp = `Each input binds into one user context that persists for the session.
  :user    show the user context
  :lib     show the lib context
  :quit    exit (Ctrl+D also works)
`

// prompter reads one line of input.
type prompter interface {
	Prompt(prompt string) (string, error)
}

type scanPrompter struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (p *scanPrompter) Prompt(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.sc.Text(), nil
}

func (a *app) replCommand() *cobra.Command {
	var lib string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Bind input line by line into a persistent user context",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if lib == "" {
				lib = a.cfg.Lib
			}
			rt := a.newRuntime()
			if lib != "" {
				src, name, err := a.readSource(lib)
				if err != nil {
					return err
				}
				if err := rt.LoadLib(src, name); err != nil {
					return a.fail(err)
				}
			}

			var in prompter
			if f, ok := a.stdin.(*os.File); ok && isTerminal(f) {
				ln := liner.NewLiner()
				defer ln.Close()
				ln.SetCtrlCAborts(true)

				histPath := historyPath()
				if f, err := os.Open(histPath); err == nil {
					_, _ = ln.ReadHistory(f)
					_ = f.Close()
				}
				defer func() {
					if f, err := os.Create(histPath); err == nil {
						_, _ = ln.WriteHistory(f)
						_ = f.Close()
					}
				}()
				in = &linerPrompter{ln}
			} else {
				in = &scanPrompter{sc: bufio.NewScanner(a.stdin), out: io.Discard}
			}

			a.repl(rt, in)
			if err := rt.Close(); err != nil {
				return a.fail(err)
			}
			return nil
		},
	}
	addLibFlag(cmd.Flags(), &lib)
	return cmd
}

type linerPrompter struct{ ln *liner.State }

func (p *linerPrompter) Prompt(prompt string) (string, error) {
	line, err := p.ln.Prompt(prompt)
	if err == nil && strings.TrimSpace(line) != "" {
		p.ln.AppendHistory(line)
	}
	return line, err
}

func historyPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, historyFile)
	}
	return historyFile
}

func (a *app) repl(rt *runtime.Runtime, in prompter) {
	var pending strings.Builder
	for {
		prompt := promptMain
		if pending.Len() > 0 {
			prompt = promptCont
		}
		line, err := in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			pending.Reset()
			continue
		}
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return
		}

		if pending.Len() == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ":quit", ":q":
				return
			case ":help":
				fmt.Fprint(a.stdout, replHelp)
				continue
			case ":user":
				fmt.Fprintln(a.stdout, a.moldContext(rt.User()))
				continue
			case ":lib":
				fmt.Fprintln(a.stdout, a.moldContext(rt.Lib()))
				continue
			}
		}

		pending.WriteString(line)
		pending.WriteByte('\n')
		src := pending.String()
		if unclosed(rt, src) {
			continue
		}
		pending.Reset()

		arr, unbound, err := rt.BindSource(src, "<repl>")
		if err != nil {
			code, diags := classify(err)
			fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, a.pretty))
			a.log.WithField("exit", code).Debug("input rejected")
			continue
		}
		fmt.Fprint(a.stdout, rt.Mold(arr))
		if unbound > 0 {
			a.log.WithField("unbound", unbound).Info("some words are unbound")
		}
	}
}

func (a *app) moldContext(ctx *value.Context) string {
	return formatter.Mold(value.Object(ctx), formatter.Options{ShowBindings: a.cfg.ShowBindings})
}

// unclosed reports whether src only fails to load because a block, group
// or string is still open.
func unclosed(rt *runtime.Runtime, src string) bool {
	if strings.Count(src, "[")+strings.Count(src, "(") <= strings.Count(src, "]")+strings.Count(src, ")") &&
		strings.Count(src, `"`)%2 == 0 {
		return false
	}
	_, err := rt.Load(src, "<repl>")
	var de *runtime.DiagnosticError
	if !errors.As(err, &de) {
		return false
	}
	for _, d := range de.Diagnostics {
		if strings.HasPrefix(d.Message, "missing ") || strings.Contains(d.Message, "unterminated string") {
			return true
		}
	}
	return false
}
