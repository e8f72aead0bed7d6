// Command wordbind is the CLI entry point: it loads word-binding notation,
// binds it against a lib and a user context, and prints the result.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thomasrohde/wordbind/pkg/bind"
	"github.com/thomasrohde/wordbind/pkg/config"
	"github.com/thomasrohde/wordbind/pkg/diagnostics"
	"github.com/thomasrohde/wordbind/pkg/runtime"
	"github.com/thomasrohde/wordbind/pkg/validator"
)

// Exit codes.
const (
	exitOK       = 0
	exitUsage    = 1
	exitLoad     = 2
	exitBind     = 3
	exitInternal = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// app holds what every command shares once flags and config are read.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	verbose bool
	pretty  bool
	dir     string

	cfg *config.Config
	log *log.Logger
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Flag and argument errors from cobra itself.
	fmt.Fprintln(stderr, err)
	return exitUsage
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "wordbind",
		Short:         "Bind words in block notation to lib, user and object contexts",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human-readable diagnostics (default when stdout is a terminal)")
	root.PersistentFlags().StringVarP(&a.dir, "directory", "C", ".", "project directory holding .wordbind.yaml")

	root.AddCommand(a.bindCommand(), a.checkCommand(), a.collectCommand(), a.fmtCommand(), a.replCommand())
	root.SetHelpCommand(a.helpCommand(root))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	a.log = log.New()
	a.log.SetOutput(a.stderr)
	a.log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})

	cfg, err := config.Load(a.dir)
	if err != nil {
		return a.fail(err)
	}
	a.cfg = cfg
	a.log.SetLevel(cfg.Level())
	if a.verbose {
		a.log.SetLevel(log.DebugLevel)
	}
	if !cmd.Flags().Changed("pretty") {
		a.pretty = cfg.PrettyOr(isTerminal(a.stdout))
	}
	if cfg.Source != "" {
		a.log.WithField("file", cfg.Source).Debug("config loaded")
	}
	return nil
}

func (a *app) newRuntime() *runtime.Runtime {
	return runtime.New(runtime.WithLogger(a.log), runtime.WithConfig(a.cfg))
}

func (a *app) bindCommand() *cobra.Command {
	var lib string
	var showBindings bool

	cmd := &cobra.Command{
		Use:   "bind FILE",
		Short: "Bind FILE into the user context and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("show-bindings") {
				a.cfg.ShowBindings = showBindings
			}
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

			src, name, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			arr, unbound, err := rt.BindSource(src, name)
			if err != nil {
				return a.fail(err)
			}
			fmt.Fprint(a.stdout, rt.Mold(arr))
			a.log.WithFields(log.Fields{
				"user":    rt.User().Len(),
				"unbound": unbound,
			}).Info("bound")

			if err := rt.Close(); err != nil {
				return a.fail(err)
			}
			return nil
		},
	}
	addLibFlag(cmd.Flags(), &lib)
	cmd.Flags().BoolVar(&showBindings, "show-bindings", false, "annotate each word with its binding")
	return cmd
}

func (a *app) checkCommand() *cobra.Command {
	var lib string

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Report words in FILE that stay unbound",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
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
			src, name, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			arr, _, err := rt.BindSource(src, name)
			if err != nil {
				return a.fail(err)
			}
			if err := rt.Close(); err != nil {
				return a.fail(err)
			}

			diags := validator.Validate(arr, validator.Options{MaxDepth: a.cfg.MaxDepth})
			if len(diags) > 0 {
				fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, a.pretty))
				return &exitError{code: exitBind, err: errors.Errorf("%d problems in %s", len(diags), name)}
			}
			if a.pretty {
				fmt.Fprintln(a.stdout, "No errors found.")
			} else {
				fmt.Fprintln(a.stdout, "[]")
			}
			return nil
		},
	}
	addLibFlag(cmd.Flags(), &lib)
	return cmd
}

func (a *app) collectCommand() *cobra.Command {
	var deep, setOnly bool

	cmd := &cobra.Command{
		Use:   "collect FILE",
		Short: "Print the distinct words of FILE in first-seen order",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src, name, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			arr, err := a.newRuntime().Load(src, name)
			if err != nil {
				return a.fail(err)
			}

			mode := bind.CollectAnyWord
			if setOnly {
				mode = bind.CollectSetWords
			}
			if deep {
				mode |= bind.CollectDeep
			}
			syms, err := bind.Collect(arr.Cells, nil, mode, a.cfg.MaxDepth)
			if err != nil {
				return a.fail(err)
			}
			for _, s := range syms {
				fmt.Fprintln(a.stdout, s)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&deep, "deep", false, "descend into nested blocks and groups")
	cmd.Flags().BoolVar(&setOnly, "set-only", false, "collect set-words only")
	return cmd
}

func (a *app) fmtCommand() *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Reformat FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			src, name, err := a.readSource(args[0])
			if err != nil {
				return err
			}
			formatted, err := a.newRuntime().Format(src, name)
			if err != nil {
				return a.fail(err)
			}
			if strings.Contains(src, ";") {
				a.log.Warn("comments are not preserved by the formatter")
			}
			if write && name != "<stdin>" {
				if err := os.WriteFile(name, []byte(formatted), 0o644); err != nil {
					return a.fail(errors.Wrapf(err, "writing %s", name))
				}
				return nil
			}
			fmt.Fprint(a.stdout, formatted)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "rewrite FILE in place")
	return cmd
}

func addLibFlag(fs *pflag.FlagSet, lib *string) {
	fs.StringVar(lib, "lib", "", "source file whose set-words populate lib")
}

// readSource reads file, or standard input for "-".
func (a *app) readSource(file string) (string, string, error) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", "", a.fail(errors.Wrap(err, "reading stdin"))
		}
		return string(data), "<stdin>", nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, a.pretty))
		return "", "", &exitError{code: exitUsage, err: err}
	}
	return string(data), file, nil
}

// fail reports err on stderr and maps it to an exit code.
func (a *app) fail(err error) error {
	code, diags := classify(err)
	fmt.Fprintln(a.stderr, diagnostics.FormatDiagnostics(diags, a.pretty))
	return &exitError{code: code, err: err}
}

func classify(err error) (int, []diagnostics.Diagnostic) {
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		return exitLoad, de.Diagnostics
	}
	var e *diagnostics.Error
	if errors.As(err, &e) {
		d := e.Diag()
		d.Message = err.Error()
		if e.Code == diagnostics.EConfig {
			return exitInternal, []diagnostics.Diagnostic{d}
		}
		return exitBind, []diagnostics.Diagnostic{d}
	}
	return exitInternal, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EInternal, err.Error(), nil, "")}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
