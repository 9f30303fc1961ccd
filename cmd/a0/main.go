// Command a0 is the CLI front-end: `a0 run|check|fmt FILE`, mapping every
// outcome onto the exit-code table in spec.md §6. Grounded on the teacher's
// cmd/devcmd/main.go (read file -> parse -> validate -> act -> os.Exit(code))
// and runtime/cli/harness.go (a thin Cobra root with one RunE per verb).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ThomasRohde/agent0/a0"
	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/stdlib"
	"github.com/ThomasRohde/agent0/trace"
)

// exitError carries the process exit code alongside a message cobra can
// print, so every RunE returns through the same os.Exit path in main.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

func newExitError(code int, msg string) *exitError { return &exitError{code: code, msg: msg} }

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		var ee *exitError
		if e, ok := err.(*exitError); ok {
			ee = e
		}
		if ee != nil {
			if ee.msg != "" {
				fmt.Fprintln(os.Stderr, ee.msg)
			}
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "a0",
		Short:         "A0 scripting language: run, check, and format programs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var jsonTrace bool
	var unsafeAllowAll bool

	runCmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Parse, validate, and execute an A0 program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0], jsonTrace, unsafeAllowAll)
		},
	}
	runCmd.Flags().BoolVar(&jsonTrace, "trace", false, "emit trace events as JSON lines to stderr")
	runCmd.Flags().BoolVar(&unsafeAllowAll, "unsafe-allow-all", false, "bypass policy and allow every declared capability")

	checkCmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Parse and validate an A0 program without executing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkFile(args[0])
		},
	}

	fmtCmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print an A0 program in canonical formatted form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmtFile(args[0])
		},
	}

	root.AddCommand(runCmd, checkCmd, fmtCmd)
	return root
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", newExitError(diag.EIO.ExitCode(), fmt.Sprintf("a0: %s", err))
	}
	return string(b), nil
}

// parseAndValidate is shared by run/check/fmt: it reads the file, parses it,
// and (for run/check) validates it against the standard tool-less, stdlib-
// only registry pair used by the CLI. fmt skips validation since it only
// needs a syntactically valid AST.
func parseAndValidate(path string, validate bool) (prog *programResult, err error) {
	src, rerr := readSource(path)
	if rerr != nil {
		return nil, rerr
	}
	p, d := a0.Parse(src, path)
	if d != nil {
		return nil, newExitError(d.Code.ExitCode(), d.Pretty())
	}
	if validate {
		diags := a0.Validate(p, cliTools(), cliStdlib())
		if len(diags) > 0 {
			return nil, newExitError(diags[0].Code.ExitCode(), diags.Pretty())
		}
	}
	return &programResult{src: src, prog: p}, nil
}

type programResult struct {
	src  string
	prog *ast.Program
}

// cliTools is the CLI's tool registry. The CLI itself has no built-in tool
// implementations to offer — real tools (filesystem, network, shell access)
// are the embedding host's responsibility, deliberately out of scope here —
// so programs that never call `do`/`call?` run to completion and programs
// that do fail with E_UNKNOWN_TOOL, same as any host that declines to wire
// a given name.
func cliTools() registry.ToolRegistry {
	return registry.ToolRegistry{}
}

func cliStdlib() registry.StdlibRegistry {
	return stdlib.New()
}

func checkFile(path string) error {
	_, err := parseAndValidate(path, true)
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func fmtFile(path string) error {
	res, err := parseAndValidate(path, false)
	if err != nil {
		return err
	}
	fmt.Print(a0.Format(res.prog))
	return nil
}

func runFile(path string, jsonTrace, unsafeAllowAll bool) error {
	res, err := parseAndValidate(path, true)
	if err != nil {
		return err
	}

	pol := a0.LoadPolicy(mustCwd(), a0.DefaultHome())
	caps := a0.BuildAllowedCaps(pol, unsafeAllowAll)

	var sink trace.Sink = trace.NopSink{}
	if jsonTrace {
		sink = trace.NewWriterSink(os.Stderr)
	}

	result, diags, rtErr := a0.Execute(res.prog, res.src, a0.ExecuteOptions{
		AllowedCaps: caps,
		Tools:       cliTools(),
		Stdlib:      cliStdlib(),
		Sink:        sink,
		RunID:       "cli",
		Ctx:         context.Background(),
	})
	if len(diags) > 0 {
		return newExitError(diags[0].Code.ExitCode(), diags.Pretty())
	}
	if rtErr != nil {
		return newExitError(rtErr.Code.ExitCode(), rtErr.Diagnostic().Pretty())
	}

	out, merr := json.Marshal(result.Value)
	if merr != nil {
		return newExitError(diag.EIO.ExitCode(), fmt.Sprintf("a0: %s", merr))
	}
	fmt.Println(string(out))
	for _, ev := range result.Evidence {
		if ev.Kind == "check" && !ev.OK {
			return newExitError(diag.EAssert.ExitCode(), "")
		}
	}
	return nil
}

func mustCwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return wd
}
