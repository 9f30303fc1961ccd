// Package a0 is the public facade: Parse, Validate, Format, LoadPolicy,
// BuildAllowedCaps, Execute (spec.md §6 Public API). Grounded on the
// teacher's runtime/runtime.go Execute/ExecuteWithProgram facade shape:
// parse -> validate -> build context -> execute, returning structured
// results instead of throwing.
package a0

import (
	"context"
	"os"
	"time"

	"github.com/hashicorp/go-set/v3"

	"github.com/ThomasRohde/agent0/ast"
	"github.com/ThomasRohde/agent0/diag"
	"github.com/ThomasRohde/agent0/eval"
	"github.com/ThomasRohde/agent0/formatter"
	"github.com/ThomasRohde/agent0/parser"
	"github.com/ThomasRohde/agent0/policy"
	"github.com/ThomasRohde/agent0/registry"
	"github.com/ThomasRohde/agent0/trace"
	"github.com/ThomasRohde/agent0/validator"
)

// Parse parses src into a Program, or the first lex/parse diagnostic.
func Parse(src, file string) (*ast.Program, *diag.Diagnostic) {
	return parser.Parse(src, file)
}

// Validate runs every static check against prog and returns the
// accumulated diagnostics (empty/nil if accepted).
func Validate(prog *ast.Program, tools registry.ToolRegistry, stdlib registry.StdlibRegistry) diag.List {
	return validator.Validate(prog, tools, stdlib)
}

// Format renders prog as canonical A0 source text.
func Format(prog *ast.Program) string {
	return formatter.Format(prog)
}

// LoadPolicy loads the layered `.a0policy.json` document, searching
// "<cwd>/.a0policy.json" then "<home>/.a0/policy.json".
func LoadPolicy(cwd, home string) policy.Policy {
	return policy.Load(cwd, home)
}

// BuildAllowedCaps computes the effective allow-set for a loaded policy.
func BuildAllowedCaps(p policy.Policy, unsafeAllowAll bool) *set.Set[string] {
	return policy.BuildAllowedCaps(p, unsafeAllowAll)
}

// ExecuteOptions configures Execute; it mirrors eval.Options but keeps
// facade callers from importing the eval package directly for the common
// path (parse source text once, validate, run).
type ExecuteOptions struct {
	AllowedCaps *set.Set[string]
	Tools       registry.ToolRegistry
	Stdlib      registry.StdlibRegistry
	Sink        trace.Sink
	RunID       string
	Ctx         context.Context
	Now         func() time.Time
}

// Execute validates prog (returning its diagnostics if rejected, never
// running anything) then evaluates it against opts, returning the
// evaluator's contract result.
func Execute(prog *ast.Program, src string, opts ExecuteOptions) (eval.Result, diag.List, *eval.RuntimeError) {
	diags := Validate(prog, opts.Tools, opts.Stdlib)
	if len(diags) > 0 {
		return eval.Result{}, diags, nil
	}
	result, rtErr := eval.Execute(prog, eval.Options{
		AllowedCaps: opts.AllowedCaps,
		Tools:       opts.Tools,
		Stdlib:      opts.Stdlib,
		Sink:        opts.Sink,
		RunID:       opts.RunID,
		Ctx:         opts.Ctx,
		Now:         opts.Now,
		Source:      src,
	})
	return result, nil, rtErr
}

// DefaultHome returns the current user's home directory, falling back to
// "" (which LoadPolicy's search path simply never matches) if it cannot
// be determined.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
