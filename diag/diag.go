// Package diag implements A0's Diagnostics component: a single structured
// error record shared by parse, validation, and runtime errors, with two
// stable renderings (machine JSON and human-readable pretty text).
package diag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/ThomasRohde/agent0/ast"
)

// Code is a stable diagnostic code string, e.g. "E_PARSE".
type Code string

// The full error taxonomy (spec.md §7), partitioned by phase.
const (
	ELex               Code = "E_LEX"
	EParse             Code = "E_PARSE"
	EAst               Code = "E_AST"
	ENoReturn          Code = "E_NO_RETURN"
	EReturnNotLast     Code = "E_RETURN_NOT_LAST"
	EUnknownCap        Code = "E_UNKNOWN_CAP"
	ECapValue          Code = "E_CAP_VALUE"
	EUndeclaredCap     Code = "E_UNDECLARED_CAP"
	EImportUnsupported Code = "E_IMPORT_UNSUPPORTED"
	EDupBudget         Code = "E_DUP_BUDGET"
	EUnknownBudget     Code = "E_UNKNOWN_BUDGET"
	EBudgetType        Code = "E_BUDGET_TYPE"
	EDupBinding        Code = "E_DUP_BINDING"
	EUnbound           Code = "E_UNBOUND"
	ECallEffect        Code = "E_CALL_EFFECT"
	EFnDup             Code = "E_FN_DUP"
	EUnknownFn         Code = "E_UNKNOWN_FN"
	EUnknownTool       Code = "E_UNKNOWN_TOOL"

	ECapDenied      Code = "E_CAP_DENIED"
	EIO             Code = "E_IO"
	ETrace          Code = "E_TRACE"
	EToolArgs       Code = "E_TOOL_ARGS"
	ETool           Code = "E_TOOL"
	EBudget         Code = "E_BUDGET"
	EFn             Code = "E_FN"
	EPath           Code = "E_PATH"
	EType           Code = "E_TYPE"
	EForNotList     Code = "E_FOR_NOT_LIST"
	EMatchNotRecord Code = "E_MATCH_NOT_RECORD"
	EMatchNoArm     Code = "E_MATCH_NO_ARM"
	ERuntime        Code = "E_RUNTIME"
	EAssert         Code = "E_ASSERT"
)

// ExitCode maps a diagnostic code to the CLI exit code table (spec.md §6).
func (c Code) ExitCode() int {
	switch c {
	case ECapDenied:
		return 3
	case EIO, ETrace, EToolArgs, ETool, EBudget, EFn, EPath, EType,
		EForNotList, EMatchNotRecord, EMatchNoArm, ERuntime:
		return 4
	case EAssert:
		return 5
	case "":
		return 0
	default:
		// Everything else in the taxonomy const block above this point is a
		// parse/validation-phase code.
		return 2
	}
}

// Diagnostic is the single structured error record shared by every phase.
type Diagnostic struct {
	Code    Code      `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

func New(code Code, message string) Diagnostic {
	return Diagnostic{Code: code, Message: message}
}

func (d Diagnostic) WithSpan(sp ast.Span) Diagnostic {
	d.Span = &sp
	return d
}

func (d Diagnostic) WithHint(hint string) Diagnostic {
	d.Hint = hint
	return d
}

func (d Diagnostic) Error() string {
	return d.Pretty()
}

// Pretty renders the diagnostic in human-readable form:
//
//	error[CODE]: message
//	  --> file:line:col
//	  hint: ...
func (d Diagnostic) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "error[%s]: %s", d.Code, d.Message)
	if d.Span != nil {
		fmt.Fprintf(&b, "\n  --> %s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", d.Hint)
	}
	return b.String()
}

// JSON renders the diagnostic as machine-readable JSON with the exact keys
// code/message/span/hint.
func (d Diagnostic) JSON() string {
	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Sprintf(`{"code":"E_RUNTIME","message":%q}`, err.Error())
	}
	return string(b)
}

// List is a batch of diagnostics.
type List []Diagnostic

// Pretty renders a batch as pretty records separated by one blank line.
func (l List) Pretty() string {
	parts := make([]string, len(l))
	for i, d := range l {
		parts[i] = d.Pretty()
	}
	return strings.Join(parts, "\n\n")
}

// JSON renders a batch as a JSON array.
func (l List) JSON() string {
	b, err := json.Marshal(l)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// Suggest returns a "did you mean X?" hint for name among candidates, or ""
// if nothing is close enough. Grounded on the teacher's use of
// lithammer/fuzzysearch for identifier-suggestion hints.
func Suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)
	lower := strings.ToLower(name)
	best, bestDist := "", -1
	for _, c := range sorted {
		d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	// A distance larger than the candidate itself is not a useful hint.
	if bestDist > len(best) {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}
