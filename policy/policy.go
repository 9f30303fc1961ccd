// Package policy implements the Capability resolver: loading a layered
// policy document and computing the effective allow-set (spec.md §3, §4.4,
// §6). Deny-by-default, grounded on the teacher's vault.go security
// philosophy (secrets/capabilities are inaccessible unless explicitly
// authorized) and on pkgs/errors/errors.go's tolerant file-loading pattern.
// Uses hashicorp/go-set/v3 for the allow-minus-deny set arithmetic.
package policy

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-set/v3"
)

// KnownCapabilities is the full set of capability ids the runtime
// recognizes (spec.md §4.4). http.read is deliberately not included: see
// DESIGN.md's Open Question decisions.
var KnownCapabilities = []string{"fs.read", "fs.write", "http.get", "sh.exec"}

// Policy is a layered capability-grant document (spec.md §6's
// ".a0policy.json" schema).
type Policy struct {
	Version int                    `json:"version"`
	Allow    []string               `json:"allow"`
	Deny     []string               `json:"deny,omitempty"`
	Limits   map[string]interface{} `json:"limits,omitempty"`
}

// Load searches, in order, "<cwd>/.a0policy.json" then
// "<home>/.a0/policy.json", and returns the first file found. Returns a
// synthetic empty policy ({allow:[], deny:[]}) if neither exists, or if
// the file found is malformed or not a JSON object — a malformed policy
// file is treated identically to a missing one, never an error.
func Load(cwd, home string) Policy {
	candidates := []string{
		filepath.Join(cwd, ".a0policy.json"),
		filepath.Join(home, ".a0", "policy.json"),
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if p, ok := parse(data); ok {
			return p
		}
	}
	return Policy{Allow: []string{}, Deny: []string{}}
}

func parse(data []byte) (Policy, bool) {
	var raw struct {
		Version int             `json:"version"`
		Allow   json.RawMessage `json:"allow"`
		Deny    json.RawMessage `json:"deny"`
		Limits  map[string]interface{} `json:"limits"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Policy{}, false
	}
	return Policy{
		Version: raw.Version,
		Allow:   filterStrings(raw.Allow),
		Deny:    filterStrings(raw.Deny),
		Limits:  raw.Limits,
	}, true
}

// filterStrings decodes a JSON array, dropping any element that isn't a
// string (spec.md §6: "non-string items in allow/deny are filtered out").
func filterStrings(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// BuildAllowedCaps computes the effective allow-set: policy.allow \
// policy.deny, or the full known-capability set if unsafeAllowAll.
func BuildAllowedCaps(p Policy, unsafeAllowAll bool) *set.Set[string] {
	if unsafeAllowAll {
		return set.From(KnownCapabilities)
	}
	allow := set.From(p.Allow)
	deny := set.From(p.Deny)
	return allow.Difference(deny)
}
